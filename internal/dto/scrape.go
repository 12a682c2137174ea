package dto

// ScrapePhoneRequest is the payload of the phone discovery endpoint.
type ScrapePhoneRequest struct {
	CompanyName string `json:"companyName"`
	OrgNumber   string `json:"orgNumber"`
	Website     string `json:"website,omitempty"`
}

// ScrapePhoneResponse reports a completed discovery run. PhoneNumber and Source
// are null when nothing was found.
type ScrapePhoneResponse struct {
	Success       bool    `json:"success"`
	PhoneNumber   *string `json:"phoneNumber"`
	Source        *string `json:"source"`
	CompanyName   string  `json:"companyName"`
	OrgNumber     string  `json:"orgNumber"`
	Website       string  `json:"website,omitempty"`
	WebsiteSource string  `json:"websiteSource,omitempty"`
}
