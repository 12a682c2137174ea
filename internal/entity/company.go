package entity

// Registry status values.
const (
	StatusActive      = "AKTIV"
	StatusBankrupt    = "KONKURS"
	StatusDissolution = "AVVIKLING"
)

// Entity types accepted by SearchFilters.EnhetType.
const (
	EnhetTypeMain = "hovedenhet"
	EnhetTypeSub  = "underenhet"
)

// Company is a normalized entry from the business registry.
type Company struct {
	Organisasjonsnummer string `json:"organisasjonsnummer"`
	Navn                string `json:"navn"`
	Postadresse         string `json:"postadresse"`
	Postnummer          string `json:"postnummer"`
	Kommunenummer       string `json:"kommunenummer"`
	AntallAnsatte       int    `json:"antallAnsatte"`
	NaceKode            string `json:"naceKode"`
	NaceBeskrivelse     string `json:"naceBeskrivelse"`
	Organisasjonsform   string `json:"organisasjonsform"`
	Registreringsdato   string `json:"registreringsdato"`
	Status              string `json:"status"`
	Hjemmeside          string `json:"hjemmeside,omitempty"`
	Telefon             string `json:"telefon,omitempty"`
	Mobil               string `json:"mobil,omitempty"`
	Epost               string `json:"epost,omitempty"`
	// TelefonKilde records where an enriched Telefon came from.
	TelefonKilde string `json:"telefonKilde,omitempty"`
}

// SearchFilters narrows a registry search. Empty fields are not sent.
type SearchFilters struct {
	NaceCodes     []string `json:"naceCodes"`
	Postnummer    string   `json:"postnummer"`
	Kommunenummer string   `json:"kommunenummer"`
	EnhetType     string   `json:"enhetType"`
	MinAnsatte    int      `json:"minAnsatte"`
}

// SearchResult is the merged outcome of a registry search.
type SearchResult struct {
	Data       []Company `json:"data"`
	TotalCount int       `json:"totalCount"`
	HasMore    bool      `json:"hasMore"`
}
