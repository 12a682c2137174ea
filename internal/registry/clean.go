package registry

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"github.com/octobees/bedriftssok/internal/entity"
)

const (
	defaultPhoneRegion = "NO"
	unknownName        = "Ukjent navn"
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-']+@[a-z0-9.-]+\.[a-z]{2,}$`)
	idnaProfile  = idna.Lookup
)

// NormalizePhone parses raw as a number in region and returns it in E.164 form,
// or "" when it is not a valid number.
func NormalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = defaultPhoneRegion
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

// cleanEmail lowercases the address and drops it when it is malformed.
func cleanEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || !emailPattern.MatchString(email) {
		return ""
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	if !isDomainValid(domain) {
		return ""
	}
	if ascii, err := idnaProfile.ToASCII(domain); err != nil || ascii == "" {
		return ""
	}
	return email
}

func isDomainValid(domain string) bool {
	if strings.Count(domain, ".") == 0 {
		return false
	}
	for _, part := range strings.Split(domain, ".") {
		if part == "" || strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return false
		}
	}
	return true
}

// companyName accepts navn as a plain string or as an object carrying navn or
// beskrivelse.
func companyName(raw json.RawMessage, beskrivelse string) string {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		var obj struct {
			Navn        string `json:"navn"`
			Beskrivelse string `json:"beskrivelse"`
		}
		if json.Unmarshal(raw, &obj) == nil {
			name = obj.Navn
			if name == "" {
				name = obj.Beskrivelse
			}
		}
	}
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if b := strings.TrimSpace(beskrivelse); b != "" {
		return b
	}
	return unknownName
}

func companyStatus(konkurs, underAvvikling bool) string {
	switch {
	case konkurs:
		return entity.StatusBankrupt
	case underAvvikling:
		return entity.StatusDissolution
	default:
		return entity.StatusActive
	}
}
