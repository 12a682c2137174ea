package discovery

import (
	"regexp"
	"strings"
)

// Tier groups patterns by how strongly a match suggests a company's main number.
type Tier string

const (
	TierMainOffice Tier = "main-office"
	TierMobile     Tier = "mobile"
)

// minPhoneLength is the shortest normalized candidate accepted as a phone number.
const minPhoneLength = 8

// Pattern is one rule in the ordered extraction list.
type Pattern struct {
	Tier  Tier
	Label string
	Expr  *regexp.Regexp
}

func labeled(word string) Pattern {
	return Pattern{
		Tier:  TierMainOffice,
		Label: word,
		Expr:  regexp.MustCompile(`(?i)` + word + `["\s:]+[^"'\s]+`),
	}
}

// pagePatterns is evaluated in order; first match wins, so order changes results.
var pagePatterns = []Pattern{
	{Tier: TierMainOffice, Label: "landline", Expr: regexp.MustCompile(`(?:\+47|0047)?\s*[2-3]\d{7}`)},
	{Tier: TierMainOffice, Label: "special", Expr: regexp.MustCompile(`(?:\+47|0047)?\s*8\d{7}`)},
	{Tier: TierMainOffice, Label: "tel-link", Expr: regexp.MustCompile(`(?i)tel:[^"'\s]+`)},
	labeled("phone"),
	labeled("telefon"),
	labeled("hovedkontor"),
	labeled("kontor"),
	labeled("sentralbord"),
	labeled("reception"),
	labeled("kundeservice"),
	{Tier: TierMobile, Label: "mobile", Expr: regexp.MustCompile(`(?:\+47|0047)?\s*[49]\d{7}`)},
}

// searchLabelPatterns match "label: number" pairs on search result pages.
// The number is taken from the first capture group. They carry no tier and
// are evaluated strictly in slice order.
var searchLabelPatterns = func() []Pattern {
	classes := []string{`[2-3]\d{7}`, `8\d{7}`, `[49]\d{7}`}

	var out []Pattern
	for _, word := range []string{"telefon", "tlf", "phone"} {
		for _, class := range classes {
			out = append(out, Pattern{
				Label: word,
				Expr:  regexp.MustCompile(`(?i)` + word + `[:\s]+(` + class + `)`),
			})
		}
	}
	return out
}()

// Patterns returns the page extraction rules in evaluation order.
func Patterns() []Pattern {
	out := make([]Pattern, len(pagePatterns))
	copy(out, pagePatterns)
	return out
}

// Extract returns the first acceptable phone number in an HTML document.
// Every main-office pattern is tried before any mobile pattern.
func Extract(html string) (string, bool) {
	for _, tier := range []Tier{TierMainOffice, TierMobile} {
		for _, p := range pagePatterns {
			if p.Tier != tier {
				continue
			}
			if phone, ok := p.find(html); ok {
				return phone, true
			}
		}
	}
	return "", false
}

// ExtractLabeled checks only the "label: number" rules used on search result pages.
func ExtractLabeled(text string) (string, bool) {
	for _, p := range searchLabelPatterns {
		if phone, ok := p.find(text); ok {
			return phone, true
		}
	}
	return "", false
}

func (p Pattern) find(s string) (string, bool) {
	m := p.Expr.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	candidate := m[0]
	if len(m) > 1 && m[1] != "" {
		candidate = m[1]
	}
	if len(candidate) >= 4 && strings.EqualFold(candidate[:4], "tel:") {
		candidate = candidate[4:]
	}
	phone := NormalizePhone(candidate)
	if len(phone) < minPhoneLength {
		return "", false
	}
	return phone, true
}

// NormalizePhone keeps digits and a single leading plus sign.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
