package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/nyaruka/phonenumbers"

	"github.com/octobees/bedriftssok/internal/entity"
	"github.com/octobees/bedriftssok/internal/export"
)

const nameColumnWidth = 40

// formatPhone renders an E.164 number in national format for display.
func formatPhone(raw string) string {
	if raw == "" {
		return ""
	}
	num, err := phonenumbers.Parse(raw, "NO")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	if phonenumbers.GetRegionCodeForNumber(num) == "NO" {
		return phonenumbers.Format(num, phonenumbers.NATIONAL)
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}

func companyPhone(c entity.Company) string {
	switch {
	case c.Telefon != "":
		return formatPhone(c.Telefon)
	case c.Mobil != "":
		return formatPhone(c.Mobil)
	default:
		return "-"
	}
}

// renderCompanies prints up to limit rows (all when limit <= 0).
func renderCompanies(w io.Writer, result entity.SearchResult, limit int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: nameColumnWidth},
		{Number: 4, Align: text.AlignRight},
	})
	t.AppendHeader(table.Row{"Org.nr", "Navn", "Poststed", "Ansatte", "NACE", "Status", "Telefon"})

	shown := 0
	for _, c := range result.Data {
		if limit > 0 && shown == limit {
			break
		}
		employees := ""
		if c.AntallAnsatte > 0 {
			employees = fmt.Sprint(c.AntallAnsatte)
		}
		t.AppendRow(table.Row{
			c.Organisasjonsnummer,
			c.Navn,
			c.Postadresse,
			employees,
			c.NaceKode,
			c.Status,
			companyPhone(c),
		})
		shown++
	}

	footer := fmt.Sprintf("%d of %d", shown, result.TotalCount)
	if result.HasMore {
		footer += " (registry has more)"
	}
	t.AppendFooter(table.Row{"Total", footer})
	t.Render()
}

func renderPhone(w io.Writer, companyName, orgNumber string, phone, source *string, website, websiteSource string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	value := func(p *string) string {
		if p == nil {
			return "-"
		}
		return *p
	}
	displayed := export.PhoneUnavailable
	if phone != nil {
		displayed = formatPhone(*phone)
	}

	t.AppendRows([]table.Row{
		{"Firma", companyName},
		{"Org.nr", orgNumber},
		{"Telefon", displayed},
		{"Kilde", value(source)},
	})
	if website != "" {
		t.AppendRow(table.Row{"Nettside", fmt.Sprintf("%s (%s)", website, websiteSource)})
	}
	t.Render()
}
