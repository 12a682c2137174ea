// Package export renders registry search results as CSV or Excel files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/octobees/bedriftssok/internal/entity"
)

// Format is a supported export file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const (
	// DefaultFilename is used when the caller supplies none.
	DefaultFilename = "bedriftssok-data"
	// SheetName is the worksheet holding the rows in Excel exports.
	SheetName = "Bedrifter"
	// PhoneUnavailable fills the phone column when no number is known.
	PhoneUnavailable = "Ikke tilgjengelig i åpne API"

	minColumnWidth = 20
)

// Headers lists the export columns in order.
var Headers = []string{
	"Organisasjonsnummer",
	"Navn",
	"Postadresse",
	"Kommunenummer",
	"Antall ansatte",
	"NACE-kode",
	"NACE-beskrivelse",
	"Organisasjonsform",
	"Registreringsdato",
	"Status",
	"Telefon",
}

// ParseFormat accepts "csv" or "xlsx" (case-insensitive; "excel" is an alias for xlsx).
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType is the MIME type of the rendered file.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename returns a safe download name with the format's extension.
func Filename(name string, f Format) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r == '/' || r < 0x20 {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSuffix(name, "."+string(f))
	if name == "" || name == "." {
		name = DefaultFilename
	}
	return name + "." + string(f)
}

// Row maps a company onto the export columns.
func Row(c entity.Company) []string {
	employees := ""
	if c.AntallAnsatte > 0 {
		employees = strconv.Itoa(c.AntallAnsatte)
	}
	return []string{
		c.Organisasjonsnummer,
		c.Navn,
		strings.TrimSpace(c.Postadresse + " " + c.Postnummer),
		c.Kommunenummer,
		employees,
		c.NaceKode,
		c.NaceBeskrivelse,
		c.Organisasjonsform,
		c.Registreringsdato,
		c.Status,
		phone(c),
	}
}

func phone(c entity.Company) string {
	switch {
	case c.Telefon != "":
		return c.Telefon
	case c.Mobil != "":
		return c.Mobil
	default:
		return PhoneUnavailable
	}
}

// Write renders companies in format f to w.
func Write(w io.Writer, f Format, companies []entity.Company) error {
	switch f {
	case FormatCSV:
		return CSV(w, companies)
	case FormatXLSX:
		return XLSX(w, companies)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

// CSV writes a header row followed by one row per company.
func CSV(w io.Writer, companies []entity.Company) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, c := range companies {
		if err := cw.Write(Row(c)); err != nil {
			return fmt.Errorf("write csv row %s: %w", c.Organisasjonsnummer, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// XLSX writes a single-sheet workbook. Employee counts are stored as numbers.
func XLSX(w io.Writer, companies []entity.Company) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, c := range companies {
		cells := Row(c)
		values := make([]any, len(cells))
		for j, v := range cells {
			values[j] = v
		}
		if c.AntallAnsatte > 0 {
			values[4] = c.AntallAnsatte
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	for i, h := range Headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, float64(max(len(h), minColumnWidth))); err != nil {
			return fmt.Errorf("set width of column %s: %w", col, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
