package handler

import (
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/octobees/bedriftssok/internal/export"
)

const exportBody = `{"filename":"oslo-it","data":[{"organisasjonsnummer":"923456789","navn":"Acme AS","postadresse":"OSLO","postnummer":"0150","antallAnsatte":12,"status":"AKTIV"}]}`

func exportContext(e *echo.Echo, format, body string) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := postJSON(e, "/api/export/"+format, body)
	c.SetParamNames("format")
	c.SetParamValues(format)
	return c, rec
}

func TestExportHandler_CSV(t *testing.T) {
	e := echo.New()
	h := NewExportHandler(nil)

	c, rec := exportContext(e, "csv", exportBody)
	if err := h.Export(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); got != `attachment; filename="oslo-it.csv"` {
		t.Fatalf("unexpected content disposition %q", got)
	}
	if !strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/csv") {
		t.Fatalf("unexpected content type %q", rec.Header().Get(echo.HeaderContentType))
	}

	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header and one row, got %d records", len(records))
	}
	if records[1][2] != "OSLO 0150" || records[1][10] != export.PhoneUnavailable {
		t.Fatalf("unexpected row: %v", records[1])
	}
}

func TestExportHandler_XLSX(t *testing.T) {
	e := echo.New()
	h := NewExportHandler(nil)

	c, rec := exportContext(e, "xlsx", `{"data":[]}`)
	if err := h.Export(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); got != `attachment; filename="bedriftssok-data.xlsx"` {
		t.Fatalf("unexpected content disposition %q", got)
	}

	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected only the header row, got %d", len(rows))
	}
}

func TestExportHandler_UnknownFormat(t *testing.T) {
	e := echo.New()
	h := NewExportHandler(nil)

	c, rec := exportContext(e, "pdf", exportBody)
	if err := h.Export(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
