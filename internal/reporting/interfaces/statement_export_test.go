package interfaces_test

import (
	"bytes"
	"encoding/csv"
	"testing"

	"gridmarket/internal/reporting/application"
	"gridmarket/internal/reporting/interfaces"

	"github.com/shopspring/decimal"
)

func sampleStatement() *application.EarningsStatement {
	return &application.EarningsStatement{
		ProducerID: "prod-1",
		StartDate:  "2026-09-10",
		EndDate:    "2026-09-11",
		Days: []application.DayEarnings{
			{Date: "2026-09-10", EnergyKwh: decimal.RequireFromString("8"), Amount: decimal.RequireFromString("17.5")},
			{Date: "2026-09-11", EnergyKwh: decimal.RequireFromString("4"), Amount: decimal.RequireFromString("8")},
		},
		TotalKwh: decimal.RequireFromString("12"),
		Total:    decimal.RequireFromString("25.5"),
	}
}

func sampleConfig() application.ExportConfig {
	return application.ExportConfig{
		Title:         "Producer Earnings Statement",
		CurrencyLabel: "credits",
		DefaultFormat: "csv",
	}
}

func TestBuildStatementCSV(t *testing.T) {
	payload, err := interfaces.BuildStatementCSV(sampleConfig(), sampleStatement())
	if err != nil {
		t.Fatalf("build csv: %v", err)
	}

	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	// Title, producer, period, header, 2 days, total; the separator line
	// is blank and dropped by the reader.
	if len(records) != 7 {
		t.Fatalf("expected 7 records, got %d", len(records))
	}
	day := records[4]
	if day[0] != "2026-09-10" || day[1] != "8.000" || day[2] != "17.5000" {
		t.Fatalf("day row mismatch: %v", day)
	}
	total := records[6]
	if total[0] != "Total" || total[2] != "25.5000" {
		t.Fatalf("total row mismatch: %v", total)
	}
}

func TestBuildStatementXLSXAndPDF(t *testing.T) {
	xlsx, err := interfaces.BuildStatementXLSX(sampleConfig(), sampleStatement())
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}
	if len(xlsx) == 0 {
		t.Fatal("empty xlsx payload")
	}

	pdf, err := interfaces.BuildStatementPDF(sampleConfig(), sampleStatement())
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatal("pdf payload missing magic header")
	}
}
