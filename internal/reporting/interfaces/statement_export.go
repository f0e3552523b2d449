package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"gridmarket/internal/reporting/application"
)

// BuildStatementCSV renders an earnings statement as CSV.
func BuildStatementCSV(cfg application.ExportConfig, stmt *application.EarningsStatement) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{
		{cfg.Title},
		{"Producer", stmt.ProducerID},
		{"Period", stmt.StartDate + " .. " + stmt.EndDate},
		{},
		{"Day", "Energy (kWh)", "Amount (" + cfg.CurrencyLabel + ")"},
	}
	for _, day := range stmt.Days {
		records = append(records, []string{
			day.Date,
			day.EnergyKwh.StringFixed(3),
			day.Amount.StringFixed(4),
		})
	}
	records = append(records, []string{"Total", stmt.TotalKwh.StringFixed(3), stmt.Total.StringFixed(4)})

	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildStatementPDF renders a minimal PDF for an earnings statement.
func BuildStatementPDF(cfg application.ExportConfig, stmt *application.EarningsStatement) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, cfg.Title)
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Producer: %s", stmt.ProducerID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s .. %s", stmt.StartDate, stmt.EndDate))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Energy (kWh): %s", stmt.TotalKwh.StringFixed(3)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Amount (%s): %s", cfg.CurrencyLabel, stmt.Total.StringFixed(4)))
	pdf.Ln(8)

	// Days table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Day", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Energy (kWh)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, day := range stmt.Days {
		pdf.CellFormat(40, 6, day.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, day.EnergyKwh.StringFixed(3), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, day.Amount.StringFixed(4), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildStatementXLSX renders a minimal XLSX for an earnings statement.
func BuildStatementXLSX(cfg application.ExportConfig, stmt *application.EarningsStatement) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	daysSheet := "days"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(daysSheet)

	_ = f.SetCellValue(summarySheet, "A1", cfg.Title)
	_ = f.SetCellValue(summarySheet, "A3", "Producer")
	_ = f.SetCellValue(summarySheet, "B3", stmt.ProducerID)
	_ = f.SetCellValue(summarySheet, "A4", "From")
	_ = f.SetCellValue(summarySheet, "B4", stmt.StartDate)
	_ = f.SetCellValue(summarySheet, "A5", "To")
	_ = f.SetCellValue(summarySheet, "B5", stmt.EndDate)
	_ = f.SetCellValue(summarySheet, "A6", "Total Energy (kWh)")
	_ = f.SetCellValue(summarySheet, "B6", stmt.TotalKwh.StringFixed(3))
	_ = f.SetCellValue(summarySheet, "A7", "Total Amount")
	_ = f.SetCellValue(summarySheet, "B7", stmt.Total.StringFixed(4))
	_ = f.SetCellValue(summarySheet, "A8", "Currency")
	_ = f.SetCellValue(summarySheet, "B8", cfg.CurrencyLabel)

	_ = f.SetCellValue(daysSheet, "A1", "Day")
	_ = f.SetCellValue(daysSheet, "B1", "Energy (kWh)")
	_ = f.SetCellValue(daysSheet, "C1", "Amount")
	for i, day := range stmt.Days {
		row := i + 2
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("A%d", row), day.Date)
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("B%d", row), day.EnergyKwh.StringFixed(3))
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("C%d", row), day.Amount.StringFixed(4))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
