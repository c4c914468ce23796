package infra

import (
	"bytes"
	"fmt"

	"playzone/internal/model"
	"playzone/internal/summary"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	daysSheet   = "Days"
	totalsSheet = "Totals"
)

var summaryHeader = []string{"Date", "Sessions revenue", "Sales revenue", "Expenses", "Discounts", "Net income"}

// SummaryWorkbook renders daily summaries, one row per date, plus a totals
// sheet. Amounts are written as numbers so the sheet can be summed.
func SummaryWorkbook(rows []model.DailySummary, totals model.DailySummary) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", daysSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(totalsSheet); err != nil {
		return nil, err
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	for i, h := range summaryHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(daysSheet, cell, h)
	}
	_ = f.SetCellStyle(daysSheet, "A1", "F1", bold)
	_ = f.SetColWidth(daysSheet, "A", "F", 18)

	for i, r := range rows {
		row := i + 2
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("A%d", row), r.Date.Format(summary.DateLayout))
		for col, v := range amounts(r) {
			cell, _ := excelize.CoordinatesToCellName(col+2, row)
			_ = f.SetCellFloat(daysSheet, cell, v, 2, 64)
		}
	}
	if len(rows) > 0 {
		_ = f.SetCellStyle(daysSheet, "B2", fmt.Sprintf("F%d", len(rows)+1), money)
	}

	for i, h := range summaryHeader[1:] {
		_ = f.SetCellValue(totalsSheet, fmt.Sprintf("A%d", i+1), h)
	}
	for i, v := range amounts(totals) {
		_ = f.SetCellFloat(totalsSheet, fmt.Sprintf("B%d", i+1), v, 2, 64)
	}
	_ = f.SetCellStyle(totalsSheet, "B1", "B5", money)
	_ = f.SetColWidth(totalsSheet, "A", "A", 20)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func amounts(s model.DailySummary) []float64 {
	cols := []decimal.Decimal{s.SessionsRevenue, s.SalesRevenue, s.ExpensesTotal, s.DiscountsTotal, s.NetIncome}
	out := make([]float64, len(cols))
	for i, d := range cols {
		out[i] = d.InexactFloat64()
	}
	return out
}
