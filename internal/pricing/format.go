package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney renders v with two decimals after the currency symbol.
func FormatMoney(symbol string, v float64) string {
	amount := decimal.NewFromFloat(v).StringFixed(2)
	if symbol == "" {
		return amount
	}
	return symbol + " " + amount
}

// Line is one labelled, formatted row of a breakdown.
type Line struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FormatResult lists every cost component of r formatted for display.
func FormatResult(symbol string, r Result) []Line {
	b, t := r.Breakdown, r.Totals
	return []Line{
		{Label: "Depreciation", Value: FormatMoney(symbol, b.DepreciationCost)},
		{Label: "Energy", Value: FormatMoney(symbol, b.EnergyCost)},
		{Label: "Maintenance", Value: FormatMoney(symbol, b.MaintenanceCost)},
		{Label: "Machine total", Value: FormatMoney(symbol, b.MachineTotalCost)},
		{Label: "Material", Value: FormatMoney(symbol, b.MaterialCost)},
		{Label: "Labor", Value: FormatMoney(symbol, b.LaborCost)},
		{Label: "Additional items", Value: FormatMoney(symbol, b.AdditionalCost)},
		{Label: "Production cost", Value: FormatMoney(symbol, t.TotalProductionCost)},
		{Label: "Final price", Value: FormatMoney(symbol, t.FinalPrice)},
		{Label: "Profit", Value: FormatMoney(symbol, t.Profit)},
	}
}

// Text renders lines as "Label: Value" rows.
func Text(lines []Line) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l.Label)
		sb.WriteString(": ")
		sb.WriteString(l.Value)
		sb.WriteByte('\n')
	}
	return sb.String()
}
