package export

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/mtlprog/rebalancer/internal/domain"
)

const (
	sheetBreakdown = "Breakdown"
	sheetHoldings  = "Holdings"
	sheetRebalance = "Rebalance"
)

// breakdownRows builds the Breakdown sheet.
// Columns: Dimension | Label | Value | Pct
func breakdownRows(b domain.Breakdown) [][]any {
	data := [][]any{{"Dimension", "Label", "Value", "Pct"}}
	for _, dim := range []domain.Dimension{domain.DimensionCategory, domain.DimensionRegion} {
		for _, lv := range b.ByDimension(dim) {
			data = append(data, []any{string(dim), lv.Label, lv.Value, lv.Pct})
		}
	}
	return append(data, []any{"total", "", b.TotalValue, 100.0})
}

// holdingsRows builds the Holdings sheet.
// Columns: Ticker | Name | Quantity | Value | Pct | Brokerages | Region | Category
func holdingsRows(b domain.Breakdown) [][]any {
	data := make([][]any, 0, len(b.Holdings)+1)
	data = append(data, []any{"Ticker", "Name", "Quantity", "Value", "Pct", "Brokerages", "Region", "Category"})
	for _, h := range b.Holdings {
		data = append(data, []any{
			h.Ticker, h.Name, h.Quantity, h.Value, h.Pct,
			strings.Join(h.Brokerages, ", "),
			formatDistribution(h.Region),
			formatDistribution(h.Category),
		})
	}
	return data
}

// rebalanceRows builds the Rebalance sheet: category items, region items, then the summary.
// Columns: Dimension | Label | Current % | Target % | Current Value | Target Value | Drift | Action | Amount
func rebalanceRows(plan domain.TradePlan) [][]any {
	data := [][]any{{
		"Dimension", "Label", "Current %", "Target %", "Current Value", "Target Value", "Drift", "Action", "Amount",
	}}
	appendItems := func(dim domain.Dimension, items []domain.RebalanceItem) {
		for _, it := range items {
			data = append(data, []any{
				string(dim), it.Label, it.CurrentPct, it.TargetPct,
				it.CurrentValue, it.TargetValue, it.Drift, string(it.Action), it.Amount,
			})
		}
	}
	appendItems(domain.DimensionCategory, plan.Category)
	appendItems(domain.DimensionRegion, plan.Region)

	return append(data, []any{}, []any{"Summary", plan.Summary})
}

func formatDistribution(d domain.Distribution) string {
	return strings.Join(lo.Map(d.Labels(), func(label string, _ int) string {
		return fmt.Sprintf("%s %v%%", label, d[label])
	}), ", ")
}
