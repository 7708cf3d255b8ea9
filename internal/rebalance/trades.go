package rebalance

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/rebalancer/internal/domain"
)

// BalancedSummary is the summary when no label needs a trade.
const BalancedSummary = "Portfolio is balanced!"

// SuggestTrades runs Compute for both dimensions and summarizes the actionable items,
// category trades first and region adjustments second.
func SuggestTrades(b domain.Breakdown, targets []domain.TargetAllocation) domain.TradePlan {
	plan := domain.TradePlan{
		Region:   Compute(b, domain.DimensionRegion, targets),
		Category: Compute(b, domain.DimensionCategory, targets),
	}

	var actions []string
	for _, dim := range domain.Dimensions() {
		items := plan.Region
		if dim == domain.DimensionCategory {
			items = plan.Category
		}
		actions = append(actions, lo.FilterMap(items, func(it domain.RebalanceItem, _ int) (string, bool) {
			return describe(dim, it)
		})...)
	}

	if len(actions) == 0 {
		plan.Summary = BalancedSummary
	} else {
		plan.Summary = strings.Join(actions, "; ")
	}
	return plan
}

// describe phrases an item. Category items read as trades, region items as exposure changes.
func describe(dim domain.Dimension, it domain.RebalanceItem) (string, bool) {
	amount := FormatDollars(it.Amount)

	switch {
	case it.Action == domain.ActionSell && dim == domain.DimensionCategory:
		return fmt.Sprintf("Sell %s of %s", amount, it.Label), true
	case it.Action == domain.ActionBuy && dim == domain.DimensionCategory:
		return fmt.Sprintf("Buy %s of %s", amount, it.Label), true
	case it.Action == domain.ActionSell:
		return fmt.Sprintf("Reduce %s by %s", it.Label, amount), true
	case it.Action == domain.ActionBuy:
		return fmt.Sprintf("Increase %s by %s", it.Label, amount), true
	default:
		return "", false
	}
}

// FormatDollars renders a whole-dollar amount with thousands separators, e.g. "$1,235".
// Halves round to even.
func FormatDollars(v float64) string {
	return "$" + humanize.Comma(decimal.NewFromFloat(v).RoundBank(0).IntPart())
}
