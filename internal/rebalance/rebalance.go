// Package rebalance compares a breakdown against target allocations and composes trade suggestions.
package rebalance

import (
	"math"
	"slices"
	"sort"

	"github.com/samber/lo"

	"github.com/mtlprog/rebalancer/internal/domain"
)

// DriftThreshold is the band, in percentage points, within which a label is held.
const DriftThreshold = 0.5

// Compute returns one item per label present in either the breakdown or the targets for dim,
// ordered by descending absolute drift. Labels with equal drift keep alphabetical order.
// It returns an empty slice when the portfolio has no value or dim has no targets.
func Compute(b domain.Breakdown, dim domain.Dimension, targets []domain.TargetAllocation) []domain.RebalanceItem {
	dimTargets := lo.Filter(targets, func(t domain.TargetAllocation, _ int) bool {
		return t.Dimension == dim
	})
	if b.TotalValue == 0 || len(dimTargets) == 0 {
		return []domain.RebalanceItem{}
	}

	current := b.ByDimension(dim)
	targetPct := lo.SliceToMap(dimTargets, func(t domain.TargetAllocation) (string, float64) {
		return t.Label, t.TargetPct
	})

	labels := lo.Uniq(append(
		lo.Map(current, func(lv domain.LabelValue, _ int) string { return lv.Label }),
		lo.Keys(targetPct)...,
	))
	slices.Sort(labels)

	items := lo.Map(labels, func(label string, _ int) domain.RebalanceItem {
		cur, _ := current.Find(label)
		return item(label, cur, targetPct[label], b.TotalValue)
	})

	sort.SliceStable(items, func(i, j int) bool {
		return math.Abs(items[i].Drift) > math.Abs(items[j].Drift)
	})
	return items
}

func item(label string, cur domain.LabelValue, targetPct, total float64) domain.RebalanceItem {
	targetValue := total * targetPct / 100
	drift := domain.Round2(cur.Pct - targetPct)

	return domain.RebalanceItem{
		Label:        label,
		CurrentPct:   cur.Pct,
		TargetPct:    targetPct,
		CurrentValue: cur.Value,
		TargetValue:  domain.Round2(targetValue),
		Drift:        drift,
		Action:       action(drift),
		Amount:       domain.Round2(math.Abs(cur.Value - targetValue)),
	}
}

func action(drift float64) domain.Action {
	switch {
	case drift > DriftThreshold:
		return domain.ActionSell
	case drift < -DriftThreshold:
		return domain.ActionBuy
	default:
		return domain.ActionHold
	}
}
