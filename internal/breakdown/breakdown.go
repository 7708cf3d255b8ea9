// Package breakdown aggregates holdings into region, category and per-ticker breakdowns.
package breakdown

import (
	"slices"
	"sort"

	"github.com/samber/lo"

	"github.com/mtlprog/rebalancer/internal/domain"
)

// Option tunes ComputeBreakdown.
type Option func(*options)

type options struct {
	normalize bool
}

// WithNormalizedWeights rescales every distribution to sum to 100 before applying it.
// Without it weights are applied verbatim, so a distribution that does not sum to 100
// attributes more or less than the holding's value.
func WithNormalizedWeights() Option {
	return func(o *options) { o.normalize = true }
}

// tickerGroup is one ticker consolidated across brokerages and accounts.
type tickerGroup struct {
	ticker     string
	name       string
	value      float64
	quantity   float64
	brokerages []string
}

// ComputeBreakdown consolidates holdings by ticker and splits each ticker's value across
// its region and category distributions. It never fails: tickers the lookup cannot resolve
// fall back to domain.DefaultClassification, and a zero-value portfolio yields an empty breakdown.
func ComputeBreakdown(holdings []domain.Holding, lookup ClassificationLookup, opts ...Option) domain.Breakdown {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	total := lo.SumBy(holdings, func(h domain.Holding) float64 { return h.Value })
	if len(holdings) == 0 || total == 0 {
		return domain.EmptyBreakdown()
	}

	groups := groupByTicker(holdings)
	regions := newAccumulator()
	categories := newAccumulator()

	type ranked struct {
		value  float64
		detail domain.HoldingDetail
	}
	details := make([]ranked, 0, len(groups))

	for _, g := range groups {
		c := resolve(lookup, g.ticker)
		region := weights(c.Region, domain.DefaultRegion(), o.normalize)
		category := weights(c.Category, domain.DefaultCategory(), o.normalize)

		regions.distribute(g.value, region)
		categories.distribute(g.value, category)

		details = append(details, ranked{
			value: g.value,
			detail: domain.HoldingDetail{
				Ticker:     g.ticker,
				Name:       g.name,
				Value:      domain.Round2(g.value),
				Pct:        domain.Round2(g.value / total * 100),
				Quantity:   g.quantity,
				Brokerages: g.brokerages,
				Region:     region,
				Category:   category,
			},
		})
	}

	sort.SliceStable(details, func(i, j int) bool { return details[i].value > details[j].value })

	return domain.Breakdown{
		TotalValue: domain.Round2(total),
		ByRegion:   regions.labelValues(total),
		ByCategory: categories.labelValues(total),
		Holdings:   lo.Map(details, func(r ranked, _ int) domain.HoldingDetail { return r.detail }),
	}
}

// groupByTicker sums value and quantity per normalized ticker, preserving first-seen order.
// The first non-empty name wins.
func groupByTicker(holdings []domain.Holding) []*tickerGroup {
	var order []*tickerGroup
	byTicker := make(map[string]*tickerGroup)

	for _, h := range holdings {
		ticker := domain.NormalizeTicker(h.Ticker)
		g, ok := byTicker[ticker]
		if !ok {
			g = &tickerGroup{ticker: ticker}
			byTicker[ticker] = g
			order = append(order, g)
		}
		if g.name == "" {
			g.name = h.Name
		}
		g.value += h.Value
		g.quantity += h.Quantity
		if !slices.Contains(g.brokerages, h.Brokerage) {
			g.brokerages = append(g.brokerages, h.Brokerage)
		}
	}

	for _, g := range order {
		slices.Sort(g.brokerages)
	}
	return order
}

func resolve(lookup ClassificationLookup, ticker string) domain.Classification {
	if lookup == nil {
		return domain.DefaultClassification(ticker)
	}
	c, ok := lookup.Lookup(ticker)
	if !ok {
		return domain.DefaultClassification(ticker)
	}
	return c
}

// weights picks the distribution to apply: the default when d is empty (or cannot be
// normalized), otherwise a copy of d, rescaled to 100 when normalize is set.
func weights(d, fallback domain.Distribution, normalize bool) domain.Distribution {
	if len(d) == 0 {
		return fallback
	}
	if !normalize {
		return d.Clone()
	}
	n, ok := d.Normalized()
	if !ok {
		return fallback
	}
	return n
}

// accumulator sums attributed value per label at full precision, remembering first-seen order.
type accumulator struct {
	order  []string
	totals map[string]float64
}

func newAccumulator() *accumulator {
	return &accumulator{totals: make(map[string]float64)}
}

func (a *accumulator) distribute(value float64, d domain.Distribution) {
	for _, label := range d.Labels() {
		if _, ok := a.totals[label]; !ok {
			a.order = append(a.order, label)
		}
		a.totals[label] += value * d[label] / 100
	}
}

// labelValues rounds the accumulated totals for output, sorted by descending value.
func (a *accumulator) labelValues(total float64) domain.LabelValues {
	labels := slices.Clone(a.order)
	sort.SliceStable(labels, func(i, j int) bool { return a.totals[labels[i]] > a.totals[labels[j]] })

	return lo.Map(labels, func(label string, _ int) domain.LabelValue {
		v := a.totals[label]
		return domain.LabelValue{
			Label: label,
			Value: domain.Round2(v),
			Pct:   domain.Round2(v / total * 100),
		}
	})
}
