package breakdown

import "github.com/mtlprog/rebalancer/internal/domain"

// ClassificationLookup resolves a ticker to its classification.
// The aggregator only reads through it and never mutates what it returns.
type ClassificationLookup interface {
	Lookup(ticker string) (domain.Classification, bool)
}

// LookupFunc adapts a plain function to ClassificationLookup.
type LookupFunc func(ticker string) (domain.Classification, bool)

func (f LookupFunc) Lookup(ticker string) (domain.Classification, bool) {
	return f(ticker)
}

// MapLookup is an in-memory snapshot of classifications keyed by normalized ticker.
type MapLookup map[string]domain.Classification

func (m MapLookup) Lookup(ticker string) (domain.Classification, bool) {
	c, ok := m[domain.NormalizeTicker(ticker)]
	return c, ok
}
