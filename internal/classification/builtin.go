package classification

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mtlprog/rebalancer/internal/domain"
)

//go:embed builtin.json
var builtinJSON []byte

type builtinEntry struct {
	Name     string              `json:"name"`
	Region   domain.Distribution `json:"region"`
	Category domain.Distribution `json:"category"`
}

var loadBuiltin = sync.OnceValues(func() (map[string]domain.Classification, error) {
	var raw map[string]builtinEntry
	if err := json.Unmarshal(builtinJSON, &raw); err != nil {
		return nil, fmt.Errorf("parsing builtin classifications: %w", err)
	}

	out := make(map[string]domain.Classification, len(raw))
	for ticker, e := range raw {
		ticker = domain.NormalizeTicker(ticker)
		out[ticker] = domain.Classification{
			Ticker:   ticker,
			Name:     e.Name,
			Region:   e.Region,
			Category: e.Category,
			Source:   domain.SourceBuiltin,
		}
	}
	return out, nil
})

// Builtin returns a copy of the curated ticker table for broad funds, bonds, metals,
// commodities, REITs and crypto.
func Builtin() map[string]domain.Classification {
	table, err := loadBuiltin()
	if err != nil {
		panic(err)
	}

	out := make(map[string]domain.Classification, len(table))
	for ticker, c := range table {
		c.Region = c.Region.Clone()
		c.Category = c.Category.Clone()
		out[ticker] = c
	}
	return out
}

// lookupBuiltin resolves one ticker against the builtin table without copying the whole table.
func lookupBuiltin(ticker string) (domain.Classification, bool) {
	table, err := loadBuiltin()
	if err != nil {
		panic(err)
	}
	c, ok := table[domain.NormalizeTicker(ticker)]
	if !ok {
		return domain.Classification{}, false
	}
	c.Region = c.Region.Clone()
	c.Category = c.Category.Clone()
	return c, true
}
