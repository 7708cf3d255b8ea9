// Package classification resolves tickers to region and category distributions.
package classification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/rebalancer/internal/breakdown"
	"github.com/mtlprog/rebalancer/internal/domain"
)

// Store resolves classifications in order: persisted cache, builtin table, classifier,
// default. Everything it resolves is written back to the cache, except defaults handed out
// because the classifier failed.
type Store struct {
	repo       Repository
	classifier Classifier
	now        func() time.Time
}

// NewStore creates a Store. classifier may be nil, in which case unknown tickers get the
// default classification.
func NewStore(repo Repository, classifier Classifier) *Store {
	return &Store{repo: repo, classifier: classifier, now: time.Now}
}

// Classify returns a classification for every requested ticker, classifying and caching
// those not seen before. A failing classifier degrades to the default classification for
// this call only; those defaults are not cached.
func (s *Store) Classify(ctx context.Context, items []TickerName) (map[string]domain.Classification, error) {
	items = normalizeItems(items)
	if len(items) == 0 {
		return map[string]domain.Classification{}, nil
	}

	tickers := lo.Map(items, func(it TickerName, _ int) string { return it.Ticker })
	resolved, err := s.repo.GetMany(ctx, tickers)
	if err != nil {
		return nil, fmt.Errorf("loading cached classifications: %w", err)
	}
	if resolved == nil {
		resolved = make(map[string]domain.Classification, len(items))
	}

	now := s.now().UTC()
	var fresh []domain.Classification
	var unknown []TickerName

	for _, it := range items {
		if _, ok := resolved[it.Ticker]; ok {
			continue
		}
		if c, ok := lookupBuiltin(it.Ticker); ok {
			if c.Name == "" {
				c.Name = it.Name
			}
			c.ClassifiedAt = now
			resolved[it.Ticker] = c
			fresh = append(fresh, c)
			continue
		}
		unknown = append(unknown, it)
	}

	cached := 0
	if len(unknown) > 0 {
		classified, final := s.classifyUnknown(ctx, unknown)
		for _, it := range unknown {
			c, ok := classified[it.Ticker]
			if !ok {
				c = domain.DefaultClassification(it.Ticker)
			}
			if c.Name == "" {
				c.Name = it.Name
			}
			c.ClassifiedAt = now
			resolved[it.Ticker] = c
			if ok || final {
				fresh = append(fresh, c)
				cached++
			}
		}
	}

	if err := s.repo.Upsert(ctx, fresh); err != nil {
		return nil, fmt.Errorf("caching classifications: %w", err)
	}
	if len(fresh) > 0 {
		slog.Info("classified tickers", "new", len(fresh), "via_classifier", cached)
	}
	return resolved, nil
}

// classifyUnknown runs the classifier. final reports whether tickers missing from the result
// may be cached with the default classification; after a classifier error they are retried
// on the next call instead.
func (s *Store) classifyUnknown(ctx context.Context, items []TickerName) (classified map[string]domain.Classification, final bool) {
	if s.classifier == nil {
		return nil, true
	}
	classified, err := s.classifier.Classify(ctx, items)
	if err != nil {
		slog.Warn("classifier failed, using default classification for now",
			"tickers", len(items), "classified", len(classified), "error", err)
		return classified, false
	}
	return classified, true
}

// Snapshot returns an in-memory lookup for tickers from the cache and the builtin table.
// It never calls the classifier; tickers it cannot resolve are simply absent.
func (s *Store) Snapshot(ctx context.Context, tickers []string) (breakdown.MapLookup, error) {
	tickers = lo.Uniq(lo.Map(tickers, func(t string, _ int) string { return domain.NormalizeTicker(t) }))

	cached, err := s.repo.GetMany(ctx, tickers)
	if err != nil {
		return nil, fmt.Errorf("loading classifications: %w", err)
	}

	lookup := make(breakdown.MapLookup, len(tickers))
	for _, t := range tickers {
		if c, ok := cached[t]; ok {
			lookup[t] = c
		} else if c, ok := lookupBuiltin(t); ok {
			lookup[t] = c
		}
	}
	return lookup, nil
}

// Reclassify drops the cached entry for ticker and classifies it again.
func (s *Store) Reclassify(ctx context.Context, ticker string) (domain.Classification, error) {
	ticker = domain.NormalizeTicker(ticker)

	var name string
	prev, err := s.repo.Get(ctx, ticker)
	switch {
	case err == nil:
		name = prev.Name
	case !errors.Is(err, ErrNotFound):
		return domain.Classification{}, fmt.Errorf("loading classification for %s: %w", ticker, err)
	}

	if err := s.repo.Delete(ctx, ticker); err != nil {
		return domain.Classification{}, err
	}

	resolved, err := s.Classify(ctx, []TickerName{{Ticker: ticker, Name: name}})
	if err != nil {
		return domain.Classification{}, err
	}
	return resolved[ticker], nil
}

// ManualUpdate is a user-supplied classification.
type ManualUpdate struct {
	Name     string              `json:"name"`
	Region   domain.Distribution `json:"region_breakdown"`
	Category domain.Distribution `json:"category_breakdown"`
}

// SetManual stores a user-supplied classification. Labels must belong to the closed sets.
func (s *Store) SetManual(ctx context.Context, ticker string, u ManualUpdate) (domain.Classification, error) {
	c := domain.Classification{
		Ticker:       domain.NormalizeTicker(ticker),
		Name:         u.Name,
		Region:       u.Region,
		Category:     u.Category,
		Source:       domain.SourceManual,
		ClassifiedAt: s.now().UTC(),
	}
	if c.Ticker == "" {
		return domain.Classification{}, fmt.Errorf("%w: empty ticker", ErrInvalidLabel)
	}
	if err := Validate(c); err != nil {
		return domain.Classification{}, err
	}
	if c.Name == "" {
		if prev, err := s.repo.Get(ctx, c.Ticker); err == nil {
			c.Name = prev.Name
		}
	}

	c = Sanitize(c)
	if err := s.repo.Upsert(ctx, []domain.Classification{c}); err != nil {
		return domain.Classification{}, err
	}
	return c, nil
}

// Get returns the cached classification for ticker.
func (s *Store) Get(ctx context.Context, ticker string) (domain.Classification, error) {
	return s.repo.Get(ctx, ticker)
}

// List returns every cached classification ordered by ticker.
func (s *Store) List(ctx context.Context) ([]domain.Classification, error) {
	cs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if cs == nil {
		cs = []domain.Classification{}
	}
	return cs, nil
}

// normalizeItems uppercases tickers, drops empty ones and keeps the first entry per ticker,
// preferring one that carries a name.
func normalizeItems(items []TickerName) []TickerName {
	var out []TickerName
	index := make(map[string]int)
	for _, it := range items {
		it.Ticker = domain.NormalizeTicker(it.Ticker)
		if it.Ticker == "" {
			continue
		}
		if i, ok := index[it.Ticker]; ok {
			if out[i].Name == "" {
				out[i].Name = it.Name
			}
			continue
		}
		index[it.Ticker] = len(out)
		out = append(out, it)
	}
	return out
}
