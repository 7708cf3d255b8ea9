package price

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/mtlprog/rebalancer/internal/domain"
)

// Fetcher fetches last prices for tickers.
type Fetcher interface {
	FetchPrices(ctx context.Context, tickers []string) (map[string]float64, error)
}

// HoldingsLister lists the current holdings.
type HoldingsLister interface {
	List(ctx context.Context) ([]domain.Holding, error)
}

// Service refreshes stored quotes and revalues holdings with them.
type Service struct {
	fetcher  Fetcher
	repo     QuoteRepository
	holdings HoldingsLister
}

// NewService creates a new price Service.
func NewService(fetcher Fetcher, repo QuoteRepository, holdings HoldingsLister) *Service {
	return &Service{fetcher: fetcher, repo: repo, holdings: holdings}
}

// FetchAndStoreQuotes fetches prices for every held ticker and stores them.
func (s *Service) FetchAndStoreQuotes(ctx context.Context) error {
	hs, err := s.holdings.List(ctx)
	if err != nil {
		return fmt.Errorf("listing holdings: %w", err)
	}
	tickers := heldTickers(hs)
	if len(tickers) == 0 {
		return nil
	}

	prices, err := s.fetcher.FetchPrices(ctx, tickers)
	if err != nil {
		return fmt.Errorf("fetching live prices: %w", err)
	}
	if err := s.repo.SaveQuotes(ctx, prices); err != nil {
		return fmt.Errorf("storing quotes: %w", err)
	}

	slog.Info("stored live quotes", "tickers", len(tickers), "quoted", len(prices))
	return nil
}

// LiveHoldings revalues the current holdings with the stored quotes.
func (s *Service) LiveHoldings(ctx context.Context) (LivePortfolio, error) {
	hs, err := s.holdings.List(ctx)
	if err != nil {
		return LivePortfolio{}, fmt.Errorf("listing holdings: %w", err)
	}

	quotes, err := s.repo.GetQuotes(ctx, heldTickers(hs))
	if err != nil {
		return LivePortfolio{}, fmt.Errorf("loading quotes: %w", err)
	}
	prices := lo.SliceToMap(quotes, func(q Quote) (string, float64) {
		return q.Ticker, q.Price.InexactFloat64()
	})

	return Summarize(ApplyLivePrices(hs, prices)), nil
}

func heldTickers(hs []domain.Holding) []string {
	return lo.Uniq(lo.FilterMap(hs, func(h domain.Holding, _ int) (string, bool) {
		t := domain.NormalizeTicker(h.Ticker)
		return t, t != ""
	}))
}
