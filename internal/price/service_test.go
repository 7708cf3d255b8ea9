package price

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/rebalancer/internal/domain"
)

type mockFetcher struct {
	prices map[string]float64
	err    error
	got    []string
}

func (m *mockFetcher) FetchPrices(_ context.Context, tickers []string) (map[string]float64, error) {
	m.got = tickers
	return m.prices, m.err
}

type mockQuoteRepo struct {
	saved  map[string]float64
	quotes []Quote
}

func (m *mockQuoteRepo) SaveQuotes(_ context.Context, prices map[string]float64) error {
	m.saved = prices
	return nil
}

func (m *mockQuoteRepo) GetQuotes(_ context.Context, _ []string) ([]Quote, error) {
	return m.quotes, nil
}

type mockHoldings struct {
	holdings []domain.Holding
	err      error
}

func (m *mockHoldings) List(_ context.Context) ([]domain.Holding, error) {
	return m.holdings, m.err
}

func TestFetchAndStoreQuotes(t *testing.T) {
	fetcher := &mockFetcher{prices: map[string]float64{"AAPL": 190}}
	repo := &mockQuoteRepo{}
	hs := &mockHoldings{holdings: []domain.Holding{
		{Ticker: "aapl", Value: 100},
		{Ticker: "AAPL", Value: 100, Brokerage: "schwab"},
		{Ticker: "", Value: 5},
	}}

	svc := NewService(fetcher, repo, hs)
	if err := svc.FetchAndStoreQuotes(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fetcher.got) != 1 || fetcher.got[0] != "AAPL" {
		t.Errorf("fetched tickers = %v, want [AAPL]", fetcher.got)
	}
	if repo.saved["AAPL"] != 190 {
		t.Errorf("saved = %v", repo.saved)
	}
}

func TestFetchAndStoreQuotesNoHoldings(t *testing.T) {
	fetcher := &mockFetcher{}
	svc := NewService(fetcher, &mockQuoteRepo{}, &mockHoldings{})
	if err := svc.FetchAndStoreQuotes(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.got != nil {
		t.Error("fetcher should not be called without holdings")
	}
}

func TestFetchAndStoreQuotesFetchError(t *testing.T) {
	fetcher := &mockFetcher{err: errors.New("network down")}
	svc := NewService(fetcher, &mockQuoteRepo{}, &mockHoldings{holdings: []domain.Holding{{Ticker: "VTI"}}})
	if err := svc.FetchAndStoreQuotes(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestLiveHoldings(t *testing.T) {
	repo := &mockQuoteRepo{quotes: []Quote{
		{Ticker: "VTI", Price: decimal.RequireFromString("220"), Currency: "USD", FetchedAt: time.Now()},
	}}
	hs := &mockHoldings{holdings: []domain.Holding{
		{Ticker: "VTI", Quantity: 10, Price: ptr(200), Value: 2000},
		{Ticker: "CASH", Value: 1000},
	}}

	svc := NewService(&mockFetcher{}, repo, hs)
	p, err := svc.LiveHoldings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.LiveValue != 3200 || p.SnapshotValue != 3000 {
		t.Errorf("totals = %v/%v, want 3200/3000", p.LiveValue, p.SnapshotValue)
	}
	if p.Holdings[0].PriceChangePct != 10 {
		t.Errorf("VTI change pct = %v, want 10", p.Holdings[0].PriceChangePct)
	}
}

func TestLiveHoldingsListError(t *testing.T) {
	svc := NewService(&mockFetcher{}, &mockQuoteRepo{}, &mockHoldings{err: errors.New("db down")})
	if _, err := svc.LiveHoldings(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
