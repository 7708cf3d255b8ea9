// Package portfolio assembles the breakdown and trade plan from stored holdings,
// classifications and targets.
package portfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/mtlprog/rebalancer/internal/breakdown"
	"github.com/mtlprog/rebalancer/internal/domain"
	"github.com/mtlprog/rebalancer/internal/rebalance"
)

// ErrNoHoldings indicates that nothing has been imported yet.
var ErrNoHoldings = errors.New("no holdings")

// HoldingsLister lists the current holdings.
type HoldingsLister interface {
	List(ctx context.Context) ([]domain.Holding, error)
}

// ClassificationSnapshotter loads classifications for a set of tickers.
type ClassificationSnapshotter interface {
	Snapshot(ctx context.Context, tickers []string) (breakdown.MapLookup, error)
}

// TargetLister lists the stored target allocations.
type TargetLister interface {
	List(ctx context.Context) ([]domain.TargetAllocation, error)
}

// Service computes portfolio views from stored state.
type Service struct {
	holdings        HoldingsLister
	classifications ClassificationSnapshotter
	targets         TargetLister
	opts            []breakdown.Option
}

// NewService creates a new portfolio Service.
func NewService(holdings HoldingsLister, classifications ClassificationSnapshotter, targets TargetLister, opts ...breakdown.Option) *Service {
	return &Service{holdings: holdings, classifications: classifications, targets: targets, opts: opts}
}

// Breakdown computes the breakdown of the current holdings.
func (s *Service) Breakdown(ctx context.Context) (domain.Breakdown, error) {
	hs, err := s.holdings.List(ctx)
	if err != nil {
		return domain.Breakdown{}, fmt.Errorf("listing holdings: %w", err)
	}
	return s.BreakdownOf(ctx, hs)
}

// BreakdownOf computes the breakdown of holdings using the stored classifications.
func (s *Service) BreakdownOf(ctx context.Context, hs []domain.Holding) (domain.Breakdown, error) {
	tickers := lo.Map(hs, func(h domain.Holding, _ int) string { return h.Ticker })
	lookup, err := s.classifications.Snapshot(ctx, tickers)
	if err != nil {
		return domain.Breakdown{}, fmt.Errorf("loading classifications: %w", err)
	}
	return breakdown.ComputeBreakdown(hs, lookup, s.opts...), nil
}

// TradePlan computes the breakdown and the trade plan against the stored targets.
// It returns ErrNoHoldings when the portfolio is empty.
func (s *Service) TradePlan(ctx context.Context) (domain.Breakdown, domain.TradePlan, error) {
	hs, err := s.holdings.List(ctx)
	if err != nil {
		return domain.Breakdown{}, domain.TradePlan{}, fmt.Errorf("listing holdings: %w", err)
	}
	if len(hs) == 0 {
		return domain.Breakdown{}, domain.TradePlan{}, ErrNoHoldings
	}

	b, err := s.BreakdownOf(ctx, hs)
	if err != nil {
		return domain.Breakdown{}, domain.TradePlan{}, err
	}

	targets, err := s.targets.List(ctx)
	if err != nil {
		return domain.Breakdown{}, domain.TradePlan{}, fmt.Errorf("listing targets: %w", err)
	}

	return b, rebalance.SuggestTrades(b, targets), nil
}
