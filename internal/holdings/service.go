// Package holdings imports brokerage exports and serves the current holdings.
package holdings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/mtlprog/rebalancer/internal/brokerage"
	"github.com/mtlprog/rebalancer/internal/classification"
	"github.com/mtlprog/rebalancer/internal/domain"
	"github.com/mtlprog/rebalancer/internal/snapshot"
)

// ErrNoHoldings indicates an export that parsed cleanly but contained no positions.
var ErrNoHoldings = errors.New("no holdings found in file")

// Classifier classifies newly imported tickers.
type Classifier interface {
	Classify(ctx context.Context, items []classification.TickerName) (map[string]domain.Classification, error)
}

// SnapshotRecorder records an upload in the snapshot history.
type SnapshotRecorder interface {
	Record(ctx context.Context, brokerage, filename string, holdings []domain.Holding) (snapshot.Snapshot, error)
}

// ImportResult summarizes a completed import.
type ImportResult struct {
	Brokerage  string  `json:"brokerage"`
	Filename   string  `json:"filename"`
	Count      int     `json:"count"`
	TotalValue float64 `json:"total_value"`
	SnapshotID int     `json:"snapshot_id,omitempty"`
}

// Service manages holdings.
type Service struct {
	repo       Repository
	snapshots  SnapshotRecorder
	classifier Classifier
}

// NewService creates a new holdings Service.
func NewService(repo Repository, snapshots SnapshotRecorder, classifier Classifier) *Service {
	return &Service{repo: repo, snapshots: snapshots, classifier: classifier}
}

// Import parses an export and replaces every holding of that brokerage with its contents.
// Holdings of other brokerages are untouched. Recording the snapshot and classifying new
// tickers are best effort: failures are logged and do not fail the import.
func (s *Service) Import(ctx context.Context, brokerageName, filename string, content []byte) (ImportResult, error) {
	tag := strings.ToLower(strings.TrimSpace(brokerageName))

	parsed, err := brokerage.Parse(tag, content)
	if err != nil {
		return ImportResult{}, fmt.Errorf("parsing %s export: %w", tag, err)
	}
	if len(parsed) == 0 {
		return ImportResult{}, ErrNoHoldings
	}

	if err := s.repo.ReplaceBrokerage(ctx, tag, parsed); err != nil {
		return ImportResult{}, fmt.Errorf("storing holdings: %w", err)
	}

	result := ImportResult{
		Brokerage:  tag,
		Filename:   filename,
		Count:      len(parsed),
		TotalValue: domain.Round2(lo.SumBy(parsed, func(h domain.Holding) float64 { return h.Value })),
	}

	if s.snapshots != nil {
		snap, err := s.snapshots.Record(ctx, tag, filename, parsed)
		if err != nil {
			slog.Warn("failed to record upload snapshot", "brokerage", tag, "error", err)
		} else {
			result.SnapshotID = snap.ID
		}
	}

	if s.classifier != nil {
		items := lo.Map(parsed, func(h domain.Holding, _ int) classification.TickerName {
			return classification.TickerName{Ticker: h.Ticker, Name: h.Name}
		})
		if _, err := s.classifier.Classify(ctx, items); err != nil {
			slog.Warn("failed to classify imported tickers", "brokerage", tag, "error", err)
		}
	}

	slog.Info("imported holdings", "brokerage", tag, "file", filename, "count", result.Count, "total_value", result.TotalValue)
	return result, nil
}

// List returns all holdings across brokerages.
func (s *Service) List(ctx context.Context) ([]domain.Holding, error) {
	hs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if hs == nil {
		hs = []domain.Holding{}
	}
	return hs, nil
}

// Clear removes the holdings of brokerage, or every holding when brokerage is empty.
func (s *Service) Clear(ctx context.Context, brokerageName string) (int64, error) {
	return s.repo.Clear(ctx, strings.ToLower(strings.TrimSpace(brokerageName)))
}
