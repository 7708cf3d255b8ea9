// Package snapshot keeps a history of brokerage uploads.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/rebalancer/internal/domain"
)

const (
	defaultListLimit = 30
	maxListLimit     = 500
)

// Service records and lists upload snapshots.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new snapshot Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Record stores a snapshot summarizing an upload of holdings from one brokerage.
func (s *Service) Record(ctx context.Context, brokerage, filename string, holdings []domain.Holding) (Snapshot, error) {
	now := s.now().UTC()
	snap := Snapshot{
		Date:          time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Brokerage:     brokerage,
		Filename:      filename,
		HoldingsCount: len(holdings),
		TotalValue:    domain.Round2(lo.SumBy(holdings, func(h domain.Holding) float64 { return h.Value })),
	}

	saved, err := s.repo.Save(ctx, snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("recording snapshot: %w", err)
	}
	return saved, nil
}

// Latest returns the most recent upload.
func (s *Service) Latest(ctx context.Context) (Snapshot, error) {
	return s.repo.GetLatest(ctx)
}

// List returns recent uploads, newest first. A non-positive limit means the default.
func (s *Service) List(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	snaps, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if snaps == nil {
		snaps = []Snapshot{}
	}
	return snaps, nil
}
