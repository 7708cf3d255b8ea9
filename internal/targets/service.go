// Package targets manages the user's target allocations.
package targets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"

	"github.com/mtlprog/rebalancer/internal/domain"
)

var (
	// ErrInvalidTotal indicates allocations whose percentages do not add up to 100.
	ErrInvalidTotal = errors.New("target percentages must sum to 100")
	// ErrInvalidAllocation indicates a malformed allocation such as an unknown or repeated label.
	ErrInvalidAllocation = errors.New("invalid target allocation")
)

// totalTolerance is how far from 100 a dimension's targets may sum.
const totalTolerance = 1.0

// Allocation is one requested label target.
type Allocation struct {
	Label     string  `json:"label"`
	TargetPct float64 `json:"target_pct"`
}

// Service validates and stores target allocations.
type Service struct {
	repo Repository
}

// NewService creates a new targets Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every target allocation ordered by dimension then label.
func (s *Service) List(ctx context.Context) ([]domain.TargetAllocation, error) {
	ts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		ts = []domain.TargetAllocation{}
	}
	return ts, nil
}

// Replace swaps all targets of one dimension for allocations. Zero-percent rows are dropped
// and the remainder must sum to within one point of 100. Targets of the other dimension are
// untouched.
func (s *Service) Replace(ctx context.Context, dimension string, allocations []Allocation) ([]domain.TargetAllocation, error) {
	dim, err := domain.ParseDimension(strings.TrimSpace(dimension))
	if err != nil {
		return nil, err
	}

	out := make([]domain.TargetAllocation, 0, len(allocations))
	seen := make(map[string]bool, len(allocations))
	for _, a := range allocations {
		label := strings.TrimSpace(a.Label)
		switch {
		case !dim.IsValidLabel(label):
			return nil, fmt.Errorf("%w: unknown %s label %q", ErrInvalidAllocation, dim, a.Label)
		case seen[label]:
			return nil, fmt.Errorf("%w: duplicate %s label %q", ErrInvalidAllocation, dim, label)
		case math.IsNaN(a.TargetPct) || a.TargetPct < 0 || a.TargetPct > 100:
			return nil, fmt.Errorf("%w: %q target %v out of range", ErrInvalidAllocation, label, a.TargetPct)
		}
		seen[label] = true
		if a.TargetPct == 0 {
			continue
		}
		out = append(out, domain.TargetAllocation{Dimension: dim, Label: label, TargetPct: a.TargetPct})
	}

	total := lo.SumBy(out, func(t domain.TargetAllocation) float64 { return t.TargetPct })
	if math.Abs(total-100) > totalTolerance {
		return nil, fmt.Errorf("%w (got %s)", ErrInvalidTotal, fmtPct(total))
	}

	if err := s.repo.ReplaceDimension(ctx, dim, out); err != nil {
		return nil, fmt.Errorf("saving %s targets: %w", dim, err)
	}
	return out, nil
}

func fmtPct(v float64) string {
	return fmt.Sprintf("%.2f%%", domain.Round2(v))
}
