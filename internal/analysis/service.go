// Package analysis generates and stores narrative portfolio analyses.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/rebalancer/internal/domain"
)

// NotConfiguredMessage is returned in place of an analysis when no generator is configured.
const NotConfiguredMessage = "**API key not configured.** Set GEMINI_API_KEY to enable portfolio analysis."

// Generator produces markdown from a system instruction and a prompt.
type Generator interface {
	GenerateContent(ctx context.Context, system, prompt string) (string, error)
}

// BreakdownSource computes the current breakdown.
type BreakdownSource interface {
	Breakdown(ctx context.Context) (domain.Breakdown, error)
}

// Service generates analyses. A nil generator disables generation.
type Service struct {
	gen    Generator
	source BreakdownSource
	repo   Repository
}

// NewService creates a new analysis Service.
func NewService(gen Generator, source BreakdownSource, repo Repository) *Service {
	return &Service{gen: gen, source: source, repo: repo}
}

// Generate analyzes the current breakdown and stores the result as the analysis for date,
// replacing any earlier one. Without a generator it returns NotConfiguredMessage unsaved.
func (s *Service) Generate(ctx context.Context, date time.Time) (Analysis, error) {
	date = dateOnly(date)
	if s.gen == nil {
		return Analysis{Date: date, Content: NotConfiguredMessage}, nil
	}

	b, err := s.source.Breakdown(ctx)
	if err != nil {
		return Analysis{}, fmt.Errorf("computing breakdown: %w", err)
	}

	content, err := s.gen.GenerateContent(ctx, systemPrompt, BuildPrompt(b))
	if err != nil {
		return Analysis{}, fmt.Errorf("generating analysis: %w", err)
	}

	saved, err := s.repo.Save(ctx, Analysis{Date: date, Content: content})
	if err != nil {
		return Analysis{}, err
	}

	slog.Info("generated portfolio analysis", "date", date.Format(time.DateOnly), "chars", len(content))
	return saved, nil
}

// Get returns the stored analysis for date, or ErrNotFound.
func (s *Service) Get(ctx context.Context, date time.Time) (Analysis, error) {
	return s.repo.Get(ctx, dateOnly(date))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
