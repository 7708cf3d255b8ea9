// Package export renders the breakdown and trade plan as spreadsheets.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mtlprog/rebalancer/internal/domain"
	"github.com/mtlprog/rebalancer/internal/portfolio"
)

// SheetWriter writes the breakdown and trade plan to a spreadsheet destination.
type SheetWriter interface {
	Write(ctx context.Context, b domain.Breakdown, plan domain.TradePlan) error
}

// TradePlanner computes the current breakdown and trade plan.
type TradePlanner interface {
	TradePlan(ctx context.Context) (domain.Breakdown, domain.TradePlan, error)
}

// Service computes the trade plan and delegates writing to a SheetWriter.
type Service struct {
	planner TradePlanner
	writer  SheetWriter
}

// NewService creates a new export Service. writer may be nil when only workbook
// downloads are needed.
func NewService(planner TradePlanner, writer SheetWriter) *Service {
	return &Service{planner: planner, writer: writer}
}

// Export writes the current breakdown and plan to the sheet. An empty portfolio is skipped.
func (s *Service) Export(ctx context.Context) error {
	if s.writer == nil {
		return errors.New("no sheet writer configured")
	}

	b, plan, err := s.planner.TradePlan(ctx)
	if err != nil {
		if errors.Is(err, portfolio.ErrNoHoldings) {
			slog.Info("export: no holdings, skipping")
			return nil
		}
		return fmt.Errorf("computing trade plan: %w", err)
	}

	if err := s.writer.Write(ctx, b, plan); err != nil {
		return fmt.Errorf("writing sheets: %w", err)
	}
	slog.Info("export: sheets written", "holdings", len(b.Holdings), "total_value", b.TotalValue)
	return nil
}

// WriteXLSX renders the current breakdown and plan as a workbook to w.
// It returns portfolio.ErrNoHoldings when the portfolio is empty.
func (s *Service) WriteXLSX(ctx context.Context, w io.Writer) error {
	b, plan, err := s.planner.TradePlan(ctx)
	if err != nil {
		return err
	}
	return XLSXWriter{}.Write(w, b, plan)
}
