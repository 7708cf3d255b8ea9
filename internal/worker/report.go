package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtlprog/rebalancer/internal/analysis"
)

// AnalysisGenerator generates and stores the analysis for a date.
type AnalysisGenerator interface {
	Generate(ctx context.Context, date time.Time) (analysis.Analysis, error)
}

// AfterReportHook is called after each report run, whether or not the analysis succeeded.
type AfterReportHook interface {
	Export(ctx context.Context) error
}

// ReportWorker periodically generates the daily analysis and exports the trade plan.
type ReportWorker struct {
	generator AnalysisGenerator // optional
	interval  time.Duration
	hook      AfterReportHook // optional
}

// NewReportWorker creates a new ReportWorker. Either generator or hook may be nil.
func NewReportWorker(generator AnalysisGenerator, interval time.Duration, hook AfterReportHook) *ReportWorker {
	return &ReportWorker{
		generator: generator,
		interval:  interval,
		hook:      hook,
	}
}

// utcDate returns the current date normalized to midnight UTC.
func utcDate() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (w *ReportWorker) runOnce(ctx context.Context) {
	if w.generator != nil {
		if _, err := w.generator.Generate(ctx, utcDate()); err != nil {
			slog.Error("ReportWorker: analysis failed", "error", err)
		} else {
			slog.Info("ReportWorker: analysis completed")
		}
	}

	if w.hook != nil {
		if err := w.hook.Export(ctx); err != nil {
			slog.Error("ReportWorker: export hook failed", "error", err)
		} else {
			slog.Info("ReportWorker: export hook completed")
		}
	}
}

// Run reports immediately and then every interval. It blocks until ctx is cancelled.
func (w *ReportWorker) Run(ctx context.Context) {
	slog.Info("ReportWorker: starting", "interval", w.interval)
	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ReportWorker: shutting down")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}
