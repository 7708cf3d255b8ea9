// Package worker runs the periodic background jobs.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// QuoteFetcher refreshes the stored live prices of held tickers.
type QuoteFetcher interface {
	FetchAndStoreQuotes(ctx context.Context) error
}

// QuoteWorker periodically refreshes live prices.
type QuoteWorker struct {
	fetcher  QuoteFetcher
	interval time.Duration
}

// NewQuoteWorker creates a new QuoteWorker.
func NewQuoteWorker(fetcher QuoteFetcher, interval time.Duration) *QuoteWorker {
	return &QuoteWorker{
		fetcher:  fetcher,
		interval: interval,
	}
}

func (w *QuoteWorker) refresh(ctx context.Context, phase string) {
	start := time.Now()
	if err := w.fetcher.FetchAndStoreQuotes(ctx); err != nil {
		slog.Error("QuoteWorker: "+phase+" failed", "error", err)
		return
	}
	slog.Info("QuoteWorker: "+phase+" completed", "elapsed", time.Since(start).Round(time.Millisecond))
}

// Run refreshes prices immediately and then every interval. It blocks until ctx is cancelled.
func (w *QuoteWorker) Run(ctx context.Context) {
	slog.Info("QuoteWorker: starting", "interval", w.interval)
	w.refresh(ctx, "initial refresh")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("QuoteWorker: shutting down")
			return
		case <-ticker.C:
			w.refresh(ctx, "refresh")
		}
	}
}
