package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/rebalancer/internal/analysis"
	"github.com/mtlprog/rebalancer/internal/breakdown"
	"github.com/mtlprog/rebalancer/internal/classification"
	"github.com/mtlprog/rebalancer/internal/config"
	"github.com/mtlprog/rebalancer/internal/database"
	"github.com/mtlprog/rebalancer/internal/export"
	"github.com/mtlprog/rebalancer/internal/gemini"
	"github.com/mtlprog/rebalancer/internal/holdings"
	"github.com/mtlprog/rebalancer/internal/portfolio"
	"github.com/mtlprog/rebalancer/internal/price"
	"github.com/mtlprog/rebalancer/internal/snapshot"
	"github.com/mtlprog/rebalancer/internal/targets"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// app holds the wired services shared by every command.
type app struct {
	cfg             config.Config
	pool            *pgxpool.Pool
	holdings        *holdings.Service
	classifications *classification.Store
	targets         *targets.Service
	snapshots       *snapshot.Service
	portfolio       *portfolio.Service
	prices          *price.Service
	analysis        *analysis.Service
	exports         *export.Service
	sheets          *export.SheetsWriter
}

// newApp connects to the database, applies migrations and wires the services.
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	a := &app{cfg: cfg, pool: pool}

	var (
		classifier classification.Classifier
		generator  analysis.Generator
	)
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, gemini.WithModel(cfg.GeminiModel))
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("creating Gemini client: %w", err)
		}
		classifier = classification.NewGeminiClassifier(client)
		generator = client
	} else {
		slog.Warn("GEMINI_API_KEY not set, unknown tickers get the default classification")
	}

	a.classifications = classification.NewStore(classification.NewPgRepository(pool), classifier)
	a.snapshots = snapshot.NewService(snapshot.NewPgRepository(pool))
	a.holdings = holdings.NewService(holdings.NewPgRepository(pool), a.snapshots, a.classifications)
	a.targets = targets.NewService(targets.NewPgRepository(pool))

	var opts []breakdown.Option
	if cfg.NormalizeWeights {
		opts = append(opts, breakdown.WithNormalizedWeights())
	}
	a.portfolio = portfolio.NewService(a.holdings, a.classifications, a.targets, opts...)

	yahoo := price.NewYahooClient(cfg.YahooURL, cfg.YahooRetryMax, cfg.YahooRetryBaseDelay)
	a.prices = price.NewService(yahoo, price.NewPgQuoteRepository(pool), a.holdings)

	a.analysis = analysis.NewService(generator, a.portfolio, analysis.NewPgRepository(pool))

	var writer export.SheetWriter
	if cfg.SheetsEnabled() {
		a.sheets, err = export.NewSheetsWriter(ctx, cfg.GoogleSheetsID, cfg.GoogleCredentials)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("creating sheets writer: %w", err)
		}
		writer = a.sheets
	}
	a.exports = export.NewService(a.portfolio, writer)

	return a, nil
}

func (a *app) Close() {
	a.pool.Close()
}
