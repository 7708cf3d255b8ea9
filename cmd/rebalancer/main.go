package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/rebalancer/internal/api"
	"github.com/mtlprog/rebalancer/internal/config"
	"github.com/mtlprog/rebalancer/internal/domain"
	"github.com/mtlprog/rebalancer/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cliApp := &cli.App{
		Name:  "rebalancer",
		Usage: "portfolio breakdown and rebalancing across brokerages",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and background workers",
				Action: withApp(serve),
			},
			{
				Name:  "import",
				Usage: "import a brokerage positions export",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "brokerage", Aliases: []string{"b"}, Usage: "fidelity or schwab", Required: true},
					&cli.PathFlag{Name: "file", Aliases: []string{"f"}, Usage: "CSV export to import", Required: true},
				},
				Action: withApp(importFile),
			},
			{
				Name:   "breakdown",
				Usage:  "print the portfolio breakdown as JSON",
				Action: withApp(printBreakdown),
			},
			{
				Name:   "rebalance",
				Usage:  "print the trade plan as JSON",
				Action: withApp(printRebalance),
			},
			{
				Name:  "export",
				Usage: "write the breakdown and trade plan to an Excel workbook",
				Flags: []cli.Flag{
					&cli.PathFlag{Name: "out", Aliases: []string{"o"}, Value: "report.xlsx", Usage: "output workbook"},
					&cli.BoolFlag{Name: "sheets", Usage: "also push to the configured Google spreadsheet"},
				},
				Action: withApp(exportReport),
			},
			{
				Name:      "classify",
				Usage:     "reclassify tickers and print the result",
				ArgsUsage: "TICKER...",
				Action:    withApp(classify),
			},
		},
	}

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		log.Fatalf("rebalancer: %v", err)
	}
}

func withApp(fn func(c *cli.Context, a *app) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		a, err := newApp(c.Context, config.Load())
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(c, a)
	}
}

func serve(c *cli.Context, a *app) error {
	ctx, stop := context.WithCancel(c.Context)
	defer stop()

	quoteWorker := worker.NewQuoteWorker(a.prices, a.cfg.QuoteWorkerInterval)
	go quoteWorker.Run(ctx)

	var hook worker.AfterReportHook
	if a.sheets != nil {
		hook = a.exports
	} else {
		slog.Info("Google Sheets not configured, report export disabled")
	}
	reportWorker := worker.NewReportWorker(a.analysis, a.cfg.ReportWorkerInterval, hook)
	go reportWorker.Run(ctx)

	if a.cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, mutating endpoints are unprotected")
	}

	srv := api.NewServer(a.cfg.HTTPPort, api.Services{
		Holdings:        a.holdings,
		Portfolio:       a.portfolio,
		Classifications: a.classifications,
		Targets:         a.targets,
		Snapshots:       a.snapshots,
		Prices:          a.prices,
		Analysis:        a.analysis,
		Reports:         a.exports,
	}, a.cfg.AdminAPIKey, a.cfg.MaxUploadBytes)

	go func() {
		slog.Info("HTTP server listening", "port", a.cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	slog.Info("shutdown complete")
	return nil
}

func importFile(c *cli.Context, a *app) error {
	path := c.Path("file")
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	result, err := a.holdings.Import(c.Context, c.String("brokerage"), filepath.Base(path), content)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func printBreakdown(c *cli.Context, a *app) error {
	b, err := a.portfolio.Breakdown(c.Context)
	if err != nil {
		return err
	}
	return printJSON(b)
}

func printRebalance(c *cli.Context, a *app) error {
	_, plan, err := a.portfolio.TradePlan(c.Context)
	if err != nil {
		return err
	}
	return printJSON(plan)
}

func exportReport(c *cli.Context, a *app) error {
	out := c.Path("out")
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	if err := a.exports.WriteXLSX(c.Context, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", out, err)
	}
	slog.Info("workbook written", "path", out)

	if c.Bool("sheets") {
		if a.sheets == nil {
			return errors.New("GOOGLE_SHEETS_ID and GOOGLE_CREDENTIALS_JSON are required for --sheets")
		}
		return a.exports.Export(c.Context)
	}
	return nil
}

func classify(c *cli.Context, a *app) error {
	tickers := c.Args().Slice()
	if len(tickers) == 0 {
		return errors.New("at least one ticker is required")
	}

	out := make([]domain.Classification, 0, len(tickers))
	for _, t := range tickers {
		cl, err := a.classifications.Reclassify(c.Context, t)
		if err != nil {
			return fmt.Errorf("classifying %s: %w", t, err)
		}
		out = append(out, cl)
	}
	return printJSON(out)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
