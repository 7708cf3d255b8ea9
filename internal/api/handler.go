// Package api serves the portfolio over HTTP as JSON.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mtlprog/rebalancer/internal/analysis"
	"github.com/mtlprog/rebalancer/internal/brokerage"
	"github.com/mtlprog/rebalancer/internal/classification"
	"github.com/mtlprog/rebalancer/internal/domain"
	"github.com/mtlprog/rebalancer/internal/holdings"
	"github.com/mtlprog/rebalancer/internal/portfolio"
	"github.com/mtlprog/rebalancer/internal/price"
	"github.com/mtlprog/rebalancer/internal/snapshot"
	"github.com/mtlprog/rebalancer/internal/targets"
)

// HoldingsService imports and lists holdings.
type HoldingsService interface {
	Import(ctx context.Context, brokerageName, filename string, content []byte) (holdings.ImportResult, error)
	List(ctx context.Context) ([]domain.Holding, error)
	Clear(ctx context.Context, brokerageName string) (int64, error)
}

// PortfolioService computes the breakdown and trade plan.
type PortfolioService interface {
	Breakdown(ctx context.Context) (domain.Breakdown, error)
	TradePlan(ctx context.Context) (domain.Breakdown, domain.TradePlan, error)
}

// ClassificationService manages ticker classifications.
type ClassificationService interface {
	List(ctx context.Context) ([]domain.Classification, error)
	SetManual(ctx context.Context, ticker string, u classification.ManualUpdate) (domain.Classification, error)
	Reclassify(ctx context.Context, ticker string) (domain.Classification, error)
}

// TargetService manages target allocations.
type TargetService interface {
	List(ctx context.Context) ([]domain.TargetAllocation, error)
	Replace(ctx context.Context, dimension string, allocations []targets.Allocation) ([]domain.TargetAllocation, error)
}

// SnapshotService lists upload history.
type SnapshotService interface {
	List(ctx context.Context, limit int) ([]snapshot.Snapshot, error)
}

// LivePriceService revalues holdings with live quotes.
type LivePriceService interface {
	LiveHoldings(ctx context.Context) (price.LivePortfolio, error)
}

// AnalysisService generates and reads narrative analyses.
type AnalysisService interface {
	Generate(ctx context.Context, date time.Time) (analysis.Analysis, error)
	Get(ctx context.Context, date time.Time) (analysis.Analysis, error)
}

// ReportService renders the workbook download.
type ReportService interface {
	WriteXLSX(ctx context.Context, w io.Writer) error
}

// Services groups the handler dependencies.
type Services struct {
	Holdings        HoldingsService
	Portfolio       PortfolioService
	Classifications ClassificationService
	Targets         TargetService
	Snapshots       SnapshotService
	Prices          LivePriceService
	Analysis        AnalysisService
	Reports         ReportService
}

// Handler provides HTTP endpoints for the portfolio API.
type Handler struct {
	svc            Services
	maxUploadBytes int64
}

// NewHandler creates a new API handler.
func NewHandler(svc Services, maxUploadBytes int64) *Handler {
	return &Handler{svc: svc, maxUploadBytes: maxUploadBytes}
}

// Upload handles POST /api/v1/upload (multipart "file" plus form "brokerage").
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	name := strings.ToLower(strings.TrimSpace(r.FormValue("brokerage")))
	if !brokerage.IsSupported(name) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("brokerage must be one of: %s", strings.Join(brokerage.Supported(), ", ")))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	result, err := h.svc.Holdings.Import(r.Context(), name, header.Filename, content)
	if err != nil {
		switch {
		case errors.Is(err, holdings.ErrNoHoldings):
			writeError(w, http.StatusBadRequest, "no holdings found in CSV")
		case errors.Is(err, brokerage.ErrHeaderNotFound), errors.Is(err, brokerage.ErrUnknownBrokerage):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("failed to import holdings", "brokerage", name, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     fmt.Sprintf("Imported %d holdings from %s", result.Count, name),
		"count":       result.Count,
		"total_value": result.TotalValue,
		"snapshot_id": result.SnapshotID,
	})
}

// ListHoldings handles GET /api/v1/holdings.
func (h *Handler) ListHoldings(w http.ResponseWriter, r *http.Request) {
	hs, err := h.svc.Holdings.List(r.Context())
	if err != nil {
		slog.Error("failed to list holdings", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, hs)
}

// ClearHoldings handles DELETE /api/v1/holdings?brokerage=.
func (h *Handler) ClearHoldings(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Holdings.Clear(r.Context(), r.URL.Query().Get("brokerage"))
	if err != nil {
		slog.Error("failed to clear holdings", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Holdings cleared", "deleted": n})
}

// LiveHoldings handles GET /api/v1/holdings/live.
func (h *Handler) LiveHoldings(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Prices.LiveHoldings(r.Context())
	if err != nil {
		slog.Error("failed to revalue holdings", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetBreakdown handles GET /api/v1/breakdown.
func (h *Handler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Portfolio.Breakdown(r.Context())
	if err != nil {
		slog.Error("failed to compute breakdown", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// GetRebalance handles GET /api/v1/rebalance.
func (h *Handler) GetRebalance(w http.ResponseWriter, r *http.Request) {
	_, plan, err := h.svc.Portfolio.TradePlan(r.Context())
	if err != nil {
		if errors.Is(err, portfolio.ErrNoHoldings) {
			writeError(w, http.StatusBadRequest, "no holdings uploaded yet")
			return
		}
		slog.Error("failed to compute trade plan", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// ListSnapshots handles GET /api/v1/snapshots.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	snaps, err := h.svc.Snapshots.List(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list snapshots", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

// GetAnalysis handles GET /api/v1/analysis/{date}.
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	dateStr := r.PathValue("date")
	date, err := time.Parse(time.DateOnly, dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	a, err := h.svc.Analysis.Get(r.Context(), date)
	if err != nil {
		if errors.Is(err, analysis.ErrNotFound) {
			writeError(w, http.StatusNotFound, "analysis not found for date")
			return
		}
		slog.Error("failed to get analysis", "date", dateStr, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// GenerateAnalysis handles POST /api/v1/analysis.
func (h *Handler) GenerateAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Analysis.Generate(r.Context(), time.Now().UTC())
	if err != nil {
		slog.Error("failed to generate analysis", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate analysis")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DownloadReport handles GET /api/v1/report.xlsx.
func (h *Handler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.Reports.WriteXLSX(r.Context(), &buf); err != nil {
		if errors.Is(err, portfolio.ErrNoHoldings) {
			writeError(w, http.StatusBadRequest, "no holdings uploaded yet")
			return
		}
		slog.Error("failed to render report", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="portfolio-%s.xlsx"`, time.Now().UTC().Format(time.DateOnly)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to write report body", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
