package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mtlprog/rebalancer/internal/classification"
	"github.com/mtlprog/rebalancer/internal/domain"
	"github.com/mtlprog/rebalancer/internal/targets"
)

// ListClassifications handles GET /api/v1/classifications.
func (h *Handler) ListClassifications(w http.ResponseWriter, r *http.Request) {
	cs, err := h.svc.Classifications.List(r.Context())
	if err != nil {
		slog.Error("failed to list classifications", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// UpdateClassification handles PUT /api/v1/classifications/{ticker}.
func (h *Handler) UpdateClassification(w http.ResponseWriter, r *http.Request) {
	var u classification.ManualUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	c, err := h.svc.Classifications.SetManual(r.Context(), r.PathValue("ticker"), u)
	if err != nil {
		if errors.Is(err, classification.ErrInvalidLabel) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to update classification", "ticker", r.PathValue("ticker"), "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Reclassify handles POST /api/v1/classifications/{ticker}/reclassify.
func (h *Handler) Reclassify(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Classifications.Reclassify(r.Context(), r.PathValue("ticker"))
	if err != nil {
		slog.Error("failed to reclassify", "ticker", r.PathValue("ticker"), "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ListTargets handles GET /api/v1/targets.
func (h *Handler) ListTargets(w http.ResponseWriter, r *http.Request) {
	ts, err := h.svc.Targets.List(r.Context())
	if err != nil {
		slog.Error("failed to list targets", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

type replaceTargetsRequest struct {
	Dimension   string               `json:"dimension"`
	Allocations []targets.Allocation `json:"allocations"`
}

// ReplaceTargets handles PUT /api/v1/targets.
func (h *Handler) ReplaceTargets(w http.ResponseWriter, r *http.Request) {
	var req replaceTargetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	saved, err := h.svc.Targets.Replace(r.Context(), req.Dimension, req.Allocations)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to save targets", "dimension", req.Dimension, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Saved %d %s targets", len(saved), strings.ToLower(strings.TrimSpace(req.Dimension))),
		"targets": saved,
	})
}

func isValidationError(err error) bool {
	return errors.Is(err, domain.ErrInvalidDimension) ||
		errors.Is(err, targets.ErrInvalidTotal) ||
		errors.Is(err, targets.ErrInvalidAllocation)
}
