package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mtlprog/rebalancer/internal/brokerage"
	"github.com/mtlprog/rebalancer/internal/classification"
	"github.com/mtlprog/rebalancer/internal/domain"
	"github.com/mtlprog/rebalancer/internal/holdings"
	"github.com/mtlprog/rebalancer/internal/portfolio"
	"github.com/mtlprog/rebalancer/internal/targets"
)

const testMaxUpload = 1 << 20

func serve(t *testing.T, deps *testDeps, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	NewRouter(deps.services(), "", testMaxUpload).ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding body %q: %v", w.Body.String(), err)
	}
}

func multipartUpload(t *testing.T, brokerageName, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if brokerageName != "" {
		if err := mw.WriteField("brokerage", brokerageName); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadSuccess(t *testing.T) {
	deps := newTestDeps()
	w := serve(t, deps, multipartUpload(t, "Fidelity", "positions.csv", "Symbol,Quantity\nVTI,1\n"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if deps.holdings.importedName != "fidelity" || deps.holdings.importedFile != "positions.csv" {
		t.Errorf("imported %q from %q", deps.holdings.importedName, deps.holdings.importedFile)
	}
	if !strings.Contains(string(deps.holdings.imported), "VTI") {
		t.Error("file content not passed through")
	}

	var resp map[string]any
	decodeBody(t, w, &resp)
	if resp["count"] != 2.0 {
		t.Errorf("count = %v, want 2", resp["count"])
	}
	if resp["message"] != "Imported 2 holdings from fidelity" {
		t.Errorf("message = %v", resp["message"])
	}
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name      string
		brokerage string
		filename  string
		importErr error
		want      int
	}{
		{"unknown brokerage", "vanguard", "x.csv", nil, http.StatusBadRequest},
		{"missing brokerage", "", "x.csv", nil, http.StatusBadRequest},
		{"missing file", "schwab", "", nil, http.StatusBadRequest},
		{"no holdings", "schwab", "x.csv", holdings.ErrNoHoldings, http.StatusBadRequest},
		{"no header", "schwab", "x.csv", fmt.Errorf("parsing: %w", brokerage.ErrHeaderNotFound), http.StatusBadRequest},
		{"storage failure", "schwab", "x.csv", fmt.Errorf("storing: %w", bytes.ErrTooLarge), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps()
			deps.holdings.importErr = tt.importErr
			w := serve(t, deps, multipartUpload(t, tt.brokerage, tt.filename, "data"))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestListHoldingsEmptyArray(t *testing.T) {
	deps := newTestDeps()
	deps.holdings.holdings = []domain.Holding{}
	w := serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/v1/holdings", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("body = %q, want []", w.Body.String())
	}
}

func TestClearHoldingsByBrokerage(t *testing.T) {
	deps := newTestDeps()
	w := serve(t, deps, httptest.NewRequest(http.MethodDelete, "/api/v1/holdings?brokerage=schwab", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if deps.holdings.cleared == nil || *deps.holdings.cleared != "schwab" {
		t.Errorf("cleared = %v, want schwab", deps.holdings.cleared)
	}
}

func TestLiveHoldings(t *testing.T) {
	w := serve(t, newTestDeps(), httptest.NewRequest(http.MethodGet, "/api/v1/holdings/live", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]any
	decodeBody(t, w, &resp)
	if resp["live_value"] != 110.0 {
		t.Errorf("live_value = %v, want 110", resp["live_value"])
	}
}

func TestGetBreakdownPreservesLabelOrder(t *testing.T) {
	deps := newTestDeps()
	deps.portfolio.breakdown = domain.Breakdown{
		TotalValue: 100,
		ByRegion:   domain.LabelValues{{Label: "US", Value: 70, Pct: 70}, {Label: "EM", Value: 30, Pct: 30}},
		ByCategory: domain.LabelValues{{Label: "Technology", Value: 100, Pct: 100}},
		Holdings:   []domain.HoldingDetail{},
	}
	w := serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/v1/breakdown", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"by_region":{"US":{"value":70,"pct":70},"EM":{"value":30,"pct":30}}`) {
		t.Errorf("by_region not in descending order: %s", body)
	}
	if !strings.Contains(body, `"total_value":100`) {
		t.Errorf("missing total_value: %s", body)
	}
}

func TestGetRebalance(t *testing.T) {
	deps := newTestDeps()
	deps.portfolio.plan = domain.TradePlan{
		Region:   []domain.RebalanceItem{},
		Category: []domain.RebalanceItem{{Label: "Cash", CurrentPct: 10, TargetPct: 20, Drift: -10, Action: domain.ActionBuy, Amount: 1000}},
		Summary:  "Buy $1,000 of Cash",
	}
	w := serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/v1/rebalance", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var plan domain.TradePlan
	decodeBody(t, w, &plan)
	if plan.Summary != "Buy $1,000 of Cash" || len(plan.Category) != 1 {
		t.Errorf("plan = %+v", plan)
	}
	if !strings.Contains(w.Body.String(), `"current_pct":10`) {
		t.Errorf("missing current_pct: %s", w.Body.String())
	}
}

func TestGetRebalanceNoHoldings(t *testing.T) {
	deps := newTestDeps()
	deps.portfolio.err = portfolio.ErrNoHoldings
	w := serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/v1/rebalance", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUpdateClassification(t *testing.T) {
	deps := newTestDeps()
	body := `{"region_breakdown":{"US":60,"EM":40},"category_breakdown":{"Technology":100}}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/classifications/brk.b", strings.NewReader(body))
	w := serve(t, deps, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if deps.classifications.setTicker != "brk.b" {
		t.Errorf("ticker = %q", deps.classifications.setTicker)
	}
	if deps.classifications.setUpdate.Region["EM"] != 40 {
		t.Errorf("region = %v", deps.classifications.setUpdate.Region)
	}
}

func TestUpdateClassificationInvalid(t *testing.T) {
	deps := newTestDeps()
	deps.classifications.setErr = fmt.Errorf("%w: region %q", classification.ErrInvalidLabel, "Mars")

	req := httptest.NewRequest(http.MethodPut, "/api/v1/classifications/VTI", strings.NewReader(`{"region_breakdown":{"Mars":100}}`))
	if w := serve(t, deps, req); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/v1/classifications/VTI", strings.NewReader(`not json`))
	if w := serve(t, deps, req); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for bad JSON", w.Code)
	}
}

func TestReclassify(t *testing.T) {
	deps := newTestDeps()
	w := serve(t, deps, httptest.NewRequest(http.MethodPost, "/api/v1/classifications/vti/reclassify", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if deps.classifications.reclassify != "vti" {
		t.Errorf("reclassified %q", deps.classifications.reclassify)
	}
}

func TestReplaceTargets(t *testing.T) {
	deps := newTestDeps()
	body := `{"dimension":"category","allocations":[{"label":"Technology","target_pct":60},{"label":"Cash","target_pct":40}]}`
	w := serve(t, deps, httptest.NewRequest(http.MethodPut, "/api/v1/targets", strings.NewReader(body)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if deps.targets.dimension != "category" || len(deps.targets.allocs) != 2 {
		t.Errorf("replace called with %q %v", deps.targets.dimension, deps.targets.allocs)
	}
	var resp map[string]any
	decodeBody(t, w, &resp)
	if resp["message"] != "Saved 2 category targets" {
		t.Errorf("message = %v", resp["message"])
	}
}

func TestReplaceTargetsValidation(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"bad dimension", fmt.Errorf("%w: got %q", domain.ErrInvalidDimension, "sector")},
		{"bad total", fmt.Errorf("%w (got 90.00%%)", targets.ErrInvalidTotal)},
		{"bad label", fmt.Errorf("%w: unknown label", targets.ErrInvalidAllocation)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps()
			deps.targets.replaceErr = tt.err
			w := serve(t, deps, httptest.NewRequest(http.MethodPut, "/api/v1/targets", strings.NewReader(`{"dimension":"x","allocations":[]}`)))
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestListSnapshotsLimit(t *testing.T) {
	deps := newTestDeps()
	serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/v1/snapshots?limit=5", nil))
	if deps.snapshots.lastLimit != 5 {
		t.Errorf("limit = %d, want 5", deps.snapshots.lastLimit)
	}

	serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/v1/snapshots?limit=abc", nil))
	if deps.snapshots.lastLimit != 0 {
		t.Errorf("limit = %d, want 0 (service default)", deps.snapshots.lastLimit)
	}
}

func TestAnalysisGenerateThenGet(t *testing.T) {
	deps := newTestDeps()
	w := serve(t, deps, httptest.NewRequest(http.MethodPost, "/api/v1/analysis", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("generate status = %d, want 200", w.Code)
	}

	today := time.Now().UTC().Format(time.DateOnly)
	w = serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/v1/analysis/"+today, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", w.Code)
	}
	var resp map[string]any
	decodeBody(t, w, &resp)
	if resp["content"] != "### The Big Picture" {
		t.Errorf("content = %v", resp["content"])
	}
}

func TestGetAnalysisErrors(t *testing.T) {
	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/analysis/2026-13-45", http.StatusBadRequest},
		{"/api/v1/analysis/2020-01-01", http.StatusNotFound},
	}
	for _, tt := range tests {
		w := serve(t, newTestDeps(), httptest.NewRequest(http.MethodGet, tt.path, nil))
		if w.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.path, w.Code, tt.want)
		}
	}
}

func TestDownloadReport(t *testing.T) {
	w := serve(t, newTestDeps(), httptest.NewRequest(http.MethodGet, "/api/v1/report.xlsx", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment;") {
		t.Errorf("Content-Disposition = %q", w.Header().Get("Content-Disposition"))
	}
	if w.Body.String() != "PK-workbook" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestDownloadReportNoHoldings(t *testing.T) {
	deps := newTestDeps()
	deps.reports.err = portfolio.ErrNoHoldings
	w := serve(t, deps, httptest.NewRequest(http.MethodGet, "/api/v1/report.xlsx", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
