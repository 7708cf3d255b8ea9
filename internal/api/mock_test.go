package api

import (
	"context"
	"io"
	"time"

	"github.com/mtlprog/rebalancer/internal/analysis"
	"github.com/mtlprog/rebalancer/internal/classification"
	"github.com/mtlprog/rebalancer/internal/domain"
	"github.com/mtlprog/rebalancer/internal/holdings"
	"github.com/mtlprog/rebalancer/internal/price"
	"github.com/mtlprog/rebalancer/internal/snapshot"
	"github.com/mtlprog/rebalancer/internal/targets"
)

type mockHoldings struct {
	holdings     []domain.Holding
	importErr    error
	imported     []byte
	importedName string
	importedFile string
	cleared      *string
}

func (m *mockHoldings) Import(_ context.Context, name, filename string, content []byte) (holdings.ImportResult, error) {
	m.importedName = name
	m.importedFile = filename
	m.imported = content
	if m.importErr != nil {
		return holdings.ImportResult{}, m.importErr
	}
	return holdings.ImportResult{Brokerage: name, Filename: filename, Count: 2, TotalValue: 1500, SnapshotID: 7}, nil
}

func (m *mockHoldings) List(_ context.Context) ([]domain.Holding, error) {
	return m.holdings, nil
}

func (m *mockHoldings) Clear(_ context.Context, name string) (int64, error) {
	m.cleared = &name
	return 3, nil
}

type mockPortfolio struct {
	breakdown domain.Breakdown
	plan      domain.TradePlan
	err       error
}

func (m *mockPortfolio) Breakdown(_ context.Context) (domain.Breakdown, error) {
	return m.breakdown, m.err
}

func (m *mockPortfolio) TradePlan(_ context.Context) (domain.Breakdown, domain.TradePlan, error) {
	return m.breakdown, m.plan, m.err
}

type mockClassifications struct {
	list       []domain.Classification
	setErr     error
	setTicker  string
	setUpdate  classification.ManualUpdate
	reclassify string
}

func (m *mockClassifications) List(_ context.Context) ([]domain.Classification, error) {
	return m.list, nil
}

func (m *mockClassifications) SetManual(_ context.Context, ticker string, u classification.ManualUpdate) (domain.Classification, error) {
	m.setTicker = ticker
	m.setUpdate = u
	if m.setErr != nil {
		return domain.Classification{}, m.setErr
	}
	return domain.Classification{Ticker: ticker, Region: u.Region, Category: u.Category, Source: domain.SourceManual}, nil
}

func (m *mockClassifications) Reclassify(_ context.Context, ticker string) (domain.Classification, error) {
	m.reclassify = ticker
	return domain.DefaultClassification(ticker), nil
}

type mockTargets struct {
	list       []domain.TargetAllocation
	replaceErr error
	dimension  string
	allocs     []targets.Allocation
}

func (m *mockTargets) List(_ context.Context) ([]domain.TargetAllocation, error) {
	return m.list, nil
}

func (m *mockTargets) Replace(_ context.Context, dimension string, allocs []targets.Allocation) ([]domain.TargetAllocation, error) {
	m.dimension = dimension
	m.allocs = allocs
	if m.replaceErr != nil {
		return nil, m.replaceErr
	}
	out := make([]domain.TargetAllocation, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, domain.TargetAllocation{Dimension: domain.Dimension(dimension), Label: a.Label, TargetPct: a.TargetPct})
	}
	return out, nil
}

type mockSnapshots struct {
	lastLimit int
}

func (m *mockSnapshots) List(_ context.Context, limit int) ([]snapshot.Snapshot, error) {
	m.lastLimit = limit
	return []snapshot.Snapshot{{ID: 1, Brokerage: "fidelity"}}, nil
}

type mockPrices struct{}

func (mockPrices) LiveHoldings(_ context.Context) (price.LivePortfolio, error) {
	return price.Summarize([]price.LiveHolding{{Ticker: "VTI", SnapshotValue: 100, LiveValue: 110}}), nil
}

type mockAnalysis struct {
	stored map[string]analysis.Analysis
}

func (m *mockAnalysis) Generate(_ context.Context, date time.Time) (analysis.Analysis, error) {
	a := analysis.Analysis{Date: date, Content: "### The Big Picture"}
	m.stored[date.Format(time.DateOnly)] = a
	return a, nil
}

func (m *mockAnalysis) Get(_ context.Context, date time.Time) (analysis.Analysis, error) {
	a, ok := m.stored[date.Format(time.DateOnly)]
	if !ok {
		return analysis.Analysis{}, analysis.ErrNotFound
	}
	return a, nil
}

type mockReports struct {
	err error
}

func (m *mockReports) WriteXLSX(_ context.Context, w io.Writer) error {
	if m.err != nil {
		return m.err
	}
	_, err := w.Write([]byte("PK-workbook"))
	return err
}

type testDeps struct {
	holdings        *mockHoldings
	portfolio       *mockPortfolio
	classifications *mockClassifications
	targets         *mockTargets
	snapshots       *mockSnapshots
	analysis        *mockAnalysis
	reports         *mockReports
}

func newTestDeps() *testDeps {
	return &testDeps{
		holdings:        &mockHoldings{},
		portfolio:       &mockPortfolio{},
		classifications: &mockClassifications{},
		targets:         &mockTargets{},
		snapshots:       &mockSnapshots{},
		analysis:        &mockAnalysis{stored: make(map[string]analysis.Analysis)},
		reports:         &mockReports{},
	}
}

func (d *testDeps) services() Services {
	return Services{
		Holdings:        d.holdings,
		Portfolio:       d.portfolio,
		Classifications: d.classifications,
		Targets:         d.targets,
		Snapshots:       d.snapshots,
		Prices:          mockPrices{},
		Analysis:        d.analysis,
		Reports:         d.reports,
	}
}
