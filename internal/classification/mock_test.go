package classification

import (
	"context"
	"maps"
	"slices"

	"github.com/mtlprog/rebalancer/internal/domain"
)

type mockRepo struct {
	data      map[string]domain.Classification
	upserted  []domain.Classification
	deleted   []string
	getErr    error
	upsertErr error
}

func newMockRepo(cs ...domain.Classification) *mockRepo {
	r := &mockRepo{data: make(map[string]domain.Classification)}
	for _, c := range cs {
		r.data[c.Ticker] = c
	}
	return r
}

func (m *mockRepo) Get(_ context.Context, ticker string) (domain.Classification, error) {
	if m.getErr != nil {
		return domain.Classification{}, m.getErr
	}
	c, ok := m.data[domain.NormalizeTicker(ticker)]
	if !ok {
		return domain.Classification{}, ErrNotFound
	}
	return c, nil
}

func (m *mockRepo) GetMany(_ context.Context, tickers []string) (map[string]domain.Classification, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make(map[string]domain.Classification)
	for _, t := range tickers {
		if c, ok := m.data[t]; ok {
			out[t] = c
		}
	}
	return out, nil
}

func (m *mockRepo) List(context.Context) ([]domain.Classification, error) {
	keys := slices.Sorted(maps.Keys(m.data))
	out := make([]domain.Classification, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.data[k])
	}
	return out, nil
}

func (m *mockRepo) Upsert(_ context.Context, cs []domain.Classification) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, c := range cs {
		m.data[c.Ticker] = c
	}
	m.upserted = append(m.upserted, cs...)
	return nil
}

func (m *mockRepo) Delete(_ context.Context, ticker string) error {
	delete(m.data, ticker)
	m.deleted = append(m.deleted, ticker)
	return nil
}

type mockClassifier struct {
	result map[string]domain.Classification
	err    error
	calls  [][]TickerName
}

func (m *mockClassifier) Classify(_ context.Context, items []TickerName) (map[string]domain.Classification, error) {
	m.calls = append(m.calls, items)
	if m.err != nil {
		return m.result, m.err
	}
	return m.result, nil
}

type mockGenerator struct {
	replies []string
	err     error
	failOn  map[int]error // keyed by 1-based call number
	prompts []string
}

func (m *mockGenerator) GenerateJSON(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if err, ok := m.failOn[len(m.prompts)]; ok {
		return "", err
	}
	reply := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return reply, nil
}
