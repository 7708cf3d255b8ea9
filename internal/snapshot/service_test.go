package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mtlprog/rebalancer/internal/domain"
)

type mockRepo struct {
	saved     Snapshot
	saveErr   error
	latest    Snapshot
	latestErr error
	list      []Snapshot
	listErr   error
	listLimit int
}

func (m *mockRepo) Save(_ context.Context, s Snapshot) (Snapshot, error) {
	if m.saveErr != nil {
		return Snapshot{}, m.saveErr
	}
	s.ID = 7
	m.saved = s
	return s, nil
}

func (m *mockRepo) GetLatest(_ context.Context) (Snapshot, error) {
	return m.latest, m.latestErr
}

func (m *mockRepo) List(_ context.Context, limit int) ([]Snapshot, error) {
	m.listLimit = limit
	return m.list, m.listErr
}

func TestRecord(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2025, 3, 4, 23, 30, 0, 0, time.FixedZone("PST", -8*3600)) }

	holdings := []domain.Holding{
		{Ticker: "VTI", Value: 1000.005},
		{Ticker: "BND", Value: 499.994},
	}

	snap, err := svc.Record(context.Background(), "fidelity", "positions.csv", holdings)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if snap.ID != 7 {
		t.Errorf("ID = %d, want 7", snap.ID)
	}
	if want := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC); !repo.saved.Date.Equal(want) {
		t.Errorf("Date = %v, want %v (UTC day)", repo.saved.Date, want)
	}
	if repo.saved.HoldingsCount != 2 || repo.saved.TotalValue != 1500 {
		t.Errorf("saved = %+v, want 2 holdings worth 1500", repo.saved)
	}
	if repo.saved.Brokerage != "fidelity" || repo.saved.Filename != "positions.csv" {
		t.Errorf("saved = %+v", repo.saved)
	}
}

func TestRecordError(t *testing.T) {
	svc := NewService(&mockRepo{saveErr: errors.New("db down")})

	if _, err := svc.Record(context.Background(), "schwab", "", nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestLatestNotFound(t *testing.T) {
	svc := NewService(&mockRepo{latestErr: ErrNotFound})

	_, err := svc.Latest(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListLimits(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{limit: 0, want: 30},
		{limit: -1, want: 30},
		{limit: 10, want: 10},
		{limit: 10000, want: 500},
	}

	for _, tt := range tests {
		repo := &mockRepo{}
		snaps, err := NewService(repo).List(context.Background(), tt.limit)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if repo.listLimit != tt.want {
			t.Errorf("List(%d) used limit %d, want %d", tt.limit, repo.listLimit, tt.want)
		}
		if snaps == nil {
			t.Error("List returned nil, want empty slice")
		}
	}
}
