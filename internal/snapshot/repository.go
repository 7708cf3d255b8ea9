package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that no upload has been recorded yet.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot records one brokerage upload.
type Snapshot struct {
	ID            int       `json:"id"`
	Date          time.Time `json:"date"`
	Brokerage     string    `json:"brokerage"`
	Filename      string    `json:"filename"`
	HoldingsCount int       `json:"holdings_count"`
	TotalValue    float64   `json:"total_value"`
	CreatedAt     time.Time `json:"created_at"`
}

// Repository defines persistent storage for upload snapshots.
type Repository interface {
	Save(ctx context.Context, s Snapshot) (Snapshot, error)
	GetLatest(ctx context.Context) (Snapshot, error)
	List(ctx context.Context, limit int) ([]Snapshot, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL snapshot repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Save(ctx context.Context, s Snapshot) (Snapshot, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO snapshots (snapshot_date, brokerage, filename, holdings_count, total_value)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		s.Date, s.Brokerage, s.Filename, s.HoldingsCount, s.TotalValue).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return Snapshot{}, fmt.Errorf("saving snapshot: %w", err)
	}
	return s, nil
}

func (r *PgRepository) GetLatest(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	err := r.pool.QueryRow(ctx,
		`SELECT id, snapshot_date, brokerage, filename, holdings_count, total_value, created_at
		 FROM snapshots
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`).Scan(&s.ID, &s.Date, &s.Brokerage, &s.Filename, &s.HoldingsCount, &s.TotalValue, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("getting latest snapshot: %w", err)
	}
	return s, nil
}

func (r *PgRepository) List(ctx context.Context, limit int) ([]Snapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, snapshot_date, brokerage, filename, holdings_count, total_value, created_at
		 FROM snapshots
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.Date, &s.Brokerage, &s.Filename, &s.HoldingsCount, &s.TotalValue, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return snapshots, nil
}
