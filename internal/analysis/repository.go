package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that no analysis exists for the requested date.
var ErrNotFound = errors.New("analysis not found")

// Analysis is a generated narrative for one day.
type Analysis struct {
	Date      time.Time `json:"date"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository defines persistent storage for analyses, one per date.
type Repository interface {
	Save(ctx context.Context, a Analysis) (Analysis, error)
	Get(ctx context.Context, date time.Time) (Analysis, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL analysis repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Save replaces any analysis stored for the same date.
func (r *PgRepository) Save(ctx context.Context, a Analysis) (Analysis, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO portfolio_analyses (analysis_date, content)
		 VALUES ($1, $2)
		 ON CONFLICT (analysis_date) DO UPDATE SET content = $2, created_at = NOW()
		 RETURNING created_at`,
		a.Date, a.Content).Scan(&a.CreatedAt)
	if err != nil {
		return Analysis{}, fmt.Errorf("saving analysis for %s: %w", a.Date.Format(time.DateOnly), err)
	}
	return a, nil
}

func (r *PgRepository) Get(ctx context.Context, date time.Time) (Analysis, error) {
	var a Analysis
	err := r.pool.QueryRow(ctx,
		`SELECT analysis_date, content, created_at FROM portfolio_analyses WHERE analysis_date = $1`,
		date).Scan(&a.Date, &a.Content, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, fmt.Errorf("getting analysis for %s: %w", date.Format(time.DateOnly), err)
	}
	return a, nil
}
