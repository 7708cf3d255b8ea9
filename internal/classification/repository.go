package classification

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/rebalancer/internal/domain"
)

// ErrNotFound indicates that no classification is stored for the ticker.
var ErrNotFound = errors.New("classification not found")

// Repository is the persisted classification cache.
type Repository interface {
	Get(ctx context.Context, ticker string) (domain.Classification, error)
	GetMany(ctx context.Context, tickers []string) (map[string]domain.Classification, error)
	List(ctx context.Context) ([]domain.Classification, error)
	Upsert(ctx context.Context, cs []domain.Classification) error
	Delete(ctx context.Context, ticker string) error
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL classification repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const selectClassification = `SELECT ticker, name, region_breakdown, category_breakdown, source, classified_at
	FROM ticker_classifications`

func scanClassification(row pgx.Row) (domain.Classification, error) {
	var c domain.Classification
	err := row.Scan(&c.Ticker, &c.Name, &c.Region, &c.Category, &c.Source, &c.ClassifiedAt)
	return c, err
}

func (r *PgRepository) Get(ctx context.Context, ticker string) (domain.Classification, error) {
	c, err := scanClassification(r.pool.QueryRow(ctx,
		selectClassification+` WHERE ticker = $1`, domain.NormalizeTicker(ticker)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Classification{}, ErrNotFound
		}
		return domain.Classification{}, fmt.Errorf("getting classification for %s: %w", ticker, err)
	}
	return c, nil
}

func (r *PgRepository) GetMany(ctx context.Context, tickers []string) (map[string]domain.Classification, error) {
	rows, err := r.pool.Query(ctx, selectClassification+` WHERE ticker = ANY($1)`, tickers)
	if err != nil {
		return nil, fmt.Errorf("getting classifications: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Classification, len(tickers))
	for rows.Next() {
		c, err := scanClassification(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning classification: %w", err)
		}
		out[c.Ticker] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating classifications: %w", err)
	}
	return out, nil
}

func (r *PgRepository) List(ctx context.Context) ([]domain.Classification, error) {
	rows, err := r.pool.Query(ctx, selectClassification+` ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("listing classifications: %w", err)
	}
	defer rows.Close()

	var out []domain.Classification
	for rows.Next() {
		c, err := scanClassification(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning classification: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating classifications: %w", err)
	}
	return out, nil
}

func (r *PgRepository) Upsert(ctx context.Context, cs []domain.Classification) error {
	if len(cs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range cs {
		batch.Queue(
			`INSERT INTO ticker_classifications (ticker, name, region_breakdown, category_breakdown, source, classified_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (ticker) DO UPDATE SET
			   name = EXCLUDED.name,
			   region_breakdown = EXCLUDED.region_breakdown,
			   category_breakdown = EXCLUDED.category_breakdown,
			   source = EXCLUDED.source,
			   classified_at = EXCLUDED.classified_at`,
			c.Ticker, c.Name, c.Region, c.Category, c.Source, c.ClassifiedAt)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for _, c := range cs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("saving classification for %s: %w", c.Ticker, err)
		}
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, ticker string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM ticker_classifications WHERE ticker = $1`, domain.NormalizeTicker(ticker))
	if err != nil {
		return fmt.Errorf("deleting classification for %s: %w", ticker, err)
	}
	return nil
}
