package targets

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/rebalancer/internal/database"
	"github.com/mtlprog/rebalancer/internal/domain"
)

// Repository defines persistent storage for target allocations.
type Repository interface {
	List(ctx context.Context) ([]domain.TargetAllocation, error)
	ReplaceDimension(ctx context.Context, dim domain.Dimension, allocations []domain.TargetAllocation) error
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL target allocation repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) List(ctx context.Context) ([]domain.TargetAllocation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT dimension, label, target_pct FROM target_allocations ORDER BY dimension, label`)
	if err != nil {
		return nil, fmt.Errorf("listing target allocations: %w", err)
	}
	targets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.TargetAllocation, error) {
		var t domain.TargetAllocation
		err := row.Scan(&t.Dimension, &t.Label, &t.TargetPct)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning target allocations: %w", err)
	}
	return targets, nil
}

// ReplaceDimension deletes every allocation of dim and inserts allocations, all or nothing.
func (r *PgRepository) ReplaceDimension(ctx context.Context, dim domain.Dimension, allocations []domain.TargetAllocation) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM target_allocations WHERE dimension = $1`, dim); err != nil {
			return fmt.Errorf("deleting %s targets: %w", dim, err)
		}
		for _, a := range allocations {
			_, err := tx.Exec(ctx,
				`INSERT INTO target_allocations (dimension, label, target_pct) VALUES ($1, $2, $3)`,
				dim, a.Label, a.TargetPct)
			if err != nil {
				return fmt.Errorf("inserting %s target %q: %w", dim, a.Label, err)
			}
		}
		return nil
	})
}
