package holdings

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/rebalancer/internal/database"
	"github.com/mtlprog/rebalancer/internal/domain"
)

// Repository defines persistent storage for holdings.
type Repository interface {
	ReplaceBrokerage(ctx context.Context, brokerage string, holdings []domain.Holding) error
	List(ctx context.Context) ([]domain.Holding, error)
	Clear(ctx context.Context, brokerage string) (int64, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL holdings repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// ReplaceBrokerage deletes every holding of brokerage and inserts holdings in one transaction.
func (r *PgRepository) ReplaceBrokerage(ctx context.Context, brokerage string, holdings []domain.Holding) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM holdings WHERE brokerage = $1`, brokerage); err != nil {
			return fmt.Errorf("deleting %s holdings: %w", brokerage, err)
		}

		rows := make([][]any, 0, len(holdings))
		for _, h := range holdings {
			rows = append(rows, []any{h.Ticker, h.Name, h.Quantity, h.Price, h.Value, h.Brokerage, h.Account})
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"holdings"},
			[]string{"ticker", "name", "quantity", "price", "value", "brokerage", "account"},
			pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("inserting %s holdings: %w", brokerage, err)
		}
		return nil
	})
}

func (r *PgRepository) List(ctx context.Context) ([]domain.Holding, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ticker, name, quantity, price, value, brokerage, account
		 FROM holdings
		 ORDER BY brokerage, value DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing holdings: %w", err)
	}
	defer rows.Close()

	var out []domain.Holding
	for rows.Next() {
		var h domain.Holding
		if err := rows.Scan(&h.Ticker, &h.Name, &h.Quantity, &h.Price, &h.Value, &h.Brokerage, &h.Account); err != nil {
			return nil, fmt.Errorf("scanning holding: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating holdings: %w", err)
	}
	return out, nil
}

// Clear deletes the holdings of brokerage, or all holdings when brokerage is empty.
func (r *PgRepository) Clear(ctx context.Context, brokerage string) (int64, error) {
	var (
		tag pgconn.CommandTag
		err error
	)
	if brokerage == "" {
		tag, err = r.pool.Exec(ctx, `DELETE FROM holdings`)
	} else {
		tag, err = r.pool.Exec(ctx, `DELETE FROM holdings WHERE brokerage = $1`, brokerage)
	}
	if err != nil {
		return 0, fmt.Errorf("clearing holdings: %w", err)
	}
	return tag.RowsAffected(), nil
}
