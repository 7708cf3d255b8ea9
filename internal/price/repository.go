package price

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Quote is a stored last price for a ticker.
type Quote struct {
	Ticker    string          `json:"ticker"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// QuoteRepository defines persistent storage for live quotes.
type QuoteRepository interface {
	SaveQuotes(ctx context.Context, prices map[string]float64) error
	GetQuotes(ctx context.Context, tickers []string) ([]Quote, error)
}

// PgQuoteRepository implements QuoteRepository with PostgreSQL.
type PgQuoteRepository struct {
	pool *pgxpool.Pool
}

// NewPgQuoteRepository creates a new PostgreSQL quote repository.
func NewPgQuoteRepository(pool *pgxpool.Pool) *PgQuoteRepository {
	return &PgQuoteRepository{pool: pool}
}

func (r *PgQuoteRepository) SaveQuotes(ctx context.Context, prices map[string]float64) error {
	if len(prices) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for ticker, p := range prices {
		batch.Queue(
			`INSERT INTO price_quotes (ticker, price, currency, fetched_at)
			 VALUES ($1, $2, 'USD', NOW())
			 ON CONFLICT (ticker) DO UPDATE SET price = $2, fetched_at = NOW()`,
			ticker, decimal.NewFromFloat(p))
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("saving %d quotes: %w", len(prices), err)
	}
	return nil
}

func (r *PgQuoteRepository) GetQuotes(ctx context.Context, tickers []string) ([]Quote, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ticker, price, currency, fetched_at FROM price_quotes WHERE ticker = ANY($1) ORDER BY ticker`,
		tickers)
	if err != nil {
		return nil, fmt.Errorf("getting quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		var q Quote
		if err := rows.Scan(&q.Ticker, &q.Price, &q.Currency, &q.FetchedAt); err != nil {
			return nil, fmt.Errorf("scanning quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}
