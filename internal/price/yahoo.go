// Package price fetches live quotes and revalues holdings with them.
package price

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/rebalancer/internal/domain"
)

var errNotQuoted = errors.New("ticker not quoted")

// YahooClient fetches last prices from the Yahoo Finance chart API.
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	cache      *quoteCache
}

// NewYahooClient creates a new Yahoo Finance client.
func NewYahooClient(baseURL string, maxRetries int, baseDelay time.Duration) *YahooClient {
	return &YahooClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		cache:      newQuoteCache(defaultCacheTTL),
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				Currency           string   `json:"currency"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				PreviousClose      *float64 `json:"chartPreviousClose"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchPrices returns the last price for each ticker Yahoo can quote, rounded to four places.
// Tickers Yahoo does not know, or fails to quote, are absent from the result rather than an
// error. An error is returned only when ctx ends, or when no ticker was priced and at least
// one request failed.
func (c *YahooClient) FetchPrices(ctx context.Context, tickers []string) (map[string]float64, error) {
	tickers = lo.Uniq(lo.Map(tickers, func(t string, _ int) string { return domain.NormalizeTicker(t) }))
	prices := make(map[string]float64, len(tickers))

	var attempted int
	var lastErr error
	for _, ticker := range tickers {
		if ticker == "" {
			continue
		}
		if p, ok := c.cache.get(ticker); ok {
			prices[ticker] = p
			continue
		}

		attempted++
		p, err := c.fetchPrice(ctx, ticker)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return prices, ctxErr
			}
			if errors.Is(err, errNotQuoted) {
				slog.Debug("no live price", "ticker", ticker)
				continue
			}
			slog.Warn("failed to fetch live price", "ticker", ticker, "error", err)
			lastErr = err
			continue
		}
		c.cache.set(ticker, p)
		prices[ticker] = p
	}

	if lastErr != nil && len(prices) == 0 {
		return nil, fmt.Errorf("no prices fetched for %d tickers: %w", attempted, lastErr)
	}
	return prices, nil
}

// yahooSymbol maps brokerage share-class notation (BRK.B) to Yahoo's (BRK-B).
func yahooSymbol(ticker string) string {
	return strings.ReplaceAll(ticker, ".", "-")
}

func (c *YahooClient) fetchPrice(ctx context.Context, ticker string) (float64, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", c.baseURL, url.PathEscape(yahooSymbol(ticker)))

	body, err := c.fetchWithRetry(ctx, u)
	if err != nil {
		return 0, fmt.Errorf("fetching %s: %w", ticker, err)
	}

	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("parsing Yahoo response for %s: %w", ticker, err)
	}
	if len(resp.Chart.Result) == 0 {
		return 0, errNotQuoted
	}

	meta := resp.Chart.Result[0].Meta
	switch {
	case meta.RegularMarketPrice != nil && *meta.RegularMarketPrice > 0:
		return domain.RoundPrice(*meta.RegularMarketPrice), nil
	case meta.PreviousClose != nil && *meta.PreviousClose > 0:
		return domain.RoundPrice(*meta.PreviousClose), nil
	default:
		return 0, errNotQuoted
	}
}

func (c *YahooClient) fetchWithRetry(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if attempt > 0 {
			baseDelay := c.baseDelay
			if baseDelay == 0 {
				baseDelay = 2 * time.Second
			}
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("creating Yahoo request: %w", err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; rebalancer/1.0)")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("Yahoo request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading Yahoo response: %w", err)
		}

		switch resp.StatusCode {
		case http.StatusOK:
			return body, nil
		case http.StatusNotFound:
			return nil, errNotQuoted
		case http.StatusTooManyRequests:
			lastErr = fmt.Errorf("Yahoo rate limited (attempt %d/%d)", attempt+1, c.maxRetries+1)
			continue
		default:
			return nil, fmt.Errorf("Yahoo HTTP %d: %s", resp.StatusCode, string(body))
		}
	}

	return nil, lastErr
}
