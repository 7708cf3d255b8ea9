package price

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchPricesRegularMarketPrice(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"AAPL","currency":"USD","regularMarketPrice":189.123456,"chartPreviousClose":180}}],"error":null}}`))
	}))
	defer server.Close()

	client := NewYahooClient(server.URL, 0, time.Millisecond)
	prices, err := client.FetchPrices(context.Background(), []string{" aapl "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v8/finance/chart/AAPL" {
		t.Errorf("path = %q, want /v8/finance/chart/AAPL", gotPath)
	}
	if prices["AAPL"] != 189.1235 {
		t.Errorf("AAPL = %v, want 189.1235", prices["AAPL"])
	}
}

func TestFetchPricesPreviousCloseFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"VTI","chartPreviousClose":250.5}}]}}`))
	}))
	defer server.Close()

	client := NewYahooClient(server.URL, 0, time.Millisecond)
	prices, err := client.FetchPrices(context.Background(), []string{"VTI"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prices["VTI"] != 250.5 {
		t.Errorf("VTI = %v, want 250.5", prices["VTI"])
	}
}

func TestFetchPricesShareClassSymbol(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"chart":{"result":[{"meta":{"regularMarketPrice":410}}]}}`))
	}))
	defer server.Close()

	client := NewYahooClient(server.URL, 0, time.Millisecond)
	prices, err := client.FetchPrices(context.Background(), []string{"BRK.B"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v8/finance/chart/BRK-B" {
		t.Errorf("path = %q, want /v8/finance/chart/BRK-B", gotPath)
	}
	if prices["BRK.B"] != 410 {
		t.Errorf("BRK.B = %v, want 410 keyed by the brokerage ticker", prices["BRK.B"])
	}
}

func TestFetchPricesUnknownTickerAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v8/finance/chart/MMDA1" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
			return
		}
		w.Write([]byte(`{"chart":{"result":[{"meta":{"regularMarketPrice":100}}]}}`))
	}))
	defer server.Close()

	client := NewYahooClient(server.URL, 0, time.Millisecond)
	prices, err := client.FetchPrices(context.Background(), []string{"MMDA1", "VOO"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := prices["MMDA1"]; ok {
		t.Error("MMDA1 should be absent")
	}
	if prices["VOO"] != 100 {
		t.Errorf("VOO = %v, want 100", prices["VOO"])
	}
}

func TestFetchPricesEmptyResultAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[]}}`))
	}))
	defer server.Close()

	client := NewYahooClient(server.URL, 0, time.Millisecond)
	prices, err := client.FetchPrices(context.Background(), []string{"XYZ"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prices) != 0 {
		t.Errorf("prices = %v, want empty", prices)
	}
}

func TestFetchPricesRetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"chart":{"result":[{"meta":{"regularMarketPrice":42}}]}}`))
	}))
	defer server.Close()

	client := NewYahooClient(server.URL, 2, time.Millisecond)
	prices, err := client.FetchPrices(context.Background(), []string{"QQQ"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prices["QQQ"] != 42 {
		t.Errorf("QQQ = %v, want 42", prices["QQQ"])
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestFetchPricesRateLimitExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewYahooClient(server.URL, 1, time.Millisecond)
	if _, err := client.FetchPrices(context.Background(), []string{"QQQ"}); err == nil {
		t.Fatal("expected error after retries exhausted")
	}
}

func TestFetchPricesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := NewYahooClient(server.URL, 0, time.Millisecond)
	if _, err := client.FetchPrices(context.Background(), []string{"QQQ"}); err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestFetchPricesSkipsFailedTicker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/BAD") {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Bad Request"}}}`))
			return
		}
		w.Write([]byte(`{"chart":{"result":[{"meta":{"regularMarketPrice":50}}]}}`))
	}))
	defer server.Close()

	client := NewYahooClient(server.URL, 0, time.Millisecond)
	prices, err := client.FetchPrices(context.Background(), []string{"VTI", "BAD", "VXUS"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prices) != 2 || prices["VTI"] != 50 || prices["VXUS"] != 50 {
		t.Errorf("prices = %v, want VTI and VXUS", prices)
	}
	if _, ok := prices["BAD"]; ok {
		t.Error("BAD should be absent")
	}
}

func TestFetchPricesCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"meta":{"regularMarketPrice":50}}]}}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewYahooClient(server.URL, 0, time.Millisecond)
	if _, err := client.FetchPrices(ctx, []string{"VTI"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestFetchPricesUsesCache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"chart":{"result":[{"meta":{"regularMarketPrice":10}}]}}`))
	}))
	defer server.Close()

	client := NewYahooClient(server.URL, 0, time.Millisecond)
	for range 3 {
		if _, err := client.FetchPrices(context.Background(), []string{"SPY", "spy"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}
