package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Fatalf("symbol = %q, want BTCUSDT", got)
		}
		if got := r.URL.Query().Get("interval"); got != "1h" {
			t.Fatalf("interval = %q, want 1h", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			[1735732800000,"95000.1","95500.0","94800.5","95200.0","123.4",1735736399999,"0",0,"0","0","0"],
			[1735736400000,"95200.0","96000.0","95100.0","95900.3","98.7",1735739999999,"0",0,"0","0","0"]
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	candles, err := c.GetCandles(context.Background(), "btc", "1h", 2)
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("got %d candles, want 2", len(candles))
	}
	if candles[0].Close.String() != "95200" {
		t.Fatalf("close = %s, want 95200", candles[0].Close.String())
	}
	if candles[1].High.String() != "96000" {
		t.Fatalf("high = %s, want 96000", candles[1].High.String())
	}
	if !candles[0].OpenTime.Before(candles[1].OpenTime) {
		t.Fatalf("candles not oldest-first")
	}
}

func TestGetCandlesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	if _, err := c.GetCandles(context.Background(), "BTC", "1h", 10); err == nil {
		t.Fatalf("expected error on http 418")
	}
}

func TestGetCandlesSkipsMalformedRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			[1735732800000,"bad","1","1","1","1"],
			[1735736400000,"2","3","1","2.5","10"]
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	candles, err := c.GetCandles(context.Background(), "ETH", "15m", 2)
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("got %d candles, want 1 (malformed row skipped)", len(candles))
	}
}
