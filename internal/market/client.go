// Package market fetches OHLCV candles from the exchange REST API. The
// scheduler treats strategies as opaque; this client is their shared
// market-data collaborator.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Candle struct {
	OpenTime time.Time
	Open     decimal.Decimal
	High     decimal.Decimal
	Low      decimal.Decimal
	Close    decimal.Decimal
	Volume   decimal.Decimal
}

type Client struct {
	HTTP    *http.Client
	BaseURL string
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.binance.com"
	}
	return &Client{HTTP: httpClient, BaseURL: strings.TrimRight(baseURL, "/")}
}

// GetCandles returns up to limit candles for token/timeframe, oldest first.
// Tokens are quoted against USDT.
func (c *Client) GetCandles(ctx context.Context, token, timeframe string, limit int) ([]Candle, error) {
	if c == nil || c.HTTP == nil {
		return nil, fmt.Errorf("market client not configured")
	}
	if limit <= 0 {
		limit = 100
	}
	symbol := strings.ToUpper(strings.TrimSpace(token)) + "USDT"

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", timeframe)
	q.Set("limit", strconv.Itoa(limit))
	endpoint := c.BaseURL + "/api/v3/klines?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("klines %s: http %d", symbol, resp.StatusCode)
	}

	// Kline rows are positional arrays: openTime, open, high, low, close,
	// volume, closeTime, ...
	var rows [][]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, err
	}

	candles := make([]Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		var openMs int64
		if err := json.Unmarshal(row[0], &openMs); err != nil {
			continue
		}
		open, err1 := decField(row[1])
		high, err2 := decField(row[2])
		low, err3 := decField(row[3])
		closePx, err4 := decField(row[4])
		volume, err5 := decField(row[5])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}
		candles = append(candles, Candle{
			OpenTime: time.UnixMilli(openMs).UTC(),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    closePx,
			Volume:   volume,
		})
	}
	return candles, nil
}

func decField(raw json.RawMessage) (decimal.Decimal, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(s)
}
