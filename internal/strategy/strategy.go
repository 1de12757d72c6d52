// Package strategy holds the strategy catalog and the built-in evaluation
// functions. The scheduler treats each strategy as an opaque generator of
// candidate signals.
package strategy

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"tradercopilot/internal/market"
)

const (
	DirectionLong    = "long"
	DirectionShort   = "short"
	DirectionNeutral = "neutral"
)

// Candidate is an unpersisted trade recommendation produced by a strategy
// evaluation. The pipeline may overwrite Source and StrategyID to attribute
// the signal to the emitting persona before persistence.
type Candidate struct {
	Token      string
	Timeframe  string
	Direction  string
	Entry      decimal.Decimal
	TakeProfit decimal.Decimal
	StopLoss   decimal.Decimal
	Confidence float64
	Rationale  string
	StrategyID string
	Source     string
	Timestamp  time.Time
	UserID     *uint64
	Mode       string
	Saved      bool
}

// CandleSource is the market-data collaborator shared by the built-in
// strategies.
type CandleSource interface {
	GetCandles(ctx context.Context, token, timeframe string, limit int) ([]market.Candle, error)
}

// Strategy evaluates a token universe on one timeframe and returns candidate
// signals. Implementations must be side-effect-free with respect to scheduler
// state; they may perform network I/O internally.
type Strategy interface {
	Name() string
	GenerateSignals(ctx context.Context, tokens []string, timeframe string) ([]Candidate, error)
}

// closes extracts close prices as floats for indicator math. Prices stay
// decimal everywhere else.
func closes(candles []market.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close.InexactFloat64()
	}
	return out
}

func sma(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// bracket derives a stop under (over) the recent extreme and a target at
// twice the stop distance.
func bracket(candles []market.Candle, entry decimal.Decimal, direction string, lookback int) (tp, sl decimal.Decimal) {
	if len(candles) == 0 {
		return entry, entry
	}
	if lookback > len(candles) {
		lookback = len(candles)
	}
	window := candles[len(candles)-lookback:]
	low, high := window[0].Low, window[0].High
	for _, c := range window[1:] {
		if c.Low.LessThan(low) {
			low = c.Low
		}
		if c.High.GreaterThan(high) {
			high = c.High
		}
	}
	two := decimal.NewFromInt(2)
	if direction == DirectionShort {
		sl = high
		tp = entry.Sub(sl.Sub(entry).Mul(two))
		return tp, sl
	}
	sl = low
	tp = entry.Add(entry.Sub(sl).Mul(two))
	return tp, sl
}
