package strategy

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// RSIReversal emits a long when RSI leaves the oversold zone and a short when
// it leaves the overbought zone.
type RSIReversal struct {
	Market CandleSource
	Logger *zap.Logger

	Period     int
	Oversold   float64
	Overbought float64
}

func (s *RSIReversal) Name() string { return "rsi_reversal" }

func (s *RSIReversal) GenerateSignals(ctx context.Context, tokens []string, timeframe string) ([]Candidate, error) {
	if s == nil || s.Market == nil {
		return nil, nil
	}
	period := s.Period
	if period <= 0 {
		period = 14
	}
	oversold := s.Oversold
	if oversold <= 0 {
		oversold = 30
	}
	overbought := s.Overbought
	if overbought <= 0 {
		overbought = 70
	}

	var out []Candidate
	for _, token := range tokens {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		candles, err := s.Market.GetCandles(ctx, token, timeframe, period*3)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Debug("rsi candles fetch failed", zap.String("token", token), zap.Error(err))
			}
			continue
		}
		if len(candles) < period+2 {
			continue
		}

		px := closes(candles)
		cur := rsi(px, period)
		prev := rsi(px[:len(px)-1], period)

		direction := ""
		switch {
		case prev < oversold && cur >= oversold:
			direction = DirectionLong
		case prev > overbought && cur <= overbought:
			direction = DirectionShort
		default:
			continue
		}

		last := candles[len(candles)-1]
		tp, sl := bracket(candles, last.Close, direction, period)
		out = append(out, Candidate{
			Token:      token,
			Timeframe:  timeframe,
			Direction:  direction,
			Entry:      last.Close,
			TakeProfit: tp,
			StopLoss:   sl,
			Confidence: 0.55,
			Rationale:  fmt.Sprintf("RSI%d reversal from %.1f", period, prev),
			StrategyID: s.Name(),
			Source:     s.Name(),
			Timestamp:  last.OpenTime,
		})
	}
	return out, nil
}

// rsi computes a simple-average RSI over the trailing period.
func rsi(values []float64, period int) float64 {
	if len(values) < period+1 {
		return 50
	}
	window := values[len(values)-period-1:]
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	if losses == 0 {
		if gains == 0 {
			return 50
		}
		return 100
	}
	rs := gains / losses
	return 100 - 100/(1+rs)
}
