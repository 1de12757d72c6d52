package strategy

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DonchianBreakout emits a long when the last close breaks above the highest
// high of the preceding channel, and a short below the lowest low.
type DonchianBreakout struct {
	Market CandleSource
	Logger *zap.Logger

	ChannelPeriod int
}

func (s *DonchianBreakout) Name() string { return "donchian_breakout" }

func (s *DonchianBreakout) GenerateSignals(ctx context.Context, tokens []string, timeframe string) ([]Candidate, error) {
	if s == nil || s.Market == nil {
		return nil, nil
	}
	period := s.ChannelPeriod
	if period <= 0 {
		period = 20
	}

	var out []Candidate
	for _, token := range tokens {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		candles, err := s.Market.GetCandles(ctx, token, timeframe, period+1)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Debug("donchian candles fetch failed", zap.String("token", token), zap.Error(err))
			}
			continue
		}
		if len(candles) < period+1 {
			continue
		}

		last := candles[len(candles)-1]
		channel := candles[len(candles)-1-period : len(candles)-1]
		hi, lo := channel[0].High, channel[0].Low
		for _, c := range channel[1:] {
			if c.High.GreaterThan(hi) {
				hi = c.High
			}
			if c.Low.LessThan(lo) {
				lo = c.Low
			}
		}

		direction := ""
		switch {
		case last.Close.GreaterThan(hi):
			direction = DirectionLong
		case last.Close.LessThan(lo):
			direction = DirectionShort
		default:
			continue
		}

		tp, sl := bracket(candles, last.Close, direction, period/2)
		out = append(out, Candidate{
			Token:      token,
			Timeframe:  timeframe,
			Direction:  direction,
			Entry:      last.Close,
			TakeProfit: tp,
			StopLoss:   sl,
			Confidence: 0.65,
			Rationale:  fmt.Sprintf("close broke %d-candle channel %s", period, crossWord(direction)),
			StrategyID: s.Name(),
			Source:     s.Name(),
			Timestamp:  last.OpenTime,
		})
	}
	return out, nil
}
