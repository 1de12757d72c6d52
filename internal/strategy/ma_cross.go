package strategy

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// MACross emits a long when the fast SMA crosses above the slow SMA on the
// last closed candle, and a short on the opposite cross.
type MACross struct {
	Market CandleSource
	Logger *zap.Logger

	FastPeriod int
	SlowPeriod int
}

func (s *MACross) Name() string { return "ma_cross" }

func (s *MACross) GenerateSignals(ctx context.Context, tokens []string, timeframe string) ([]Candidate, error) {
	if s == nil || s.Market == nil {
		return nil, nil
	}
	fast, slow := s.FastPeriod, s.SlowPeriod
	if fast <= 0 {
		fast = 9
	}
	if slow <= fast {
		slow = 21
	}

	var out []Candidate
	for _, token := range tokens {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		candles, err := s.Market.GetCandles(ctx, token, timeframe, slow+2)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Debug("ma_cross candles fetch failed", zap.String("token", token), zap.Error(err))
			}
			continue
		}
		if len(candles) < slow+2 {
			continue
		}

		px := closes(candles)
		curFast, curSlow := sma(px, fast), sma(px, slow)
		prevFast, prevSlow := sma(px[:len(px)-1], fast), sma(px[:len(px)-1], slow)

		direction := ""
		switch {
		case prevFast <= prevSlow && curFast > curSlow:
			direction = DirectionLong
		case prevFast >= prevSlow && curFast < curSlow:
			direction = DirectionShort
		default:
			continue
		}

		last := candles[len(candles)-1]
		tp, sl := bracket(candles, last.Close, direction, fast)
		out = append(out, Candidate{
			Token:      token,
			Timeframe:  timeframe,
			Direction:  direction,
			Entry:      last.Close,
			TakeProfit: tp,
			StopLoss:   sl,
			Confidence: 0.6,
			Rationale:  fmt.Sprintf("SMA%d crossed %s SMA%d", fast, crossWord(direction), slow),
			StrategyID: s.Name(),
			Source:     s.Name(),
			Timestamp:  last.OpenTime,
		})
	}
	return out, nil
}

func crossWord(direction string) string {
	if direction == DirectionShort {
		return "below"
	}
	return "above"
}
