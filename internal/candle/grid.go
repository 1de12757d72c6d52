// Package candle maps wall-clock timestamps onto the candle grid of a
// timeframe.
package candle

import (
	"regexp"
	"strconv"
	"time"
)

var timeframeRe = regexp.MustCompile(`^(\d+)([mhd])$`)

// SnapToGrid floors ts to the start of its owning bucket for timeframes of
// the form <N>m, <N>h or <N>d. An unrecognized timeframe returns the input
// with seconds zeroed: a deliberate permissive fallback so an exotic
// timeframe degrades to per-minute identity instead of failing the pipeline.
// SnapToGrid is idempotent.
func SnapToGrid(ts time.Time, timeframe string) time.Time {
	ts = ts.Truncate(time.Minute)

	m := timeframeRe.FindStringSubmatch(timeframe)
	if m == nil {
		return ts
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return ts
	}

	year, month, day := ts.Date()
	hour, minute := ts.Hour(), ts.Minute()

	switch m[2] {
	case "m":
		minute = (minute / n) * n
	case "h":
		hour = (hour / n) * n
		minute = 0
	case "d":
		hour = 0
		minute = 0
	}
	return time.Date(year, month, day, hour, minute, 0, 0, ts.Location())
}

// ParseTimeframe returns the bucket width of a timeframe string, or false for
// unrecognized input.
func ParseTimeframe(timeframe string) (time.Duration, bool) {
	m := timeframeRe.FindStringSubmatch(timeframe)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	switch m[2] {
	case "m":
		return time.Duration(n) * time.Minute, true
	case "h":
		return time.Duration(n) * time.Hour, true
	case "d":
		return time.Duration(n) * 24 * time.Hour, true
	}
	return 0, false
}
