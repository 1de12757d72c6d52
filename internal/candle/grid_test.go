package candle

import (
	"testing"
	"time"
)

func ts(hour, min, sec int) time.Time {
	return time.Date(2025, 1, 1, hour, min, sec, 123456, time.UTC)
}

func TestSnapToGrid(t *testing.T) {
	tests := []struct {
		name      string
		in        time.Time
		timeframe string
		want      time.Time
	}{
		{"1h mid-hour", ts(14, 23, 45), "1h", time.Date(2025, 1, 1, 14, 0, 0, 0, time.UTC)},
		{"1h end of hour", ts(14, 59, 59), "1h", time.Date(2025, 1, 1, 14, 0, 0, 0, time.UTC)},
		{"15m", ts(14, 23, 45), "15m", time.Date(2025, 1, 1, 14, 15, 0, 0, time.UTC)},
		{"5m", ts(14, 23, 45), "5m", time.Date(2025, 1, 1, 14, 20, 0, 0, time.UTC)},
		{"4h", ts(14, 23, 45), "4h", time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)},
		{"1d", ts(14, 23, 45), "1d", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"30m exact boundary", ts(14, 30, 0), "30m", time.Date(2025, 1, 1, 14, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := SnapToGrid(tt.in, tt.timeframe); !got.Equal(tt.want) {
			t.Fatalf("%s: SnapToGrid(%v, %q) = %v, want %v", tt.name, tt.in, tt.timeframe, got, tt.want)
		}
	}
}

func TestSnapToGridIdempotent(t *testing.T) {
	for _, tf := range []string{"5m", "15m", "1h", "4h", "1d"} {
		once := SnapToGrid(ts(14, 23, 45), tf)
		twice := SnapToGrid(once, tf)
		if !once.Equal(twice) {
			t.Fatalf("%s: re-snapping moved %v to %v", tf, once, twice)
		}
	}
}

func TestSnapToGridUnknownTimeframe(t *testing.T) {
	in := ts(14, 23, 45)
	want := time.Date(2025, 1, 1, 14, 23, 0, 0, time.UTC)
	for _, tf := range []string{"", "1w", "h1", "bogus"} {
		if got := SnapToGrid(in, tf); !got.Equal(want) {
			t.Fatalf("SnapToGrid(%v, %q) = %v, want minute-truncated input %v", in, tf, got, want)
		}
	}
}

func TestSnapToGridUnknownTimeframeSameMinuteCollapses(t *testing.T) {
	// Two events in the same minute must land in one bucket even when the
	// timeframe is unrecognized, or deduplication silently weakens.
	early := SnapToGrid(ts(14, 23, 5), "7x")
	late := SnapToGrid(ts(14, 23, 45), "7x")
	if !early.Equal(late) {
		t.Fatalf("same-minute inputs diverged: %v vs %v", early, late)
	}
	if want := time.Date(2025, 1, 1, 14, 23, 0, 0, time.UTC); !early.Equal(want) {
		t.Fatalf("fallback bucket = %v, want %v", early, want)
	}
}

func TestParseTimeframe(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"5m", 5 * time.Minute, true},
		{"1h", time.Hour, true},
		{"4h", 4 * time.Hour, true},
		{"1d", 24 * time.Hour, true},
		{"1w", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseTimeframe(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("ParseTimeframe(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
