package pipeline

import (
	"testing"
	"time"
)

func TestIdempotencyKeyDeterminism(t *testing.T) {
	ts := time.Date(2025, 1, 1, 14, 0, 0, 0, time.UTC)
	uid := uint64(42)
	a := IdempotencyKey("trend_king_sol", "sol", "1h", ts, "LONG", &uid, "SCHEDULER")
	b := IdempotencyKey("trend_king_sol", "SOL", "1h", ts, "long", &uid, "SCHEDULER")
	if a != b {
		t.Fatalf("case-normalized inputs must collide: %q vs %q", a, b)
	}
	want := "trend_king_sol|SOL|1h|2025-01-01T14:00:00Z|long|42|SCHEDULER"
	if a != want {
		t.Fatalf("key = %q, want %q", a, want)
	}
}

func TestIdempotencyKeyDirectionIndependence(t *testing.T) {
	ts := time.Date(2025, 1, 1, 14, 0, 0, 0, time.UTC)
	long := IdempotencyKey("s", "BTC", "1h", ts, "long", nil, "SCHEDULER")
	short := IdempotencyKey("s", "BTC", "1h", ts, "short", nil, "SCHEDULER")
	if long == short {
		t.Fatalf("long and short in the same candle must not collide")
	}
}

func TestIdempotencyKeyUserScope(t *testing.T) {
	ts := time.Date(2025, 1, 1, 14, 0, 0, 0, time.UTC)
	uid := uint64(7)
	system := IdempotencyKey("s", "BTC", "1h", ts, "long", nil, "SCHEDULER")
	user := IdempotencyKey("s", "BTC", "1h", ts, "long", &uid, "SCHEDULER")
	if system == user {
		t.Fatalf("system-wide and per-user signals must not collide")
	}
	if got, want := system, "s|BTC|1h|2025-01-01T14:00:00Z|long|system|SCHEDULER"; got != want {
		t.Fatalf("system key = %q, want %q", got, want)
	}
}
