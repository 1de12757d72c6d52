package scheduler

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"

	"tradercopilot/internal/catalog"
)

// Scanner markers. A persona whose token list is one of these (or is empty)
// scans the whole supported catalog instead of a fixed watchlist.
var scannerMarkers = map[string]bool{
	"ALL":     true,
	"SCANNER": true,
	"*":       true,
}

func decodeStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

// ResolveTokens turns a persona's stored token list into the concrete,
// deduplicated set of symbols to scan this tick. Unknown symbols are dropped
// silently; a list that is empty or contains a scanner marker expands to the
// scan universe, which is scoped by the owner's plan. Ownerless personas
// (empty plan) scan the full catalog.
func ResolveTokens(raw datatypes.JSON, plan string) []string {
	universe := catalog.FullTokens
	if strings.TrimSpace(plan) != "" {
		universe = catalog.ForPlan(plan)
	}

	listed := decodeStrings(raw)
	if len(listed) == 0 {
		return universe
	}

	out := make([]string, 0, len(listed))
	seen := map[string]bool{}
	for _, item := range listed {
		token := strings.ToUpper(strings.TrimSpace(item))
		if token == "" {
			continue
		}
		if scannerMarkers[token] {
			return universe
		}
		if !catalog.Supported(token) || seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
	}
	if len(out) == 0 {
		return universe
	}
	return out
}

// ResolveTimeframe picks the persona's primary timeframe.
func ResolveTimeframe(raw datatypes.JSON) string {
	for _, item := range decodeStrings(raw) {
		tf := strings.TrimSpace(item)
		if tf != "" {
			return tf
		}
	}
	return "1h"
}
