// Package pipeline filters candidate signals and persists survivors exactly
// once under a deterministic idempotency key.
package pipeline

import (
	"strconv"
	"strings"
	"time"
)

// SystemUser is the key-builder sentinel for signals not owned by any user.
const SystemUser = "system"

// IdempotencyKey joins the identity fields of a signal into the string the
// storage layer's unique constraint enforces. Two candidates representing the
// same real-world signal must produce byte-identical keys; that contract is
// the pipeline's entire correctness guarantee.
//
// Direction is part of the key on purpose: a long and a short in the same
// candle are distinct records (hedging is allowed). The user id is included
// so the same market signal can be recorded independently per subscriber.
// The timestamp must already be candle-grid aligned.
func IdempotencyKey(strategyID, token, timeframe string, normalizedTS time.Time, direction string, userID *uint64, mode string) string {
	user := SystemUser
	if userID != nil {
		user = strconv.FormatUint(*userID, 10)
	}
	return strings.Join([]string{
		strategyID,
		strings.ToUpper(token),
		timeframe,
		normalizedTS.UTC().Format(time.RFC3339),
		strings.ToLower(direction),
		user,
		mode,
	}, "|")
}
