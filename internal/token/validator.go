package token

import (
	"crypto/subtle"
	"errors"
)

// DefaultWindowMinutes is the backward tolerance for validation. The
// generator rotates every 60s; two extra slots absorb scan latency and
// modest clock skew without extending forgery exposure forward in time.
const DefaultWindowMinutes = 2

// ErrNoMatch is returned when a token matches no slot inside the window.
var ErrNoMatch = errors.New("token matches no slot in validation window")

// Validate recomputes the expected token for every slot in
// [currentSlot-windowMinutes, currentSlot] and compares in constant time.
// It returns the matched slot index. The search is backward-only: a token
// from a generator clock that is ahead of the scanner is rejected.
//
// Validate is pure and idempotent; it never persists anything.
func Validate(tok, eventID, date string, action Action, seed string, scanTimestampMs int64, windowMinutes int) (int64, error) {
	if windowMinutes < 0 {
		windowMinutes = DefaultWindowMinutes
	}
	current := Slot(scanTimestampMs)
	for slot := current - int64(windowMinutes); slot <= current; slot++ {
		expected := Derive(eventID, date, action, seed, slot*SlotMillis)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(tok)) == 1 {
			return slot, nil
		}
	}
	return 0, ErrNoMatch
}
