// Package attendance orchestrates scan processing against the work-record
// state machine. Every failure is a distinct named error so the API layer
// can choose the right status code and message, and telemetry can count
// rejection kinds without parsing strings.
package attendance

import "errors"

var (
	// ErrWrongAction: a check-out payload was presented to the check-in
	// operation or vice versa. Terminal business-rule violation.
	ErrWrongAction = errors.New("payload action does not match the requested operation")

	// ErrSeedNotFound: no seed was initialized for the event day. Upstream
	// setup is missing; the worker should contact the organizer.
	ErrSeedNotFound = errors.New("no QR seed initialized for this event and date")

	// ErrInvalidToken: the token matches no slot in the validation window.
	// A fresh QR (next rotation) will validate; resubmitting this payload
	// will not.
	ErrInvalidToken = errors.New("token is invalid or expired")

	// ErrTokenAlreadyUsed: replay detected. Terminal for this token.
	ErrTokenAlreadyUsed = errors.New("token has already been used")

	// ErrWorkRecordNotFound: the worker has no attendance record for the
	// event day, meaning they were never staffed for it.
	ErrWorkRecordNotFound = errors.New("no work record for this worker, event and date")

	// ErrAlreadyProcessed: the record has already passed the requested
	// transition (already checked in, or already checked out).
	ErrAlreadyProcessed = errors.New("attendance already processed")

	// ErrNotCheckedIn: check-out requires a prior check-in.
	ErrNotCheckedIn = errors.New("check-in required before check-out")

	// ErrScanCooldown: a successful scan for the same worker, event day and
	// action happened moments ago; re-scans are throttled.
	ErrScanCooldown = errors.New("scan cooldown active")
)

// Kind maps an error to a stable label used in scan logs and metrics.
// Unknown errors are labeled transient: every expected rejection has a
// sentinel, so whatever is left is infrastructure trouble.
func Kind(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrWrongAction):
		return "wrong_action"
	case errors.Is(err, ErrSeedNotFound):
		return "seed_not_found"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrTokenAlreadyUsed):
		return "token_already_used"
	case errors.Is(err, ErrWorkRecordNotFound):
		return "work_record_not_found"
	case errors.Is(err, ErrAlreadyProcessed):
		return "already_processed"
	case errors.Is(err, ErrNotCheckedIn):
		return "not_checked_in"
	case errors.Is(err, ErrScanCooldown):
		return "cooldown"
	default:
		return "transient"
	}
}
