package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// SchemaVersion is the only payload version this service understands.
const SchemaVersion = "1.0"

// SlotMillis is the token rotation period: tokens change every 60 seconds.
const SlotMillis = 60_000

// TokenLength is the token size in hex characters (64 bits of HMAC output).
const TokenLength = 16

// Action distinguishes check-in from check-out payloads.
type Action string

const (
	ActionCheckIn  Action = "check-in"
	ActionCheckOut Action = "check-out"
)

// Valid reports whether a is one of the two known actions.
func (a Action) Valid() bool {
	return a == ActionCheckIn || a == ActionCheckOut
}

// Decode failure kinds. All are wrapped with detail; match with errors.Is.
var (
	ErrMalformedPayload   = errors.New("malformed payload")
	ErrMissingField       = errors.New("missing payload field")
	ErrUnknownAction      = errors.New("unknown action type")
	ErrUnsupportedVersion = errors.New("unsupported payload version")
)

var tokenRe = regexp.MustCompile(`^[0-9a-f]{16}$`)

// Payload is the QR wire payload. It is ephemeral and never persisted as a
// unit; the token inside it is what gets consumed.
type Payload struct {
	EventID   string `json:"eventId"`
	Date      string `json:"date"`
	Action    Action `json:"type"`
	Token     string `json:"token"`
	Timestamp int64  `json:"timestamp"`
	Version   string `json:"version"`
}

// Slot returns the 60-second bucket index for a millisecond timestamp.
func Slot(timestampMs int64) int64 {
	return timestampMs / SlotMillis
}

// Derive computes the rotating token for the given inputs. It is a pure
// function: the same (eventID, date, action, seed, time slot) always yields
// the same token, so the scanner can recompute it without a round-trip.
func Derive(eventID, date string, action Action, seed string, timestampMs int64) string {
	msg := fmt.Sprintf("%s:%s:%s:%d", eventID, date, action, Slot(timestampMs))
	mac := hmac.New(sha256.New, []byte(seed))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))[:TokenLength]
}

// Encode serializes a payload for QR display, stamping the schema version.
func Encode(eventID, date string, action Action, tok string, timestampMs int64) ([]byte, error) {
	p := Payload{
		EventID:   eventID,
		Date:      date,
		Action:    action,
		Token:     tok,
		Timestamp: timestampMs,
		Version:   SchemaVersion,
	}
	return json.Marshal(p)
}

// Decode parses and validates a scanned payload. Malformed input never
// panics; every rejection is a typed error so the caller can tell a garbled
// scan from a stale app version.
func Decode(data []byte) (Payload, error) {
	var raw struct {
		EventID   *string `json:"eventId"`
		Date      *string `json:"date"`
		Action    *string `json:"type"`
		Token     *string `json:"token"`
		Timestamp *int64  `json:"timestamp"`
		Version   *string `json:"version"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	switch {
	case raw.EventID == nil || *raw.EventID == "":
		return Payload{}, fmt.Errorf("%w: eventId", ErrMissingField)
	case raw.Date == nil || *raw.Date == "":
		return Payload{}, fmt.Errorf("%w: date", ErrMissingField)
	case raw.Action == nil:
		return Payload{}, fmt.Errorf("%w: type", ErrMissingField)
	case raw.Token == nil || *raw.Token == "":
		return Payload{}, fmt.Errorf("%w: token", ErrMissingField)
	case raw.Timestamp == nil:
		return Payload{}, fmt.Errorf("%w: timestamp", ErrMissingField)
	case raw.Version == nil:
		return Payload{}, fmt.Errorf("%w: version", ErrMissingField)
	}

	if *raw.Version != SchemaVersion {
		return Payload{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, *raw.Version)
	}
	action := Action(*raw.Action)
	if !action.Valid() {
		return Payload{}, fmt.Errorf("%w: %q", ErrUnknownAction, *raw.Action)
	}
	if _, err := time.Parse("2006-01-02", *raw.Date); err != nil {
		return Payload{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrMalformedPayload, *raw.Date)
	}
	if !tokenRe.MatchString(*raw.Token) {
		return Payload{}, fmt.Errorf("%w: token is not %d lowercase hex chars", ErrMalformedPayload, TokenLength)
	}

	return Payload{
		EventID:   *raw.EventID,
		Date:      *raw.Date,
		Action:    action,
		Token:     *raw.Token,
		Timestamp: *raw.Timestamp,
		Version:   *raw.Version,
	}, nil
}
