// Package store persists seeds, used tokens, work records and scan logs.
// The sentinel errors below let higher layers distinguish failure scenarios
// without string matching: a unique-insert loss is a different outcome than
// a missing row, and the attendance processor maps each to its own
// user-facing error.
package store

import "errors"

// ErrNotFound is returned when a requested seed or work record does not
// exist. For seeds this means the day was never initialized; for work
// records it means the worker was never staffed for that event day.
var ErrNotFound = errors.New("record not found")

// ErrSeedExists is returned by CreateSeed when another caller already
// created the seed for the same (event, date). The loser re-reads the
// winner's row.
var ErrSeedExists = errors.New("seed already exists")

// ErrTokenAlreadyUsed is returned when the used-token unique insert loses:
// the token was consumed before, or concurrently by another scanner. This
// is the replay-prevention signal.
var ErrTokenAlreadyUsed = errors.New("token already used")

// ErrStateConflict is returned when a guarded work-record update matches no
// row because the status precondition failed, meaning the record moved on
// between the caller's read and the write.
var ErrStateConflict = errors.New("work record state conflict")
