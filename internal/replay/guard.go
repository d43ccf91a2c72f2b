// Package replay tracks consumed QR tokens. A token may be recorded at
// most once; the second attempt observes ErrAlreadyUsed. Entries carry a
// short TTL because the validation window already bounds a token's life —
// the guard only has to remember tokens slightly longer than they can
// possibly validate.
package replay

import (
	"context"
	"errors"
	"time"

	"attendance-qr-backend/internal/model"
)

// TTL is how long a consumed token stays recorded. It matches the
// validation window: once a token can no longer validate, remembering it
// serves no purpose.
const TTL = 2 * time.Minute

// ErrAlreadyUsed is returned by MarkUsed when the token was consumed
// before, or concurrently by another scanner.
var ErrAlreadyUsed = errors.New("token already consumed")

// Guard is the replay-prevention interface. MarkUsed must be atomic with
// respect to concurrent callers: exactly one wins.
type Guard interface {
	IsUsed(ctx context.Context, token string) (bool, error)
	MarkUsed(ctx context.Context, rec model.UsedToken) error
}

// NewUsedToken builds the consumption record for a token with the standard
// TTL applied.
func NewUsedToken(token, eventID, date, action, consumerID string, usedAt time.Time) model.UsedToken {
	return model.UsedToken{
		Token:      token,
		EventID:    eventID,
		Date:       date,
		Action:     action,
		ConsumerID: consumerID,
		UsedAt:     usedAt,
		ExpiresAt:  usedAt.Add(TTL),
	}
}
