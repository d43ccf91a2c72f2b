package attendance

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"attendance-qr-backend/internal/token"
)

// DefaultCooldown throttles repeat scans per (worker, event, date, action).
// It only arms after a successful scan; failed attempts stay retryable.
const DefaultCooldown = 5 * time.Minute

// Cooldown is an in-memory re-scan throttle. It complements the replay
// guard: the guard burns individual tokens, the cooldown stops a worker
// from immediately consuming the next rotation too.
type Cooldown struct {
	entries *cache.Cache
	ttl     time.Duration
}

// NewCooldown creates a cooldown table with the given TTL; zero or
// negative means the default.
func NewCooldown(ttl time.Duration) *Cooldown {
	if ttl <= 0 {
		ttl = DefaultCooldown
	}
	return &Cooldown{
		entries: cache.New(ttl, 2*ttl),
		ttl:     ttl,
	}
}

func cooldownKey(workerID, eventID, date string, action token.Action) string {
	return fmt.Sprintf("%s|%s|%s|%s", workerID, eventID, date, action)
}

// Remaining reports whether the cooldown is active and how long is left.
func (c *Cooldown) Remaining(workerID, eventID, date string, action token.Action) (time.Duration, bool) {
	_, expiry, found := c.entries.GetWithExpiration(cooldownKey(workerID, eventID, date, action))
	if !found {
		return 0, false
	}
	return time.Until(expiry), true
}

// Arm starts the cooldown after a successful scan.
func (c *Cooldown) Arm(workerID, eventID, date string, action token.Action) {
	c.entries.Set(cooldownKey(workerID, eventID, date, action), struct{}{}, c.ttl)
}

// CooldownError carries the remaining wait so the API can tell the worker
// when the next scan is allowed. It matches ErrScanCooldown under errors.Is.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("scan cooldown active for another %s", e.Remaining.Round(time.Second))
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrScanCooldown
}
