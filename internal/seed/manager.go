// Package seed issues and serves the per-(event, date) HMAC key material.
package seed

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/patrickmn/go-cache"

	"attendance-qr-backend/internal/metrics"
	"attendance-qr-backend/internal/model"
	"attendance-qr-backend/internal/rounding"
	"attendance-qr-backend/internal/store"
)

// seedBytes is the raw entropy per seed; 32 bytes hex-encoded.
const seedBytes = 32

// ErrNotFound is returned by Get when no seed exists for the day. Scanners
// must never create a seed as a side effect, so this surfaces to the user
// as "ask the organizer to start the day".
var ErrNotFound = errors.New("seed not found")

// Manager wraps the seed store with fetch-or-create semantics and a
// read-through cache. Seeds are immutable for their day, which makes them
// safe to cache until expiry.
type Manager struct {
	store store.Store
	cache *cache.Cache
	loc   *time.Location
}

// NewManager creates a seed manager resolving day boundaries in loc.
func NewManager(s store.Store, loc *time.Location) *Manager {
	if loc == nil {
		loc = time.UTC
	}
	return &Manager{
		store: s,
		cache: cache.New(10*time.Minute, 30*time.Minute),
		loc:   loc,
	}
}

func cacheKey(eventID, date string) string {
	return eventID + "|" + date
}

// GetOrCreate returns the day's seed, creating it on first call. The first
// creator fixes roundingInterval for the whole day; later callers get the
// stored value regardless of what they ask for. Two concurrent first
// callers converge on a single row: the insert loser re-reads the winner.
func (m *Manager) GetOrCreate(ctx context.Context, eventID, date, createdBy string, roundingInterval int) (*model.Seed, error) {
	if existing, err := m.Get(ctx, eventID, date); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if !rounding.ValidInterval(roundingInterval) {
		roundingInterval = rounding.DefaultIntervalMinutes
	}

	expiresAt, err := m.nextMidnightAfter(date)
	if err != nil {
		return nil, err
	}
	secret, err := newSecret()
	if err != nil {
		return nil, err
	}

	seed := &model.Seed{
		EventID:                 eventID,
		Date:                    date,
		Seed:                    secret,
		RoundingIntervalMinutes: roundingInterval,
		CreatedAt:               time.Now().UTC(),
		CreatedBy:               createdBy,
		ExpiresAt:               expiresAt,
	}

	switch err := m.store.CreateSeed(ctx, seed); {
	case err == nil:
		metrics.SeedsCreatedTotal.Inc()
		log.Printf("created QR seed for event %s on %s (rounding %dm)", eventID, date, roundingInterval)
	case errors.Is(err, store.ErrSeedExists):
		// Lost the race: discard our material and return the winner's.
		return m.Get(ctx, eventID, date)
	default:
		return nil, err
	}

	m.remember(seed)
	return seed, nil
}

// Get is the read-only lookup used on the scanner path.
func (m *Manager) Get(ctx context.Context, eventID, date string) (*model.Seed, error) {
	if v, found := m.cache.Get(cacheKey(eventID, date)); found {
		return v.(*model.Seed), nil
	}

	seed, err := m.store.GetSeed(ctx, eventID, date)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	m.remember(seed)
	return seed, nil
}

func (m *Manager) remember(seed *model.Seed) {
	ttl := time.Until(seed.ExpiresAt)
	if ttl <= 0 {
		return
	}
	m.cache.Set(cacheKey(seed.EventID, seed.Date), seed, ttl)
}

// nextMidnightAfter resolves 00:00 of the day after date in the manager's
// location, which is when the seed stops being valid.
func (m *Manager) nextMidnightAfter(date string) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, m.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid seed date %q: %w", date, err)
	}
	return day.AddDate(0, 0, 1), nil
}

func newSecret() (string, error) {
	buf := make([]byte, seedBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate seed material: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
