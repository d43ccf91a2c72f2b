package seed

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"attendance-qr-backend/internal/model"
	"attendance-qr-backend/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.Seed{}))
	return store.NewGormStore(db)
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	m := NewManager(newTestStore(t), time.UTC)
	ctx := context.Background()

	first, err := m.GetOrCreate(ctx, "E1", "2025-01-16", "employer-1", 30)
	require.NoError(t, err)
	assert.Len(t, first.Seed, 64, "32 random bytes hex-encoded")
	assert.Equal(t, 30, first.RoundingIntervalMinutes)
	assert.Equal(t, "employer-1", first.CreatedBy)

	second, err := m.GetOrCreate(ctx, "E1", "2025-01-16", "employer-2", 15)
	require.NoError(t, err)
	assert.Equal(t, first.Seed, second.Seed, "later callers reuse the day's seed")
	assert.Equal(t, 30, second.RoundingIntervalMinutes, "the first creator fixes the rounding interval")
}

func TestGetOrCreateDistinctPerDayAndEvent(t *testing.T) {
	m := NewManager(newTestStore(t), time.UTC)
	ctx := context.Background()

	a, err := m.GetOrCreate(ctx, "E1", "2025-01-16", "employer-1", 30)
	require.NoError(t, err)
	b, err := m.GetOrCreate(ctx, "E1", "2025-01-17", "employer-1", 30)
	require.NoError(t, err)
	c, err := m.GetOrCreate(ctx, "E2", "2025-01-16", "employer-1", 30)
	require.NoError(t, err)

	assert.NotEqual(t, a.Seed, b.Seed)
	assert.NotEqual(t, a.Seed, c.Seed)
}

func TestGetOrCreateExpiryIsNextLocalMidnight(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	m := NewManager(newTestStore(t), loc)

	seed, err := m.GetOrCreate(context.Background(), "E1", "2025-01-16", "employer-1", 15)
	require.NoError(t, err)

	want := time.Date(2025, 1, 17, 0, 0, 0, 0, loc)
	assert.True(t, seed.ExpiresAt.Equal(want), "expected %v, got %v", want, seed.ExpiresAt)
}

func TestGetOrCreateRejectsBadDate(t *testing.T) {
	m := NewManager(newTestStore(t), time.UTC)

	_, err := m.GetOrCreate(context.Background(), "E1", "16/01/2025", "employer-1", 30)
	assert.Error(t, err)
}

func TestGetOrCreateInvalidIntervalFallsBack(t *testing.T) {
	m := NewManager(newTestStore(t), time.UTC)

	seed, err := m.GetOrCreate(context.Background(), "E1", "2025-01-16", "employer-1", 45)
	require.NoError(t, err)
	assert.Equal(t, 30, seed.RoundingIntervalMinutes)
}

func TestGetDoesNotCreate(t *testing.T) {
	s := newTestStore(t)
	m := NewManager(s, time.UTC)
	ctx := context.Background()

	_, err := m.Get(ctx, "E1", "2025-01-16")
	assert.ErrorIs(t, err, ErrNotFound)

	// The read must not have created anything.
	_, err = s.GetSeed(ctx, "E1", "2025-01-16")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetServesCachedSeed(t *testing.T) {
	s := newTestStore(t)
	m := NewManager(s, time.UTC)
	ctx := context.Background()

	// A future date keeps the cache entry alive for the duration of the test.
	date := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	created, err := m.GetOrCreate(ctx, "E1", date, "employer-1", 30)
	require.NoError(t, err)

	// Remove the row behind the cache's back; a cached read still works.
	require.NoError(t, s.DB().Where("event_id = ?", "E1").Delete(&model.Seed{}).Error)

	got, err := m.Get(ctx, "E1", date)
	require.NoError(t, err)
	assert.Equal(t, created.Seed, got.Seed)
}
