// Package reaper removes expired rows in the background. Expiry is already
// enforced at read time by the validation window and the seed day boundary,
// so the reaper is purely about keeping the tables small.
package reaper

import (
	"context"
	"log"
	"time"

	"attendance-qr-backend/internal/metrics"
	"attendance-qr-backend/internal/store"
)

// Service periodically purges expired used tokens and seeds.
type Service struct {
	store    store.Store
	interval time.Duration
}

// NewService creates a reaper running every interval.
func NewService(s store.Store, interval time.Duration) *Service {
	return &Service{store: s, interval: interval}
}

// Run starts the cleanup loop and blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	log.Println("Starting reaper service...")

	s.ReapOnce(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Reaper service shutting down.")
			return
		case <-timer.C:
			s.ReapOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

// ReapOnce performs a single cleanup cycle.
func (s *Service) ReapOnce(ctx context.Context) {
	stats, err := s.store.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("Error purging expired entries: %v", err)
		return
	}

	metrics.ReapedEntriesTotal.WithLabelValues("used_token").Add(float64(stats.UsedTokens))
	metrics.ReapedEntriesTotal.WithLabelValues("seed").Add(float64(stats.Seeds))

	if stats.UsedTokens > 0 || stats.Seeds > 0 {
		log.Printf("Reap cycle removed %d used tokens and %d seeds", stats.UsedTokens, stats.Seeds)
	}
}
