package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"attendance-qr-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router. cacheTTL bounds how
// stale the cached seed metadata responses may get.
func NewRouter(h *Handler, rateLimitPerSec float64, cacheTTL time.Duration) *gin.Engine {
	r := gin.Default()

	if rateLimitPerSec <= 0 {
		rateLimitPerSec = 10
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Second
	}

	rateLimiter := mw.RateLimiter(rate.Limit(rateLimitPerSec), 5)

	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Organizer side.
		api.POST("/events/:event_id/seed", h.IssueSeed)
		api.GET("/events/:event_id/seed", caching, h.GetSeedInfo)
		api.POST("/events/:event_id/qr", h.GenerateQR)

		// Scanner side. Never cached: every scan is a state transition.
		api.POST("/scans/check-in", h.ScanCheckIn)
		api.POST("/scans/check-out", h.ScanCheckOut)

		api.GET("/workers/:worker_id/events/:event_id/record", h.GetWorkRecord)
	}

	return r
}
