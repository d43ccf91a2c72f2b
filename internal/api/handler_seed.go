package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"attendance-qr-backend/internal/seed"
)

type issueSeedRequest struct {
	Date                    string `json:"date" binding:"required"`
	RoundingIntervalMinutes int    `json:"roundingIntervalMinutes"`
	CreatedBy               string `json:"createdBy"`
}

// IssueSeed handles POST /api/events/{event_id}/seed. It is idempotent for
// a given day: repeat calls return the existing seed's metadata, and the
// first caller's rounding interval wins.
func (h *Handler) IssueSeed(c *gin.Context) {
	var req issueSeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.seeds.GetOrCreate(c.Request.Context(), c.Param("event_id"), req.Date, req.CreatedBy, req.RoundingIntervalMinutes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, seedInfoResponse(s.EventID, s.Date, s.RoundingIntervalMinutes, s.CreatedAt, s.ExpiresAt))
}

// GetSeedInfo handles GET /api/events/{event_id}/seed?date=YYYY-MM-DD. It is
// a read-only lookup: scanners checking whether the day is open must never
// create a seed as a side effect.
func (h *Handler) GetSeedInfo(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}

	s, err := h.seeds.Get(c.Request.Context(), c.Param("event_id"), date)
	if errors.Is(err, seed.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no seed for this event and date"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, seedInfoResponse(s.EventID, s.Date, s.RoundingIntervalMinutes, s.CreatedAt, s.ExpiresAt))
}

// seedInfoResponse shapes seed metadata for clients. The secret never
// leaves the server; only derived tokens do.
func seedInfoResponse(eventID, date string, roundingMinutes int, createdAt, expiresAt time.Time) gin.H {
	return gin.H{
		"eventId":                 eventID,
		"date":                    date,
		"roundingIntervalMinutes": roundingMinutes,
		"createdAt":               createdAt,
		"expiresAt":               expiresAt,
	}
}

// Healthz reports process liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
