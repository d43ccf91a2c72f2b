package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"attendance-qr-backend/internal/metrics"
	"attendance-qr-backend/internal/token"
)

type generateQRRequest struct {
	Date                    string `json:"date" binding:"required"`
	Action                  string `json:"type" binding:"required"`
	RoundingIntervalMinutes int    `json:"roundingIntervalMinutes"`
	CreatedBy               string `json:"createdBy"`
}

// GenerateQR handles POST /api/events/{event_id}/qr. It returns the payload
// the organizer's display should encode right now, plus how long until the
// next rotation so the device can schedule its refresh.
func (h *Handler) GenerateQR(c *gin.Context) {
	var req generateQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action := token.Action(req.Action)
	if !action.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be check-in or check-out"})
		return
	}

	eventID := c.Param("event_id")
	s, err := h.seeds.GetOrCreate(c.Request.Context(), eventID, req.Date, req.CreatedBy, req.RoundingIntervalMinutes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	nowMs := time.Now().UnixMilli()
	tok := token.Derive(eventID, req.Date, action, s.Seed, nowMs)
	payload, err := token.Encode(eventID, req.Date, action, tok, nowMs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	metrics.PayloadsGeneratedTotal.WithLabelValues(string(action)).Inc()

	slot := token.Slot(nowMs)
	rotatesInMs := (slot+1)*token.SlotMillis - nowMs
	c.JSON(http.StatusOK, gin.H{
		"payload":          json.RawMessage(payload),
		"slot":             slot,
		"rotatesInSeconds": float64(rotatesInMs) / 1000,
	})
}
