package api

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"attendance-qr-backend/internal/attendance"
	"attendance-qr-backend/internal/store"
	"attendance-qr-backend/internal/token"
)

type scanRequest struct {
	WorkerID string `json:"workerId" binding:"required"`
	// Payload is the raw string read from the QR code.
	Payload string `json:"payload" binding:"required"`
}

// ScanCheckIn handles POST /api/scans/check-in.
func (h *Handler) ScanCheckIn(c *gin.Context) {
	h.scan(c, token.ActionCheckIn)
}

// ScanCheckOut handles POST /api/scans/check-out.
func (h *Handler) ScanCheckOut(c *gin.Context) {
	h.scan(c, token.ActionCheckOut)
}

func (h *Handler) scan(c *gin.Context, action token.Action) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload, err := token.Decode([]byte(req.Payload))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	var res *attendance.Result
	switch action {
	case token.ActionCheckIn:
		res, err = h.proc.HandleCheckIn(c.Request.Context(), payload, req.WorkerID, now)
	case token.ActionCheckOut:
		res, err = h.proc.HandleCheckOut(c.Request.Context(), payload, req.WorkerID, now)
	}
	if err != nil {
		writeScanError(c, err)
		return
	}

	resp := gin.H{
		"workRecordId": res.WorkRecordID,
		"action":       string(res.Action),
		"actualTime":   res.ActualTime,
	}
	if res.AdjustedScheduledEnd != nil {
		resp["adjustedScheduledEndTime"] = *res.AdjustedScheduledEnd
	}
	c.JSON(http.StatusOK, resp)
}

// writeScanError maps pipeline errors to HTTP statuses. Conflicts (replay,
// out-of-order transitions) are 409 so clients can distinguish "this already
// happened" from "this was never valid".
func writeScanError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, attendance.ErrWrongAction),
		errors.Is(err, attendance.ErrInvalidToken):
		status = http.StatusBadRequest
	case errors.Is(err, attendance.ErrSeedNotFound),
		errors.Is(err, attendance.ErrWorkRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, attendance.ErrTokenAlreadyUsed),
		errors.Is(err, attendance.ErrAlreadyProcessed),
		errors.Is(err, attendance.ErrNotCheckedIn):
		status = http.StatusConflict
	case errors.Is(err, attendance.ErrScanCooldown):
		body := gin.H{"error": err.Error()}
		var cdErr *attendance.CooldownError
		if errors.As(err, &cdErr) {
			body["retryAfterSeconds"] = int(math.Ceil(cdErr.Remaining.Seconds()))
		}
		c.JSON(http.StatusTooManyRequests, body)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// GetWorkRecord handles
// GET /api/workers/{worker_id}/events/{event_id}/record?date=YYYY-MM-DD.
func (h *Handler) GetWorkRecord(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}

	rec, err := h.store.GetWorkRecord(c.Request.Context(), c.Param("worker_id"), c.Param("event_id"), date)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "work record not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rec)
}
