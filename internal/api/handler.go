package api

import (
	"attendance-qr-backend/internal/attendance"
	"attendance-qr-backend/internal/seed"
	"attendance-qr-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store store.Store
	seeds *seed.Manager
	proc  *attendance.Processor
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, seeds *seed.Manager, proc *attendance.Processor) *Handler {
	return &Handler{
		store: s,
		seeds: seeds,
		proc:  proc,
	}
}
