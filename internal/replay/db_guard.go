package replay

import (
	"context"
	"errors"

	"attendance-qr-backend/internal/model"
	"attendance-qr-backend/internal/store"
)

// dbGuard backs the guard with the used-token table. This is the same
// table the scan transaction inserts into, so IsUsed reads exactly what
// the arbiter decided.
type dbGuard struct {
	store store.Store
}

// NewDBGuard returns a guard over the relational used-token store.
func NewDBGuard(s store.Store) Guard {
	return &dbGuard{store: s}
}

func (g *dbGuard) IsUsed(ctx context.Context, token string) (bool, error) {
	return g.store.IsTokenUsed(ctx, token)
}

func (g *dbGuard) MarkUsed(ctx context.Context, rec model.UsedToken) error {
	err := g.store.MarkTokenUsed(ctx, rec)
	if errors.Is(err, store.ErrTokenAlreadyUsed) {
		return ErrAlreadyUsed
	}
	return err
}
