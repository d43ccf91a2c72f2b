package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"attendance-qr-backend/internal/model"
)

// Store defines the persistence operations of the attendance core.
type Store interface {
	DB() *gorm.DB

	GetSeed(ctx context.Context, eventID, date string) (*model.Seed, error)
	CreateSeed(ctx context.Context, seed *model.Seed) error

	GetWorkRecord(ctx context.Context, workerID, eventID, date string) (*model.WorkRecord, error)

	IsTokenUsed(ctx context.Context, token string) (bool, error)
	MarkTokenUsed(ctx context.Context, rec model.UsedToken) error

	ApplyCheckIn(ctx context.Context, a CheckInApply) error
	ApplyCheckOut(ctx context.Context, a CheckOutApply) error

	RecordScan(ctx context.Context, entry model.ScanLog) error
	DeleteExpired(ctx context.Context, now time.Time) (ReapStats, error)
}

// CheckInApply is the commit payload for a check-in scan. The used-token
// insert and the guarded status update are applied in one transaction.
type CheckInApply struct {
	RecordID    uint64
	ActualStart time.Time
	UsedToken   model.UsedToken
}

// CheckOutApply is the commit payload for a check-out scan. SetOriginalEnd
// carries the pre-rounding scheduled end exactly once, on the record's
// first checkout.
type CheckOutApply struct {
	RecordID       uint64
	ActualEnd      time.Time
	RoundedEnd     time.Time
	SetOriginalEnd *time.Time
	UsedToken      model.UsedToken
}

// ReapStats reports what a reaper cycle removed.
type ReapStats struct {
	UsedTokens int64
	Seeds      int64
}

// gormStore implements Store using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) GetSeed(ctx context.Context, eventID, date string) (*model.Seed, error) {
	var seed model.Seed
	err := s.db.WithContext(ctx).
		Where("event_id = ? AND date = ?", eventID, date).
		First(&seed).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get seed %s/%s: %w", eventID, date, err)
	}
	return &seed, nil
}

// CreateSeed inserts the seed, losing gracefully to a concurrent creator:
// the conflicting insert affects zero rows and ErrSeedExists is returned so
// the caller can fetch the winner's seed instead.
func (s *gormStore) CreateSeed(ctx context.Context, seed *model.Seed) error {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(seed)
	if res.Error != nil {
		return fmt.Errorf("create seed %s/%s: %w", seed.EventID, seed.Date, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSeedExists
	}
	return nil
}

func (s *gormStore) GetWorkRecord(ctx context.Context, workerID, eventID, date string) (*model.WorkRecord, error) {
	var rec model.WorkRecord
	err := s.db.WithContext(ctx).
		Where("worker_id = ? AND event_id = ? AND date = ?", workerID, eventID, date).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get work record %s/%s/%s: %w", workerID, eventID, date, err)
	}
	return &rec, nil
}

func (s *gormStore) IsTokenUsed(ctx context.Context, token string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.UsedToken{}).
		Where("token = ?", token).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check used token: %w", err)
	}
	return count > 0, nil
}

// MarkTokenUsed claims a token outside of a scan transaction. The primary
// key on token makes the insert a single-winner operation.
func (s *gormStore) MarkTokenUsed(ctx context.Context, rec model.UsedToken) error {
	return insertUsedToken(s.db.WithContext(ctx), rec)
}

func insertUsedToken(tx *gorm.DB, rec model.UsedToken) error {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return fmt.Errorf("insert used token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTokenAlreadyUsed
	}
	return nil
}

// ApplyCheckIn commits a check-in: the used-token insert and the
// status-guarded record update either both happen or neither does. The
// unique insert is the arbiter between concurrent scans of the same token;
// the status precondition catches a record that moved on in the meantime.
func (s *gormStore) ApplyCheckIn(ctx context.Context, a CheckInApply) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertUsedToken(tx, a.UsedToken); err != nil {
			return err
		}

		res := tx.Model(&model.WorkRecord{}).
			Where("id = ? AND status = ?", a.RecordID, model.StatusScheduled).
			Updates(map[string]any{
				"actual_start_time": a.ActualStart,
				"status":            model.StatusCheckedIn,
			})
		if res.Error != nil {
			return fmt.Errorf("apply check-in to record %d: %w", a.RecordID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrStateConflict
		}
		return nil
	})
}

// ApplyCheckOut commits a check-out under the status = checked_in guard.
// scheduled_end_time moves to the rounded boundary; the original scheduled
// end is written only when SetOriginalEnd is non-nil, and the extra
// IS NULL guard keeps it first-write-wins even then.
func (s *gormStore) ApplyCheckOut(ctx context.Context, a CheckOutApply) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertUsedToken(tx, a.UsedToken); err != nil {
			return err
		}

		res := tx.Model(&model.WorkRecord{}).
			Where("id = ? AND status = ?", a.RecordID, model.StatusCheckedIn).
			Updates(map[string]any{
				"actual_end_time":    a.ActualEnd,
				"scheduled_end_time": a.RoundedEnd,
				"status":             model.StatusCheckedOut,
			})
		if res.Error != nil {
			return fmt.Errorf("apply check-out to record %d: %w", a.RecordID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrStateConflict
		}

		if a.SetOriginalEnd != nil {
			err := tx.Model(&model.WorkRecord{}).
				Where("id = ? AND original_scheduled_end_time IS NULL", a.RecordID).
				Update("original_scheduled_end_time", *a.SetOriginalEnd).Error
			if err != nil {
				return fmt.Errorf("preserve original scheduled end for record %d: %w", a.RecordID, err)
			}
		}
		return nil
	})
}

func (s *gormStore) RecordScan(ctx context.Context, entry model.ScanLog) error {
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("record scan: %w", err)
	}
	return nil
}

// DeleteExpired purges used tokens and seeds past their expiry. Purging is
// housekeeping only: validity already expired via the time-window check, so
// a delayed reaper never changes an accept/reject decision.
func (s *gormStore) DeleteExpired(ctx context.Context, now time.Time) (ReapStats, error) {
	var stats ReapStats

	res := s.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&model.UsedToken{})
	if res.Error != nil {
		return stats, fmt.Errorf("delete expired used tokens: %w", res.Error)
	}
	stats.UsedTokens = res.RowsAffected

	res = s.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&model.Seed{})
	if res.Error != nil {
		return stats, fmt.Errorf("delete expired seeds: %w", res.Error)
	}
	stats.Seeds = res.RowsAffected

	return stats, nil
}
