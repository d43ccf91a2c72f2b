package attendance

import (
	"context"
	"errors"
	"log"
	"time"

	"attendance-qr-backend/internal/events"
	"attendance-qr-backend/internal/metrics"
	"attendance-qr-backend/internal/model"
	"attendance-qr-backend/internal/replay"
	"attendance-qr-backend/internal/rounding"
	"attendance-qr-backend/internal/seed"
	"attendance-qr-backend/internal/store"
	"attendance-qr-backend/internal/token"
)

// Result is the outcome of an accepted scan.
type Result struct {
	WorkRecordID uint64
	Action       token.Action
	ActualTime   time.Time
	// AdjustedScheduledEnd is set on check-out only: the scheduled end
	// rounded up to the day's configured boundary.
	AdjustedScheduledEnd *time.Time
	// MatchedSlot is the 60-second slot the token validated against.
	MatchedSlot int64
}

// Processor runs the scan pipeline: decode has already happened at the
// transport layer; from here it is seed lookup, token validation, replay
// screening, the state-machine transition and the transactional commit.
type Processor struct {
	store     store.Store
	seeds     *seed.Manager
	guard     replay.Guard
	publisher events.Publisher
	cooldown  *Cooldown
	window    int
}

// NewProcessor wires the scan pipeline. publisher and cooldown may be nil
// to disable event publishing and re-scan throttling.
func NewProcessor(s store.Store, seeds *seed.Manager, guard replay.Guard, publisher events.Publisher, cooldown *Cooldown, windowMinutes int) *Processor {
	if windowMinutes <= 0 {
		windowMinutes = token.DefaultWindowMinutes
	}
	return &Processor{
		store:     s,
		seeds:     seeds,
		guard:     guard,
		publisher: publisher,
		cooldown:  cooldown,
		window:    windowMinutes,
	}
}

// HandleCheckIn processes a check-in scan for workerID at scannedAt.
func (p *Processor) HandleCheckIn(ctx context.Context, payload token.Payload, workerID string, scannedAt time.Time) (*Result, error) {
	return p.handle(ctx, payload, workerID, scannedAt, token.ActionCheckIn)
}

// HandleCheckOut processes a check-out scan for workerID at scannedAt.
func (p *Processor) HandleCheckOut(ctx context.Context, payload token.Payload, workerID string, scannedAt time.Time) (*Result, error) {
	return p.handle(ctx, payload, workerID, scannedAt, token.ActionCheckOut)
}

func (p *Processor) handle(ctx context.Context, payload token.Payload, workerID string, scannedAt time.Time, want token.Action) (*Result, error) {
	started := time.Now()
	metrics.ScanAttemptsTotal.WithLabelValues(string(want)).Inc()

	res, err := p.process(ctx, payload, workerID, scannedAt, want)

	p.logScan(ctx, payload, workerID, scannedAt, err)
	metrics.ScanProcessingDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.ScanRejectedTotal.WithLabelValues(string(want), Kind(err)).Inc()
		return nil, err
	}
	metrics.ScanAcceptedTotal.WithLabelValues(string(want)).Inc()
	return res, nil
}

func (p *Processor) process(ctx context.Context, payload token.Payload, workerID string, scannedAt time.Time, want token.Action) (*Result, error) {
	if payload.Action != want {
		return nil, ErrWrongAction
	}

	daySeed, err := p.seeds.Get(ctx, payload.EventID, payload.Date)
	if errors.Is(err, seed.ErrNotFound) {
		return nil, ErrSeedNotFound
	}
	if err != nil {
		return nil, err
	}

	matchedSlot, err := token.Validate(
		payload.Token, payload.EventID, payload.Date, want,
		daySeed.Seed, scannedAt.UnixMilli(), p.window,
	)
	if errors.Is(err, token.ErrNoMatch) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	// Fast screen before touching the work record. The transactional
	// insert below is the authority; a guard outage only costs the fast
	// path, never correctness.
	if used, err := p.guard.IsUsed(ctx, payload.Token); err != nil {
		log.Printf("replay guard lookup degraded for token %s: %v", payload.Token, err)
	} else if used {
		return nil, ErrTokenAlreadyUsed
	}

	// After the replay screen, so that re-presenting a consumed token is
	// reported as replay, not as a cooldown.
	if p.cooldown != nil {
		if remaining, active := p.cooldown.Remaining(workerID, payload.EventID, payload.Date, want); active {
			return nil, &CooldownError{Remaining: remaining}
		}
	}

	rec, err := p.store.GetWorkRecord(ctx, workerID, payload.EventID, payload.Date)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrWorkRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	usedToken := replay.NewUsedToken(
		payload.Token, payload.EventID, payload.Date,
		string(want), workerID, scannedAt,
	)

	var result *Result
	switch want {
	case token.ActionCheckIn:
		result, err = p.commitCheckIn(ctx, rec, usedToken, scannedAt)
	case token.ActionCheckOut:
		result, err = p.commitCheckOut(ctx, rec, daySeed, usedToken, scannedAt)
	}
	if err != nil {
		return nil, err
	}
	result.MatchedSlot = matchedSlot

	p.afterCommit(ctx, rec, usedToken, result)
	return result, nil
}

func (p *Processor) commitCheckIn(ctx context.Context, rec *model.WorkRecord, usedToken model.UsedToken, scannedAt time.Time) (*Result, error) {
	if rec.Status != model.StatusScheduled {
		return nil, ErrAlreadyProcessed
	}

	err := p.store.ApplyCheckIn(ctx, store.CheckInApply{
		RecordID:    rec.ID,
		ActualStart: scannedAt,
		UsedToken:   usedToken,
	})
	if err != nil {
		return nil, p.mapCommitErr(err)
	}

	log.Printf("check-in recorded: worker %s, event %s, date %s", rec.WorkerID, rec.EventID, rec.Date)
	return &Result{
		WorkRecordID: rec.ID,
		Action:       token.ActionCheckIn,
		ActualTime:   scannedAt,
	}, nil
}

func (p *Processor) commitCheckOut(ctx context.Context, rec *model.WorkRecord, daySeed *model.Seed, usedToken model.UsedToken, scannedAt time.Time) (*Result, error) {
	switch rec.Status {
	case model.StatusScheduled:
		return nil, ErrNotCheckedIn
	case model.StatusCheckedOut:
		return nil, ErrAlreadyProcessed
	}

	roundedEnd := rounding.RoundUp(scannedAt, daySeed.RoundingIntervalMinutes)

	apply := store.CheckOutApply{
		RecordID:   rec.ID,
		ActualEnd:  scannedAt,
		RoundedEnd: roundedEnd,
		UsedToken:  usedToken,
	}
	if rec.OriginalScheduledEndTime == nil {
		// Preserve the pre-rounding plan exactly once for audit.
		original := rec.ScheduledEndTime
		apply.SetOriginalEnd = &original
	}

	if err := p.store.ApplyCheckOut(ctx, apply); err != nil {
		return nil, p.mapCommitErr(err)
	}

	log.Printf("check-out recorded: worker %s, event %s, date %s, scheduled end rounded to %s",
		rec.WorkerID, rec.EventID, rec.Date, roundedEnd.Format(time.RFC3339))
	return &Result{
		WorkRecordID:         rec.ID,
		Action:               token.ActionCheckOut,
		ActualTime:           scannedAt,
		AdjustedScheduledEnd: &roundedEnd,
	}, nil
}

// mapCommitErr translates store-level commit failures. A state conflict at
// commit time means a concurrent scan advanced the record between our read
// and the guarded update.
func (p *Processor) mapCommitErr(err error) error {
	switch {
	case errors.Is(err, store.ErrTokenAlreadyUsed):
		return ErrTokenAlreadyUsed
	case errors.Is(err, store.ErrStateConflict):
		return ErrAlreadyProcessed
	default:
		return err
	}
}

// afterCommit runs the best-effort tail of an accepted scan: mirror the
// token into the guard (a no-op conflict for the database guard, a SETNX
// for the Redis pre-filter), arm the cooldown, publish the event.
func (p *Processor) afterCommit(ctx context.Context, rec *model.WorkRecord, usedToken model.UsedToken, result *Result) {
	if err := p.guard.MarkUsed(ctx, usedToken); err != nil && !errors.Is(err, replay.ErrAlreadyUsed) {
		log.Printf("replay guard mirror failed for token %s: %v", usedToken.Token, err)
	}

	if p.cooldown != nil {
		p.cooldown.Arm(rec.WorkerID, rec.EventID, rec.Date, result.Action)
	}

	if p.publisher != nil {
		ev := events.ScanRecordedEvent{
			WorkRecordID:     rec.ID,
			WorkerID:         rec.WorkerID,
			EventID:          rec.EventID,
			Date:             rec.Date,
			Action:           string(result.Action),
			ActualTime:       result.ActualTime,
			AdjustedSchedEnd: result.AdjustedScheduledEnd,
			RecordedAt:       time.Now().UTC(),
		}
		if err := p.publisher.PublishScanRecorded(ctx, ev); err != nil {
			log.Printf("scan event publish failed for record %d: %v", rec.ID, err)
		}
	}
}

// logScan appends the attempt to the audit trail, best-effort.
func (p *Processor) logScan(ctx context.Context, payload token.Payload, workerID string, scannedAt time.Time, outcome error) {
	entry := model.ScanLog{
		WorkerID:  workerID,
		EventID:   payload.EventID,
		Date:      payload.Date,
		Action:    string(payload.Action),
		Token:     payload.Token,
		Outcome:   Kind(outcome),
		ScannedAt: scannedAt,
	}
	if err := p.store.RecordScan(ctx, entry); err != nil {
		log.Printf("scan log write failed: %v", err)
	}
}
