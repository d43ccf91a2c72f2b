// Package events defines the messages published after successful scans.
package events

import "time"

// ScanRecordedEvent is published when a check-in or check-out commits. It
// carries enough for downstream consumers (payroll, analytics, dashboards)
// to act without querying the primary database.
type ScanRecordedEvent struct {
	WorkRecordID     uint64     `json:"work_record_id"`
	WorkerID         string     `json:"worker_id"`
	EventID          string     `json:"event_id"`
	Date             string     `json:"date"`
	Action           string     `json:"action"`
	ActualTime       time.Time  `json:"actual_time"`
	AdjustedSchedEnd *time.Time `json:"adjusted_scheduled_end,omitempty"`
	RecordedAt       time.Time  `json:"recorded_at"`
}
