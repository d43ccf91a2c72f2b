package model

import "time"

// Work record status values. Transitions are linear:
// scheduled -> checked_in -> checked_out.
const (
	StatusScheduled  = "scheduled"
	StatusCheckedIn  = "checked_in"
	StatusCheckedOut = "checked_out"
)

// WorkRecord is one worker's attendance record for one event day. Rows are
// created by the staffing flow before any scan happens; this service only
// mutates the status and time fields.
type WorkRecord struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	WorkerID string `gorm:"size:128;not null;uniqueIndex:idx_work_records_worker_event_date" json:"workerId"`
	EventID  string `gorm:"size:128;not null;uniqueIndex:idx_work_records_worker_event_date" json:"eventId"`
	Date     string `gorm:"size:10;not null;uniqueIndex:idx_work_records_worker_event_date" json:"date"`
	Status   string `gorm:"size:16;not null" json:"status"`

	ScheduledStartTime time.Time  `gorm:"not null" json:"scheduledStartTime"`
	ScheduledEndTime   time.Time  `gorm:"not null" json:"scheduledEndTime"`
	ActualStartTime    *time.Time `json:"actualStartTime,omitempty"`
	ActualEndTime      *time.Time `json:"actualEndTime,omitempty"`

	// OriginalScheduledEndTime keeps the pre-rounding scheduled end. It is
	// set on the first successful checkout and never overwritten, so the
	// original plan stays available for disputes.
	OriginalScheduledEndTime *time.Time `json:"originalScheduledEndTime,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
