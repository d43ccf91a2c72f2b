package model

import "time"

// ScanLog is the audit trail of scan attempts, accepted or rejected.
// Writes are best-effort and never block the scan result.
type ScanLog struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	WorkerID  string    `gorm:"size:128;not null;index"`
	EventID   string    `gorm:"size:128;not null;index"`
	Date      string    `gorm:"size:10;not null"`
	Action    string    `gorm:"size:16;not null"`
	Token     string    `gorm:"size:16"`
	Outcome   string    `gorm:"size:32;not null"`
	ScannedAt time.Time `gorm:"not null"`
}
