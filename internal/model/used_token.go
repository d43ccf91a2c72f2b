package model

import "time"

// UsedToken records a consumed QR token. The primary key on Token is the
// replay-prevention mechanism: the second insert of the same token fails,
// so exactly one concurrent scan wins.
type UsedToken struct {
	Token      string    `gorm:"primaryKey;size:16"`
	EventID    string    `gorm:"size:128;not null"`
	Date       string    `gorm:"size:10;not null"`
	Action     string    `gorm:"size:16;not null"`
	ConsumerID string    `gorm:"size:128;not null"`
	UsedAt     time.Time `gorm:"not null"`
	ExpiresAt  time.Time `gorm:"not null;index"`
}
