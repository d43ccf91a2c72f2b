package model

import "time"

// Seed is the per-(event, date) HMAC key material for QR token derivation.
// Exactly one row exists per pair; creation is fetch-or-create and the row
// is immutable afterwards.
type Seed struct {
	EventID                 string    `gorm:"primaryKey;size:128" json:"eventId"`
	Date                    string    `gorm:"primaryKey;size:10" json:"date"`
	Seed                    string    `gorm:"size:64;not null" json:"-"`
	RoundingIntervalMinutes int       `gorm:"not null" json:"roundingIntervalMinutes"`
	CreatedAt               time.Time `gorm:"not null" json:"createdAt"`
	CreatedBy               string    `gorm:"size:128" json:"createdBy"`
	ExpiresAt               time.Time `gorm:"not null;index" json:"expiresAt"`
}
