package models

import "time"

// Mosque represents a registered facility with one admin slot and one
// rotating verification code.
type Mosque struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name     string `gorm:"type:text;not null"` // Display name.
	Location string `gorm:"type:text"`          // Free-text address or area.

	ContactEmail string `gorm:"type:text"` // Contact email shown to applicants.
	ContactPhone string `gorm:"type:text"` // Contact phone shown to applicants.
	Description  string `gorm:"type:text"` // Optional description.

	VerificationCode          string    `gorm:"type:text;not null;uniqueIndex"` // Current shared-secret code.
	VerificationCodeExpiresAt time.Time `gorm:"not null"`                       // Code valid while now < expires.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// CodeValidAt reports whether the current code is still within its window.
func (m *Mosque) CodeValidAt(now time.Time) bool {
	return now.Before(m.VerificationCodeExpiresAt)
}
