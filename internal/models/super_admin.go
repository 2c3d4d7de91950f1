package models

import "time"

// SuperAdmin represents the privileged operator account that registers
// mosques and adjudicates applications.
type SuperAdmin struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:text;not null;uniqueIndex"` // Unique login name.
	Password string `gorm:"type:text;not null"`             // Bcrypt password hash.

	TOTPSecret string `gorm:"type:text"` // TOTP secret when MFA is enabled.

	Active bool `gorm:"not null;default:true"` // Whether the account can sign in.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
