package models

import (
	"time"

	"gorm.io/datatypes"
)

// Admin lifecycle statuses.
const (
	StatusPending         = "pending"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusMosqueDeleted   = "mosque_deleted"
	StatusAdminRemoved    = "admin_removed"
	StatusCodeRegenerated = "code_regenerated"
)

// ActiveStatuses are the statuses in which an admin occupies a mosque slot.
var ActiveStatuses = []string{StatusPending, StatusApproved}

// Admin represents a mosque admin applicant account. MosqueID stays set
// while pending, approved or code_regenerated; terminal statuses clear the
// binding and keep a snapshot in StatusDetail instead. Only pending and
// approved occupy the mosque's slot.
type Admin struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name     string `gorm:"type:text;not null"`             // Applicant full name.
	Email    string `gorm:"type:text;not null;uniqueIndex"` // Unique login email.
	Phone    string `gorm:"type:text;not null;uniqueIndex"` // Unique phone number.
	Password string `gorm:"type:text;not null"`             // Bcrypt password hash.

	Status string `gorm:"type:text;not null;default:'pending';index"` // Lifecycle status.

	MosqueID             *uint64 `gorm:"index"`      // Bound mosque while pending/approved.
	Mosque               *Mosque `gorm:"foreignKey:MosqueID"`
	VerificationCodeUsed *string `gorm:"type:text"` // Code presented at the current binding.

	RejectionCount int  `gorm:"not null;default:0"`     // Total rejections, never reset.
	CanReapply     bool `gorm:"not null;default:false"` // Gate for re-entering pending.

	StatusDetail   datatypes.JSON `gorm:"type:jsonb"` // Per-status detail payload.
	BindingHistory datatypes.JSON `gorm:"type:jsonb"` // Past bindings that ended in rejection.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// IsActive reports whether the admin currently occupies a mosque slot.
func (a *Admin) IsActive() bool {
	return a.Status == StatusPending || a.Status == StatusApproved
}
