package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is an append-only record of one lifecycle transition. Rows are
// never updated or deleted.
type AuditLog struct {
	ID string `gorm:"type:text;primaryKey"` // UUID assigned by the recorder.

	Kind  string `gorm:"type:text;not null;index"` // Transition kind, e.g. "reject".
	Actor string `gorm:"type:text;not null;index"` // Who triggered it, e.g. "superadmin:1".

	AdminID  *uint64 `gorm:"index"` // Affected admin, when any.
	MosqueID *uint64 `gorm:"index"` // Affected mosque, when any.

	Before datatypes.JSON `gorm:"type:jsonb"` // Subject snapshot before the transition.
	After  datatypes.JSON `gorm:"type:jsonb"` // Subject snapshot after the transition.

	Reason string `gorm:"type:text"` // Free-text reason, when supplied.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Entry timestamp.
}
