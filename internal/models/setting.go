package models

import "time"

// Setting stores one runtime-tunable configuration value. Value is the raw
// JSON encoding kept in a text column; SQLite would coerce a bare number in
// a jsonb-typed column to INTEGER and break scanning it back.
type Setting struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Key   string `gorm:"type:text;not null;uniqueIndex"` // Config key.
	Value string `gorm:"type:text;not null"`             // JSON-encoded value.

	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
