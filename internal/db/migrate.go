package db

import (
	"fmt"

	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema for all persisted record types.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errAuto := conn.AutoMigrate(
		&models.Mosque{},
		&models.Admin{},
		&models.AuditLog{},
		&models.SuperAdmin{},
		&models.Setting{},
	); errAuto != nil {
		return fmt.Errorf("db: automigrate: %w", errAuto)
	}
	return ensureActiveAdminIndex(conn)
}

// ensureActiveAdminIndex creates the partial unique index guaranteeing at
// most one pending/approved admin per mosque. The lifecycle engine checks
// this rule inside its transactions; the index is the storage-layer backstop
// that makes the check race-proof.
func ensureActiveAdminIndex(conn *gorm.DB) error {
	const stmt = `
		CREATE UNIQUE INDEX IF NOT EXISTS uq_admins_active_mosque
		ON admins (mosque_id)
		WHERE mosque_id IS NOT NULL AND status IN ('pending', 'approved')
	`
	if errExec := conn.Exec(stmt).Error; errExec != nil {
		return fmt.Errorf("db: create active admin index: %w", errExec)
	}
	return nil
}
