package db

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	"gorm.io/gorm"
)

func TestMigrateSQLiteCreatesTables(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	for _, table := range []string{"mosques", "admins", "audit_logs", "super_admins", "settings"} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
	for _, column := range []string{"status", "mosque_id", "verification_code_used", "rejection_count", "can_reapply", "status_detail", "binding_history"} {
		if !conn.Migrator().HasColumn(&models.Admin{}, column) {
			t.Fatalf("admins missing column %s", column)
		}
	}
}

func TestMigrateActiveAdminIndexRejectsSecondActiveBinding(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	mosqueID := uint64(7)
	first := models.Admin{
		Name: "A", Email: "a@example.com", Phone: "+100", Password: "x",
		Status: models.StatusApproved, MosqueID: &mosqueID,
	}
	if errCreate := conn.Create(&first).Error; errCreate != nil {
		t.Fatalf("create first admin: %v", errCreate)
	}

	second := models.Admin{
		Name: "B", Email: "b@example.com", Phone: "+200", Password: "x",
		Status: models.StatusPending, MosqueID: &mosqueID,
	}
	if errCreate := conn.Create(&second).Error; errCreate == nil {
		t.Fatal("expected unique violation for second active binding")
	}

	// A non-active status may keep historical rows against the same mosque.
	third := models.Admin{
		Name: "C", Email: "c@example.com", Phone: "+300", Password: "x",
		Status: models.StatusRejected,
	}
	if errCreate := conn.Create(&third).Error; errCreate != nil {
		t.Fatalf("create rejected admin: %v", errCreate)
	}
}
