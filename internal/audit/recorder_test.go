package audit

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	"gorm.io/gorm"
)

func setupAuditDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(&models.AuditLog{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func TestRecordReturnsIDAndPersists(t *testing.T) {
	conn := setupAuditDB(t)
	rec := NewRecorder(conn)

	adminID := uint64(3)
	id := rec.Record(context.Background(), Entry{
		Kind:    "reject",
		Actor:   "superadmin:1",
		AdminID: &adminID,
		Before:  map[string]any{"status": "pending"},
		After:   map[string]any{"status": "rejected"},
		Reason:  "incomplete documentation",
	})
	if id == "" {
		t.Fatal("expected non-empty entry id")
	}

	var row models.AuditLog
	if errFind := conn.First(&row, "id = ?", id).Error; errFind != nil {
		t.Fatalf("find entry: %v", errFind)
	}
	if row.Kind != "reject" || row.Actor != "superadmin:1" {
		t.Fatalf("unexpected row %+v", row)
	}
	if row.AdminID == nil || *row.AdminID != 3 {
		t.Fatalf("admin id not persisted: %+v", row.AdminID)
	}
}

func TestRecordSwallowsPersistenceFailure(t *testing.T) {
	conn := setupAuditDB(t)
	if errDrop := conn.Migrator().DropTable(&models.AuditLog{}); errDrop != nil {
		t.Fatalf("drop table: %v", errDrop)
	}
	rec := NewRecorder(conn)

	if id := rec.Record(context.Background(), Entry{Kind: "apply", Actor: "x"}); id != "" {
		t.Fatalf("expected empty id on failure, got %q", id)
	}
}

func TestListFilters(t *testing.T) {
	conn := setupAuditDB(t)
	rec := NewRecorder(conn)
	ctx := context.Background()

	mosqueA, mosqueB := uint64(1), uint64(2)
	rec.Record(ctx, Entry{Kind: "apply", Actor: "applicant:a@x", MosqueID: &mosqueA})
	rec.Record(ctx, Entry{Kind: "approve", Actor: "superadmin:1", MosqueID: &mosqueA})
	rec.Record(ctx, Entry{Kind: "apply", Actor: "applicant:b@x", MosqueID: &mosqueB})

	rows, total, errList := rec.List(ctx, Filter{MosqueID: &mosqueA})
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("mosque filter: total=%d rows=%d, want 2/2", total, len(rows))
	}

	rows, total, errList = rec.List(ctx, Filter{Kind: "apply"})
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if total != 2 {
		t.Fatalf("kind filter total = %d, want 2", total)
	}
	for _, row := range rows {
		if row.Kind != "apply" {
			t.Fatalf("kind filter returned %q", row.Kind)
		}
	}

	rows, _, errList = rec.List(ctx, Filter{To: time.Now().UTC().Add(-time.Hour)})
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(rows) != 0 {
		t.Fatalf("time filter should exclude all rows, got %d", len(rows))
	}
}
