package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry describes one lifecycle transition to be recorded.
type Entry struct {
	Kind     string // Transition kind, e.g. "apply", "breach_rotation".
	Actor    string // Acting identity, e.g. "superadmin:1", "applicant:a@x".
	AdminID  *uint64
	MosqueID *uint64
	Before   any    // Snapshot before the transition; marshalled to JSON.
	After    any    // Snapshot after the transition; marshalled to JSON.
	Reason   string // Free-text reason, when the transition carries one.
}

// Recorder appends lifecycle transitions to the audit log. Record never
// returns an error: persistence failures are logged and swallowed so they
// cannot unwind the transition that triggered them.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder constructs a Recorder over the given connection.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record persists one entry and returns its opaque id. On failure it
// returns an empty string.
func (r *Recorder) Record(ctx context.Context, e Entry) string {
	if r == nil || r.db == nil {
		return ""
	}
	row := models.AuditLog{
		ID:        uuid.NewString(),
		Kind:      e.Kind,
		Actor:     e.Actor,
		AdminID:   e.AdminID,
		MosqueID:  e.MosqueID,
		Before:    marshalSnapshot(e.Before),
		After:     marshalSnapshot(e.After),
		Reason:    e.Reason,
		CreatedAt: time.Now().UTC(),
	}
	if errCreate := r.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		log.WithError(errCreate).Warnf("audit: record %s failed", e.Kind)
		return ""
	}
	return row.ID
}

func marshalSnapshot(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	data, errMarshal := json.Marshal(v)
	if errMarshal != nil {
		log.WithError(errMarshal).Warn("audit: marshal snapshot failed")
		return nil
	}
	return datatypes.JSON(data)
}

// Filter narrows List results. Zero values mean "any".
type Filter struct {
	Kind     string
	Actor    string
	AdminID  *uint64
	MosqueID *uint64
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

// List returns audit entries matching the filter, newest first.
func (r *Recorder) List(ctx context.Context, f Filter) ([]models.AuditLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.Actor != "" {
		q = q.Where("actor = ?", f.Actor)
	}
	if f.AdminID != nil {
		q = q.Where("admin_id = ?", *f.AdminID)
	}
	if f.MosqueID != nil {
		q = q.Where("mosque_id = ?", *f.MosqueID)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at < ?", f.To)
	}

	var total int64
	if errCount := q.Count(&total).Error; errCount != nil {
		return nil, 0, errCount
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows []models.AuditLog
	if errFind := q.Order("created_at DESC").Limit(limit).Offset(f.Offset).Find(&rows).Error; errFind != nil {
		return nil, 0, errFind
	}
	return rows, total, nil
}
