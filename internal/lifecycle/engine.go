package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/masjidnet/MasjidAdminAPI/internal/audit"
	"github.com/masjidnet/MasjidAdminAPI/internal/config"
	dbutil "github.com/masjidnet/MasjidAdminAPI/internal/db"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	"github.com/masjidnet/MasjidAdminAPI/internal/notify"
	"github.com/masjidnet/MasjidAdminAPI/internal/util"
	"github.com/masjidnet/MasjidAdminAPI/internal/verification"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PolicyFunc returns the lifecycle policy in effect for the next
// transition. It is called once per operation so DB-backed overrides take
// effect without a restart.
type PolicyFunc func() config.Policy

// Engine executes lifecycle transitions. Every transition runs as one
// database transaction: both the admin and, when touched, the mosque row
// commit together or not at all. Audit recording and notifications happen
// after commit and can never fail a transition.
type Engine struct {
	db      *gorm.DB
	auditor *audit.Recorder
	mailer  notify.Mailer
	policy  PolicyFunc

	now func() time.Time
}

// NewEngine constructs an Engine. A nil mailer disables notifications.
func NewEngine(db *gorm.DB, auditor *audit.Recorder, mailer notify.Mailer, policy PolicyFunc) *Engine {
	if mailer == nil {
		mailer = notify.NoopMailer{}
	}
	if policy == nil {
		policy = config.DefaultPolicy
	}
	return &Engine{
		db:      db,
		auditor: auditor,
		mailer:  mailer,
		policy:  policy,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// generator builds a code generator from the current policy.
func (e *Engine) generator(p config.Policy) *verification.Generator {
	return verification.NewGenerator(p.CodeLength, time.Duration(p.CodeTTLDays)*24*time.Hour)
}

// forUpdate adds a row lock on dialects that support one. SQLite serializes
// writers on its own.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if dbutil.IsSQLite(tx) {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockMosque loads a mosque row, locked for update.
func lockMosque(tx *gorm.DB, id uint64) (*models.Mosque, error) {
	var mosque models.Mosque
	if errFind := forUpdate(tx).First(&mosque, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrMosqueNotFound
		}
		return nil, fmt.Errorf("%w: load mosque: %v", ErrStorage, errFind)
	}
	return &mosque, nil
}

// rotateCode issues a fresh code for the mosque inside the transaction.
// The previous code stops matching the moment the transaction commits.
func (e *Engine) rotateCode(tx *gorm.DB, mosque *models.Mosque, p config.Policy) error {
	code, expires, errGen := e.generator(p).Generate()
	if errGen != nil {
		return fmt.Errorf("%w: %v", ErrStorage, errGen)
	}
	updates := map[string]any{
		"verification_code":            code,
		"verification_code_expires_at": expires,
		"updated_at":                   e.now(),
	}
	if errUpdate := tx.Model(&models.Mosque{}).Where("id = ?", mosque.ID).Updates(updates).Error; errUpdate != nil {
		return fmt.Errorf("%w: rotate code: %v", ErrStorage, errUpdate)
	}
	mosque.VerificationCode = code
	mosque.VerificationCodeExpiresAt = expires
	return nil
}

// activeAdminCount counts pending/approved admins bound to the mosque,
// excluding the given admin id when non-zero.
func activeAdminCount(tx *gorm.DB, mosqueID uint64, excludeAdminID uint64) (int64, error) {
	q := tx.Model(&models.Admin{}).
		Where("mosque_id = ?", mosqueID).
		Where("status IN ?", models.ActiveStatuses)
	if excludeAdminID != 0 {
		q = q.Where("id <> ?", excludeAdminID)
	}
	var count int64
	if errCount := q.Count(&count).Error; errCount != nil {
		return 0, fmt.Errorf("%w: count active admins: %v", ErrStorage, errCount)
	}
	return count, nil
}

// checkCode validates a presented code against the mosque's current one.
// Comparison is case-insensitive since the alphabet has no lowercase.
func (e *Engine) checkCode(mosque *models.Mosque, code string) error {
	if !strings.EqualFold(strings.TrimSpace(code), mosque.VerificationCode) {
		return ErrWrongCode
	}
	if !mosque.CodeValidAt(e.now()) {
		return ErrCodeExpired
	}
	return nil
}

// isUniqueViolation detects unique-constraint errors from either dialect.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

// adminSnapshot captures the audit-relevant admin fields.
func adminSnapshot(a *models.Admin) map[string]any {
	if a == nil {
		return nil
	}
	snap := map[string]any{
		"status":          a.Status,
		"rejection_count": a.RejectionCount,
		"can_reapply":     a.CanReapply,
	}
	if a.MosqueID != nil {
		snap["mosque_id"] = *a.MosqueID
	}
	return snap
}

// mosqueSnapshot captures the audit-relevant mosque fields with the code
// masked.
func mosqueSnapshot(m *models.Mosque) map[string]any {
	if m == nil {
		return nil
	}
	return map[string]any{
		"name":         m.Name,
		"code":         util.MaskCode(m.VerificationCode),
		"code_expires": m.VerificationCodeExpiresAt,
	}
}

// notifyStatus emails the applicant about a status change, best-effort.
func (e *Engine) notifyStatus(a *models.Admin, reason string) {
	if errSend := e.mailer.SendStatusUpdate(a.Email, a.Name, a.Status, reason); errSend != nil {
		log.WithError(errSend).Warnf("lifecycle: status mail to %s failed", a.Email)
	}
}

// notifyCode emails the mosque contact its current code, best-effort.
func (e *Engine) notifyCode(m *models.Mosque) {
	if m.ContactEmail == "" {
		return
	}
	if errSend := e.mailer.SendVerificationCode(m.ContactEmail, m.Name, m.VerificationCode, m.VerificationCodeExpiresAt); errSend != nil {
		log.WithError(errSend).Warnf("lifecycle: code mail for mosque %d failed", m.ID)
	}
}
