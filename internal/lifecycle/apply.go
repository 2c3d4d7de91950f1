package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/masjidnet/MasjidAdminAPI/internal/audit"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ApplyInput carries a self-registration request.
type ApplyInput struct {
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	MosqueID     uint64
	Code         string
}

// bindOutcome captures what happened inside a binding transaction so the
// caller can emit audit entries and notifications after commit.
type bindOutcome struct {
	admin          *models.Admin
	mosque         *models.Mosque
	breach         bool
	incumbentEmail string
	rejectedBefore bool
}

// Apply processes a self-registration: a new applicant, or a former one in
// rejected/mosque_deleted/admin_removed status, presents a mosque's current
// verification code to enter pending.
//
// Presenting a valid code for a mosque that already has an active admin is
// treated as a breach: the code is rotated immediately, and the rotation
// commits even though the application itself fails with ErrAlreadyStaffed.
func (e *Engine) Apply(ctx context.Context, in ApplyInput) (*models.Admin, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)

	// One retry: a loser of a concurrent apply race hits the active-admin
	// unique index; on reread it observes the staffed mosque and takes the
	// breach path instead.
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		admin, err := e.applyOnce(ctx, in)
		if err != nil && isUniqueViolation(err) {
			lastErr = err
			continue
		}
		return admin, err
	}
	return nil, fmt.Errorf("%w: %v", ErrConflict, lastErr)
}

func (e *Engine) applyOnce(ctx context.Context, in ApplyInput) (*models.Admin, error) {
	var out bindOutcome

	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Admin
		errFind := forUpdate(tx).Where("email = ? OR phone = ?", in.Email, in.Phone).First(&existing).Error
		switch {
		case errFind == nil:
			if existing.IsActive() || existing.Status == models.StatusCodeRegenerated {
				return ErrWrongStatus
			}
			if !existing.CanReapply {
				return ErrReapplyNotAllowed
			}
			// A returning applicant supplies fresh credentials; keep them.
			if name := strings.TrimSpace(in.Name); name != "" {
				existing.Name = name
			}
			if in.Phone != "" {
				existing.Phone = in.Phone
			}
			if in.PasswordHash != "" {
				existing.Password = in.PasswordHash
			}
			return e.bindToMosque(tx, &existing, in, &out)
		case errors.Is(errFind, gorm.ErrRecordNotFound):
			admin := &models.Admin{
				Name:     strings.TrimSpace(in.Name),
				Email:    in.Email,
				Phone:    in.Phone,
				Password: in.PasswordHash,
			}
			return e.bindToMosque(tx, admin, in, &out)
		default:
			return fmt.Errorf("%w: lookup applicant: %v", ErrStorage, errFind)
		}
	})

	return e.finishBinding(ctx, "apply", &out, errTx)
}

// Reapply moves an authenticated former admin back to pending. Same
// semantics as Apply, including breach handling, gated by can_reapply.
func (e *Engine) Reapply(ctx context.Context, adminID uint64, mosqueID uint64, code string) (*models.Admin, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		admin, err := e.reapplyOnce(ctx, adminID, mosqueID, code)
		if err != nil && isUniqueViolation(err) {
			lastErr = err
			continue
		}
		return admin, err
	}
	return nil, fmt.Errorf("%w: %v", ErrConflict, lastErr)
}

func (e *Engine) reapplyOnce(ctx context.Context, adminID uint64, mosqueID uint64, code string) (*models.Admin, error) {
	var out bindOutcome

	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var admin models.Admin
		if errLoad := loadAdmin(tx, adminID, &admin); errLoad != nil {
			return errLoad
		}
		switch admin.Status {
		case models.StatusRejected, models.StatusMosqueDeleted, models.StatusAdminRemoved:
		default:
			return ErrWrongStatus
		}
		if !admin.CanReapply {
			return ErrReapplyNotAllowed
		}
		return e.bindToMosque(tx, &admin, ApplyInput{MosqueID: mosqueID, Code: code}, &out)
	})

	return e.finishBinding(ctx, "reapply", &out, errTx)
}

// bindToMosque validates the presented code and binds the admin to the
// mosque as pending. On a staffed mosque with a valid code it rotates the
// code, records the incumbent for alerting, and reports the breach through
// out; the enclosing transaction still commits.
func (e *Engine) bindToMosque(tx *gorm.DB, admin *models.Admin, in ApplyInput, out *bindOutcome) error {
	p := e.policy()

	mosque, errLock := lockMosque(tx, in.MosqueID)
	if errLock != nil {
		return errLock
	}
	out.mosque = mosque

	if errCode := e.checkCode(mosque, in.Code); errCode != nil {
		return errCode
	}

	count, errCount := activeAdminCount(tx, mosque.ID, admin.ID)
	if errCount != nil {
		return errCount
	}
	if count > 0 {
		// Breach: a currently-valid code was presented for an occupied
		// mosque. Rotate now so the leaked code dies with this attempt.
		if errRotate := e.rotateCode(tx, mosque, p); errRotate != nil {
			return errRotate
		}
		var incumbent models.Admin
		if errFind := tx.Where("mosque_id = ? AND status IN ?", mosque.ID, models.ActiveStatuses).
			First(&incumbent).Error; errFind == nil {
			out.incumbentEmail = incumbent.Email
		}
		out.breach = true
		return nil
	}

	out.rejectedBefore = historyContainsMosque(decodeHistory(admin), mosque.ID)

	code := mosque.VerificationCode
	admin.Status = models.StatusPending
	admin.MosqueID = &mosque.ID
	admin.VerificationCodeUsed = &code
	admin.CanReapply = false
	admin.StatusDetail = nil
	admin.UpdatedAt = e.now()

	if errSave := tx.Save(admin).Error; errSave != nil {
		if isUniqueViolation(errSave) {
			return errSave
		}
		return fmt.Errorf("%w: save admin: %v", ErrStorage, errSave)
	}
	out.admin = admin
	return nil
}

// finishBinding emits post-commit audit entries and notifications for
// Apply/Reapply and maps the breach outcome to its error kind.
func (e *Engine) finishBinding(ctx context.Context, kind string, out *bindOutcome, errTx error) (*models.Admin, error) {
	if errTx != nil {
		return nil, errTx
	}

	if out.breach {
		mosqueID := out.mosque.ID
		e.auditor.Record(ctx, audit.Entry{
			Kind:     "breach_rotation",
			Actor:    "system",
			MosqueID: &mosqueID,
			After:    mosqueSnapshot(out.mosque),
			Reason:   fmt.Sprintf("valid code presented during %s while mosque staffed", kind),
		})
		log.Warnf("lifecycle: breach rotation for mosque %d after %s attempt", mosqueID, kind)
		e.notifyCode(out.mosque)
		if out.incumbentEmail != "" {
			if errSend := e.mailer.SendBreachAlert(out.incumbentEmail, out.mosque.Name, out.mosque.VerificationCode, out.mosque.VerificationCodeExpiresAt); errSend != nil {
				log.WithError(errSend).Warn("lifecycle: breach alert mail failed")
			}
		}
		return nil, ErrAlreadyStaffed
	}

	admin := out.admin
	adminID, mosqueID := admin.ID, out.mosque.ID
	reason := ""
	if out.rejectedBefore {
		reason = "applicant was previously rejected at this mosque"
		log.Infof("lifecycle: admin %d reapplies to mosque %d that rejected them before", adminID, mosqueID)
	}
	e.auditor.Record(ctx, audit.Entry{
		Kind:     kind,
		Actor:    "applicant:" + admin.Email,
		AdminID:  &adminID,
		MosqueID: &mosqueID,
		After:    adminSnapshot(admin),
		Reason:   reason,
	})
	e.notifyStatus(admin, "")
	return admin, nil
}
