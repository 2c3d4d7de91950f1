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

// Approve moves a pending admin to approved. The mosque binding and its
// verification code are left untouched.
func (e *Engine) Approve(ctx context.Context, actor string, adminID uint64, notes string) (*models.Admin, error) {
	var admin models.Admin
	var before map[string]any

	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errLoad := loadAdmin(tx, adminID, &admin); errLoad != nil {
			return errLoad
		}
		if admin.Status != models.StatusPending {
			return ErrWrongStatus
		}
		before = adminSnapshot(&admin)

		admin.Status = models.StatusApproved
		admin.StatusDetail = encodeDetail(ApprovedDetail{ApprovedAt: e.now(), Notes: notes})
		admin.UpdatedAt = e.now()
		if errSave := tx.Save(&admin).Error; errSave != nil {
			return fmt.Errorf("%w: save admin: %v", ErrStorage, errSave)
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	e.auditor.Record(ctx, audit.Entry{
		Kind:     "approve",
		Actor:    actor,
		AdminID:  &admin.ID,
		MosqueID: admin.MosqueID,
		Before:   before,
		After:    adminSnapshot(&admin),
	})
	e.notifyStatus(&admin, "")
	return &admin, nil
}

// Reject moves a pending admin to rejected and rotates the mosque's code so
// the code the applicant presented stops working. The binding is recorded in
// the rejection detail and history, then cleared from the admin row to free
// the mosque's active slot. allowReapply is the reviewer's choice; it is
// forced to false once the rejection count reaches the threshold.
func (e *Engine) Reject(ctx context.Context, actor string, adminID uint64, reason string, allowReapply bool) (*models.Admin, error) {
	p := e.policy()
	reason = strings.TrimSpace(reason)
	if len(reason) < p.MinReasonLength {
		return nil, fmt.Errorf("%w: need at least %d characters", ErrReasonTooShort, p.MinReasonLength)
	}

	var admin models.Admin
	var mosque *models.Mosque
	var before map[string]any

	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errLoad := loadAdmin(tx, adminID, &admin); errLoad != nil {
			return errLoad
		}
		if admin.Status != models.StatusPending {
			return ErrWrongStatus
		}
		if admin.MosqueID == nil {
			return fmt.Errorf("%w: pending admin %d has no mosque binding", ErrStorage, admin.ID)
		}
		before = adminSnapshot(&admin)

		var errLock error
		mosque, errLock = lockMosque(tx, *admin.MosqueID)
		if errLock != nil {
			return errLock
		}
		if errRotate := e.rotateCode(tx, mosque, p); errRotate != nil {
			return errRotate
		}

		now := e.now()
		history := append(decodeHistory(&admin), BindingRecord{
			MosqueID:   mosque.ID,
			MosqueName: mosque.Name,
			Reason:     reason,
			EndedAt:    now,
		})

		admin.Status = models.StatusRejected
		admin.StatusDetail = encodeDetail(RejectedDetail{
			Reason:     reason,
			RejectedAt: now,
			MosqueID:   mosque.ID,
			MosqueName: mosque.Name,
		})
		admin.BindingHistory = encodeHistory(history)
		admin.RejectionCount++
		admin.CanReapply = allowReapply && admin.RejectionCount < p.MaxRejections
		admin.MosqueID = nil
		admin.VerificationCodeUsed = nil
		admin.UpdatedAt = now
		if errSave := tx.Save(&admin).Error; errSave != nil {
			return fmt.Errorf("%w: save admin: %v", ErrStorage, errSave)
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	if admin.RejectionCount >= p.MaxRejections {
		log.Infof("lifecycle: admin %d reached rejection threshold (%d)", admin.ID, admin.RejectionCount)
	}
	e.auditor.Record(ctx, audit.Entry{
		Kind:     "reject",
		Actor:    actor,
		AdminID:  &admin.ID,
		MosqueID: &mosque.ID,
		Before:   before,
		After:    adminSnapshot(&admin),
		Reason:   reason,
	})
	e.notifyStatus(&admin, reason)
	e.notifyCode(mosque)
	return &admin, nil
}

// Remove ends an approved admin's tenure and rotates the mosque's code. The
// removed admin may reapply later, to this mosque or another.
func (e *Engine) Remove(ctx context.Context, actor string, adminID uint64, reason string) (*models.Admin, error) {
	p := e.policy()
	reason = strings.TrimSpace(reason)
	if len(reason) < p.MinReasonLength {
		return nil, fmt.Errorf("%w: need at least %d characters", ErrReasonTooShort, p.MinReasonLength)
	}

	var admin models.Admin
	var mosque *models.Mosque
	var before map[string]any

	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errLoad := loadAdmin(tx, adminID, &admin); errLoad != nil {
			return errLoad
		}
		if admin.Status != models.StatusApproved {
			return ErrWrongStatus
		}
		if admin.MosqueID == nil {
			return fmt.Errorf("%w: approved admin %d has no mosque binding", ErrStorage, admin.ID)
		}
		before = adminSnapshot(&admin)

		var errLock error
		mosque, errLock = lockMosque(tx, *admin.MosqueID)
		if errLock != nil {
			return errLock
		}
		if errRotate := e.rotateCode(tx, mosque, p); errRotate != nil {
			return errRotate
		}

		now := e.now()
		admin.Status = models.StatusAdminRemoved
		admin.StatusDetail = encodeDetail(RemovedDetail{
			Reason:         reason,
			RemovedAt:      now,
			MosqueID:       mosque.ID,
			MosqueName:     mosque.Name,
			MosqueLocation: mosque.Location,
		})
		admin.CanReapply = true
		admin.MosqueID = nil
		admin.VerificationCodeUsed = nil
		admin.UpdatedAt = now
		if errSave := tx.Save(&admin).Error; errSave != nil {
			return fmt.Errorf("%w: save admin: %v", ErrStorage, errSave)
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	e.auditor.Record(ctx, audit.Entry{
		Kind:     "remove",
		Actor:    actor,
		AdminID:  &admin.ID,
		MosqueID: &mosque.ID,
		Before:   before,
		After:    adminSnapshot(&admin),
		Reason:   reason,
	})
	e.notifyStatus(&admin, reason)
	e.notifyCode(mosque)
	return &admin, nil
}

// AllowReapplication reopens the reapplication gate for an admin in a
// terminal status. The rejection threshold only forces the gate shut during
// Reject; an explicit super-admin action can always reopen it, so no status
// is a dead end.
func (e *Engine) AllowReapplication(ctx context.Context, actor string, adminID uint64) (*models.Admin, error) {
	var admin models.Admin
	var before map[string]any

	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errLoad := loadAdmin(tx, adminID, &admin); errLoad != nil {
			return errLoad
		}
		switch admin.Status {
		case models.StatusRejected, models.StatusMosqueDeleted, models.StatusAdminRemoved:
		default:
			return ErrWrongStatus
		}
		before = adminSnapshot(&admin)

		admin.CanReapply = true
		admin.UpdatedAt = e.now()
		if errSave := tx.Save(&admin).Error; errSave != nil {
			return fmt.Errorf("%w: save admin: %v", ErrStorage, errSave)
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	e.auditor.Record(ctx, audit.Entry{
		Kind:    "allow_reapply",
		Actor:   actor,
		AdminID: &admin.ID,
		Before:  before,
		After:   adminSnapshot(&admin),
	})
	return &admin, nil
}

// loadAdmin fetches an admin row inside a transaction, locked for update so
// concurrent transitions on the same admin revalidate the status
// precondition instead of overwriting each other. Maps the not-found case to
// its error kind.
func loadAdmin(tx *gorm.DB, adminID uint64, dst *models.Admin) error {
	if errFind := forUpdate(tx).First(dst, adminID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrAdminNotFound
		}
		return fmt.Errorf("%w: load admin: %v", ErrStorage, errFind)
	}
	return nil
}
