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

// MosqueInput carries the fields of a mosque registration.
type MosqueInput struct {
	Name         string
	Location     string
	ContactEmail string
	ContactPhone string
	Description  string
}

// CreateMosque registers a mosque and issues its first verification code.
func (e *Engine) CreateMosque(ctx context.Context, actor string, in MosqueInput) (*models.Mosque, error) {
	p := e.policy()

	mosque := &models.Mosque{
		Name:         strings.TrimSpace(in.Name),
		Location:     strings.TrimSpace(in.Location),
		ContactEmail: strings.ToLower(strings.TrimSpace(in.ContactEmail)),
		ContactPhone: strings.TrimSpace(in.ContactPhone),
		Description:  in.Description,
	}

	// Codes are random; a collision on the unique column is possible but
	// vanishingly rare, so one regenerate-and-retry is enough.
	var errCreate error
	for attempt := 0; attempt < 2; attempt++ {
		code, expires, errGen := e.generator(p).Generate()
		if errGen != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, errGen)
		}
		mosque.VerificationCode = code
		mosque.VerificationCodeExpiresAt = expires

		errCreate = e.db.WithContext(ctx).Create(mosque).Error
		if errCreate == nil {
			break
		}
		if !isUniqueViolation(errCreate) {
			return nil, fmt.Errorf("%w: create mosque: %v", ErrStorage, errCreate)
		}
	}
	if errCreate != nil {
		return nil, fmt.Errorf("%w: create mosque: %v", ErrStorage, errCreate)
	}

	e.auditor.Record(ctx, audit.Entry{
		Kind:     "create_mosque",
		Actor:    actor,
		MosqueID: &mosque.ID,
		After:    mosqueSnapshot(mosque),
	})
	e.notifyCode(mosque)
	return mosque, nil
}

// DeleteMosque removes a mosque and cascades over every admin still tied to
// it: pending, approved and code_regenerated admins all move to
// mosque_deleted, each carrying a snapshot of the mosque that no longer
// exists. All of it commits as one transaction.
func (e *Engine) DeleteMosque(ctx context.Context, actor string, mosqueID uint64) error {
	var mosque *models.Mosque
	var affected []models.Admin

	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var errLock error
		mosque, errLock = lockMosque(tx, mosqueID)
		if errLock != nil {
			return errLock
		}

		if errFind := tx.Where("mosque_id = ?", mosqueID).Find(&affected).Error; errFind != nil {
			return fmt.Errorf("%w: load bound admins: %v", ErrStorage, errFind)
		}

		now := e.now()
		detail := encodeDetail(MosqueDeletedDetail{
			MosqueID:       mosque.ID,
			MosqueName:     mosque.Name,
			MosqueLocation: mosque.Location,
			DeletedAt:      now,
		})
		for i := range affected {
			admin := &affected[i]
			admin.Status = models.StatusMosqueDeleted
			admin.StatusDetail = detail
			admin.CanReapply = true
			admin.MosqueID = nil
			admin.VerificationCodeUsed = nil
			admin.UpdatedAt = now
			if errSave := tx.Save(admin).Error; errSave != nil {
				return fmt.Errorf("%w: cascade admin %d: %v", ErrStorage, admin.ID, errSave)
			}
		}

		if errDelete := tx.Delete(&models.Mosque{}, mosqueID).Error; errDelete != nil {
			return fmt.Errorf("%w: delete mosque: %v", ErrStorage, errDelete)
		}
		return nil
	})
	if errTx != nil {
		return errTx
	}

	e.auditor.Record(ctx, audit.Entry{
		Kind:     "delete_mosque",
		Actor:    actor,
		MosqueID: &mosqueID,
		Before:   mosqueSnapshot(mosque),
		Reason:   fmt.Sprintf("%d bound admins cascaded", len(affected)),
	})
	for i := range affected {
		admin := &affected[i]
		e.auditor.Record(ctx, audit.Entry{
			Kind:     "mosque_deleted_cascade",
			Actor:    actor,
			AdminID:  &admin.ID,
			MosqueID: &mosqueID,
			After:    adminSnapshot(admin),
		})
		e.notifyStatus(admin, "the mosque was removed from the platform")
	}
	log.Infof("lifecycle: mosque %d deleted, %d admins cascaded", mosqueID, len(affected))
	return nil
}

// RegenerateCode rotates a mosque's verification code on demand. An
// approved admin is demoted to code_regenerated and must revalidate with
// the new code; pending applications are not touched, they are decided by
// approve or reject against the code they already presented.
func (e *Engine) RegenerateCode(ctx context.Context, actor string, mosqueID uint64) (*models.Mosque, error) {
	p := e.policy()

	var mosque *models.Mosque
	var demoted *models.Admin

	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var errLock error
		mosque, errLock = lockMosque(tx, mosqueID)
		if errLock != nil {
			return errLock
		}
		if errRotate := e.rotateCode(tx, mosque, p); errRotate != nil {
			return errRotate
		}

		var approved models.Admin
		errFind := tx.Where("mosque_id = ? AND status = ?", mosqueID, models.StatusApproved).
			First(&approved).Error
		if errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("%w: load approved admin: %v", ErrStorage, errFind)
		}

		now := e.now()
		approved.Status = models.StatusCodeRegenerated
		approved.StatusDetail = encodeDetail(RegeneratedDetail{
			MosqueID:       mosque.ID,
			MosqueName:     mosque.Name,
			MosqueLocation: mosque.Location,
			RegeneratedAt:  now,
		})
		approved.VerificationCodeUsed = nil
		approved.UpdatedAt = now
		if errSave := tx.Save(&approved).Error; errSave != nil {
			return fmt.Errorf("%w: save admin: %v", ErrStorage, errSave)
		}
		demoted = &approved
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	entry := audit.Entry{
		Kind:     "regenerate_code",
		Actor:    actor,
		MosqueID: &mosque.ID,
		After:    mosqueSnapshot(mosque),
	}
	if demoted != nil {
		entry.AdminID = &demoted.ID
	}
	e.auditor.Record(ctx, entry)
	e.notifyCode(mosque)
	if demoted != nil {
		e.notifyStatus(demoted, "the verification code was regenerated, please revalidate")
	}
	return mosque, nil
}

// Revalidate restores a code_regenerated admin to approved once they
// present the rotated code. If someone else claimed the mosque in the
// meantime the revalidation fails, but no breach rotation happens: the
// admin is using the code exactly as instructed.
func (e *Engine) Revalidate(ctx context.Context, adminID uint64, code string) (*models.Admin, error) {
	var admin models.Admin
	var mosque *models.Mosque

	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errLoad := loadAdmin(tx, adminID, &admin); errLoad != nil {
			return errLoad
		}
		if admin.Status != models.StatusCodeRegenerated {
			return ErrWrongStatus
		}
		if admin.MosqueID == nil {
			return fmt.Errorf("%w: regenerated admin %d has no mosque binding", ErrStorage, admin.ID)
		}

		var errLock error
		mosque, errLock = lockMosque(tx, *admin.MosqueID)
		if errLock != nil {
			return errLock
		}
		if errCode := e.checkCode(mosque, code); errCode != nil {
			return errCode
		}

		count, errCount := activeAdminCount(tx, mosque.ID, admin.ID)
		if errCount != nil {
			return errCount
		}
		if count > 0 {
			return ErrAlreadyStaffed
		}

		now := e.now()
		current := mosque.VerificationCode
		admin.Status = models.StatusApproved
		admin.VerificationCodeUsed = &current
		admin.StatusDetail = encodeDetail(ApprovedDetail{ApprovedAt: now, Notes: "revalidated after code regeneration"})
		admin.UpdatedAt = now
		if errSave := tx.Save(&admin).Error; errSave != nil {
			if isUniqueViolation(errSave) {
				return ErrAlreadyStaffed
			}
			return fmt.Errorf("%w: save admin: %v", ErrStorage, errSave)
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	e.auditor.Record(ctx, audit.Entry{
		Kind:     "revalidate",
		Actor:    "admin:" + admin.Email,
		AdminID:  &admin.ID,
		MosqueID: admin.MosqueID,
		After:    adminSnapshot(&admin),
	})
	e.notifyStatus(&admin, "")
	return &admin, nil
}
