package lifecycle

import (
	"encoding/json"
	"time"

	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Each status past "pending" carries exactly one of the detail payloads
// below in Admin.StatusDetail. Keeping one variant per status means a
// rejected admin cannot retain a stale mosque binding: the binding columns
// are cleared and the snapshot lives only inside the matching detail.

// ApprovedDetail records the approval decision.
type ApprovedDetail struct {
	ApprovedAt time.Time `json:"approved_at"`
	Notes      string    `json:"notes,omitempty"`
}

// RejectedDetail records a rejection and the binding it ended.
type RejectedDetail struct {
	Reason     string    `json:"reason"`
	RejectedAt time.Time `json:"rejected_at"`
	MosqueID   uint64    `json:"mosque_id"`
	MosqueName string    `json:"mosque_name"`
}

// RemovedDetail records removal of an approved admin.
type RemovedDetail struct {
	Reason         string    `json:"reason"`
	RemovedAt      time.Time `json:"removed_at"`
	MosqueID       uint64    `json:"mosque_id"`
	MosqueName     string    `json:"mosque_name"`
	MosqueLocation string    `json:"mosque_location"`
}

// MosqueDeletedDetail snapshots the mosque at deletion time; the mosque row
// is gone once this detail exists.
type MosqueDeletedDetail struct {
	MosqueID       uint64    `json:"mosque_id"`
	MosqueName     string    `json:"mosque_name"`
	MosqueLocation string    `json:"mosque_location"`
	DeletedAt      time.Time `json:"deleted_at"`
}

// RegeneratedDetail keeps the conceptual mosque link while an approved
// admin waits to re-present the rotated code.
type RegeneratedDetail struct {
	MosqueID       uint64    `json:"mosque_id"`
	MosqueName     string    `json:"mosque_name"`
	MosqueLocation string    `json:"mosque_location"`
	RegeneratedAt  time.Time `json:"regenerated_at"`
}

// BindingRecord is one entry of an admin's rejection history.
type BindingRecord struct {
	MosqueID   uint64    `json:"mosque_id"`
	MosqueName string    `json:"mosque_name"`
	Reason     string    `json:"reason"`
	EndedAt    time.Time `json:"ended_at"`
}

// encodeDetail marshals a detail payload for storage. A marshal failure is
// a programming error; it is logged and stored as null rather than failing
// the transition.
func encodeDetail(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	data, errMarshal := json.Marshal(v)
	if errMarshal != nil {
		log.WithError(errMarshal).Error("lifecycle: encode status detail")
		return nil
	}
	return datatypes.JSON(data)
}

// DecodeRegeneratedDetail extracts the regeneration snapshot from an admin
// in code_regenerated status.
func DecodeRegeneratedDetail(a *models.Admin) (*RegeneratedDetail, error) {
	var d RegeneratedDetail
	if errDecode := json.Unmarshal(a.StatusDetail, &d); errDecode != nil {
		return nil, errDecode
	}
	return &d, nil
}

// DecodeRejectedDetail extracts the rejection detail from a rejected admin.
func DecodeRejectedDetail(a *models.Admin) (*RejectedDetail, error) {
	var d RejectedDetail
	if errDecode := json.Unmarshal(a.StatusDetail, &d); errDecode != nil {
		return nil, errDecode
	}
	return &d, nil
}

// DecodeMosqueDeletedDetail extracts the deletion snapshot.
func DecodeMosqueDeletedDetail(a *models.Admin) (*MosqueDeletedDetail, error) {
	var d MosqueDeletedDetail
	if errDecode := json.Unmarshal(a.StatusDetail, &d); errDecode != nil {
		return nil, errDecode
	}
	return &d, nil
}

// decodeHistory returns the admin's rejection history, tolerating an empty
// column.
func decodeHistory(a *models.Admin) []BindingRecord {
	if len(a.BindingHistory) == 0 {
		return nil
	}
	var history []BindingRecord
	if errDecode := json.Unmarshal(a.BindingHistory, &history); errDecode != nil {
		log.WithError(errDecode).Warnf("lifecycle: decode binding history for admin %d", a.ID)
		return nil
	}
	return history
}

// historyContainsMosque reports whether the admin was previously rejected
// at the given mosque. Used for logging only; it never blocks a
// reapplication.
func historyContainsMosque(history []BindingRecord, mosqueID uint64) bool {
	for _, entry := range history {
		if entry.MosqueID == mosqueID {
			return true
		}
	}
	return false
}

// encodeHistory marshals the rejection history for storage.
func encodeHistory(history []BindingRecord) datatypes.JSON {
	if len(history) == 0 {
		return nil
	}
	data, errMarshal := json.Marshal(history)
	if errMarshal != nil {
		log.WithError(errMarshal).Error("lifecycle: encode binding history")
		return nil
	}
	return datatypes.JSON(data)
}
