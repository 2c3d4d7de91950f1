package settings

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/masjidnet/MasjidAdminAPI/internal/config"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	"gorm.io/gorm"
)

// Refresh reloads all settings rows from the database into the in-memory
// snapshot. Required once at startup; handlers that update settings call it
// again after writing.
func Refresh(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("settings: nil db")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var rows []models.Setting
	if errFind := db.WithContext(ctx).Find(&rows).Error; errFind != nil {
		return errFind
	}

	values := make(map[string]json.RawMessage, len(rows))
	latest := time.Time{}
	for _, row := range rows {
		values[row.Key] = json.RawMessage(row.Value)
		if row.UpdatedAt.After(latest) {
			latest = row.UpdatedAt
		}
	}
	if latest.IsZero() {
		latest = time.Now().UTC()
	}
	Store(latest, values)
	return nil
}

// EffectivePolicy merges the config-file policy defaults with any DB
// overrides currently in the snapshot.
func EffectivePolicy(defaults config.Policy) config.Policy {
	return config.Policy{
		CodeTTLDays:       IntValue(CodeTTLDaysKey, defaults.CodeTTLDays),
		CodeLength:        IntValue(CodeLengthKey, defaults.CodeLength),
		MaxRejections:     IntValue(MaxRejectionsKey, defaults.MaxRejections),
		MinReasonLength:   IntValue(MinReasonLengthKey, defaults.MinReasonLength),
		ApplyPerHour:      IntValue(ApplyPerHourKey, defaults.ApplyPerHour),
		RevalidatePerHour: IntValue(RevalidatePerHourKey, defaults.RevalidatePerHour),
	}
}
