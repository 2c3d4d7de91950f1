package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	"github.com/masjidnet/MasjidAdminAPI/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsHandler manages lifecycle policy overrides.
type SettingsHandler struct {
	db *gorm.DB
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

// Get returns the current override values and the snapshot timestamp.
func (h *SettingsHandler) Get(c *gin.Context) {
	values := gin.H{}
	for _, key := range settings.KnownKeys {
		if raw, ok := settings.Value(key); ok && raw != nil {
			values[key] = json.RawMessage(raw)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"overrides":  values,
		"updated_at": settings.UpdatedAt(),
	})
}

// Update upserts override values for known keys and refreshes the in-memory
// snapshot. A null value deletes the override.
func (h *SettingsHandler) Update(c *gin.Context) {
	var body map[string]json.RawMessage
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty update"})
		return
	}

	known := map[string]bool{}
	for _, key := range settings.KnownKeys {
		known[key] = true
	}
	for key, raw := range body {
		if !known[key] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown setting key: " + key})
			return
		}
		if raw == nil || string(raw) == "null" {
			continue
		}
		var n int
		if errDecode := json.Unmarshal(raw, &n); errDecode != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "setting " + key + " must be a positive integer"})
			return
		}
	}

	ctx := c.Request.Context()
	errTx := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for key, raw := range body {
			if raw == nil || string(raw) == "null" {
				if errDelete := tx.Where("key = ?", key).Delete(&models.Setting{}).Error; errDelete != nil {
					return errDelete
				}
				continue
			}
			row := models.Setting{Key: key, Value: string(raw), UpdatedAt: now}
			if errUpsert := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&row).Error; errUpsert != nil {
				return errUpsert
			}
		}
		return nil
	})
	if errTx != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update settings failed"})
		return
	}

	if errRefresh := settings.Refresh(ctx, h.db); errRefresh != nil {
		log.WithError(errRefresh).Warn("admin: settings refresh after update failed")
	}
	h.Get(c)
}
