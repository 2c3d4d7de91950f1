package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	"gorm.io/gorm"
)

// StatusHandler serves the applicant's own lifecycle state.
type StatusHandler struct {
	db *gorm.DB
}

// NewStatusHandler constructs a StatusHandler.
func NewStatusHandler(db *gorm.DB) *StatusHandler {
	return &StatusHandler{db: db}
}

// Get returns the authenticated applicant's status, bound mosque and the
// per-status detail payload.
func (h *StatusHandler) Get(c *gin.Context) {
	admin := currentAdmin(c)
	if admin == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	resp := gin.H{
		"id":              admin.ID,
		"name":            admin.Name,
		"email":           admin.Email,
		"status":          admin.Status,
		"rejection_count": admin.RejectionCount,
		"can_reapply":     admin.CanReapply,
	}
	if len(admin.StatusDetail) > 0 {
		resp["detail"] = json.RawMessage(admin.StatusDetail)
	}

	if admin.MosqueID != nil {
		var mosque models.Mosque
		if errFind := h.db.WithContext(c.Request.Context()).First(&mosque, *admin.MosqueID).Error; errFind == nil {
			resp["mosque"] = gin.H{
				"id":       mosque.ID,
				"name":     mosque.Name,
				"location": mosque.Location,
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}

// currentAdmin returns the admin loaded by the auth middleware.
func currentAdmin(c *gin.Context) *models.Admin {
	v, ok := c.Get("admin")
	if !ok {
		return nil
	}
	admin, ok := v.(*models.Admin)
	if !ok {
		return nil
	}
	return admin
}
