package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/masjidnet/MasjidAdminAPI/internal/lifecycle"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	"gorm.io/gorm"
)

// ApplicationHandler adjudicates admin applications and tenures.
type ApplicationHandler struct {
	db     *gorm.DB
	engine *lifecycle.Engine
}

// NewApplicationHandler constructs an ApplicationHandler.
func NewApplicationHandler(db *gorm.DB, engine *lifecycle.Engine) *ApplicationHandler {
	return &ApplicationHandler{db: db, engine: engine}
}

// List returns admin accounts, optionally filtered by status or mosque.
func (h *ApplicationHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Admin{})

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("status = ?", status)
	}
	if mosqueParam := strings.TrimSpace(c.Query("mosque_id")); mosqueParam != "" {
		mosqueID, errParse := strconv.ParseUint(mosqueParam, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mosque_id"})
			return
		}
		q = q.Where("mosque_id = ?", mosqueID)
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	var total int64
	if errCount := q.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count admins failed"})
		return
	}
	var admins []models.Admin
	if errFind := q.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&admins).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list admins failed"})
		return
	}

	items := make([]gin.H, 0, len(admins))
	for i := range admins {
		items = append(items, adminResponse(&admins[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

// Approve accepts a pending application.
func (h *ApplicationHandler) Approve(c *gin.Context) {
	id, errParse := parseID(c)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid admin id"})
		return
	}
	var body struct {
		Notes string `json:"notes"`
	}
	if c.Request.ContentLength > 0 {
		if errBind := c.ShouldBindJSON(&body); errBind != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}

	admin, errApprove := h.engine.Approve(c.Request.Context(), actorName(currentSuperAdmin(c)), id, body.Notes)
	if errApprove != nil {
		respondLifecycleError(c, errApprove)
		return
	}
	c.JSON(http.StatusOK, adminResponse(admin))
}

// reasonRequest defines the request body for reject and remove. AllowReapply
// is only read by reject; an omitted field means no reapplication, the
// reviewer has to grant it explicitly.
type reasonRequest struct {
	Reason       string `json:"reason"`
	AllowReapply *bool  `json:"allow_reapply"`
}

// Reject declines a pending application with a mandatory reason.
func (h *ApplicationHandler) Reject(c *gin.Context) {
	id, errParse := parseID(c)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid admin id"})
		return
	}
	var body reasonRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	allowReapply := body.AllowReapply != nil && *body.AllowReapply

	admin, errReject := h.engine.Reject(c.Request.Context(), actorName(currentSuperAdmin(c)), id, body.Reason, allowReapply)
	if errReject != nil {
		respondLifecycleError(c, errReject)
		return
	}
	c.JSON(http.StatusOK, adminResponse(admin))
}

// Remove ends an approved admin's tenure with a mandatory reason.
func (h *ApplicationHandler) Remove(c *gin.Context) {
	id, errParse := parseID(c)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid admin id"})
		return
	}
	var body reasonRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	admin, errRemove := h.engine.Remove(c.Request.Context(), actorName(currentSuperAdmin(c)), id, body.Reason)
	if errRemove != nil {
		respondLifecycleError(c, errRemove)
		return
	}
	c.JSON(http.StatusOK, adminResponse(admin))
}

// AllowReapply reopens the reapplication gate for a former admin.
func (h *ApplicationHandler) AllowReapply(c *gin.Context) {
	id, errParse := parseID(c)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid admin id"})
		return
	}

	admin, errAllow := h.engine.AllowReapplication(c.Request.Context(), actorName(currentSuperAdmin(c)), id)
	if errAllow != nil {
		respondLifecycleError(c, errAllow)
		return
	}
	c.JSON(http.StatusOK, adminResponse(admin))
}

// adminResponse renders an admin account for super-admin consumption.
func adminResponse(admin *models.Admin) gin.H {
	resp := gin.H{
		"id":              admin.ID,
		"name":            admin.Name,
		"email":           admin.Email,
		"phone":           admin.Phone,
		"status":          admin.Status,
		"rejection_count": admin.RejectionCount,
		"can_reapply":     admin.CanReapply,
		"updated_at":      admin.UpdatedAt,
	}
	if admin.MosqueID != nil {
		resp["mosque_id"] = *admin.MosqueID
	}
	if len(admin.StatusDetail) > 0 {
		resp["detail"] = json.RawMessage(admin.StatusDetail)
	}
	if len(admin.BindingHistory) > 0 {
		resp["binding_history"] = json.RawMessage(admin.BindingHistory)
	}
	return resp
}
