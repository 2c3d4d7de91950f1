package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	dbutil "github.com/masjidnet/MasjidAdminAPI/internal/db"
	"github.com/masjidnet/MasjidAdminAPI/internal/lifecycle"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	"gorm.io/gorm"
)

// MosqueHandler manages mosque registration and code administration.
type MosqueHandler struct {
	db     *gorm.DB
	engine *lifecycle.Engine
}

// NewMosqueHandler constructs a MosqueHandler.
func NewMosqueHandler(db *gorm.DB, engine *lifecycle.Engine) *MosqueHandler {
	return &MosqueHandler{db: db, engine: engine}
}

// createMosqueRequest defines the request body for mosque registration.
type createMosqueRequest struct {
	Name         string `json:"name"`
	Location     string `json:"location"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Description  string `json:"description"`
}

// Create registers a mosque and returns its first verification code.
func (h *MosqueHandler) Create(c *gin.Context) {
	var body createMosqueRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}

	mosque, errCreate := h.engine.CreateMosque(c.Request.Context(), actorName(currentSuperAdmin(c)), lifecycle.MosqueInput{
		Name:         body.Name,
		Location:     body.Location,
		ContactEmail: body.ContactEmail,
		ContactPhone: body.ContactPhone,
		Description:  body.Description,
	})
	if errCreate != nil {
		respondLifecycleError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, mosqueResponse(mosque, nil))
}

// List returns mosques with their admin occupancy, optionally filtered by a
// name/location search.
func (h *MosqueHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Mosque{})

	if search := strings.TrimSpace(c.Query("q")); search != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+search+"%")
		q = q.Where(
			h.db.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "name"), pattern).
				Or(dbutil.CaseInsensitiveLikeExpr(h.db, "location"), pattern),
		)
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
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count mosques failed"})
		return
	}
	var mosques []models.Mosque
	if errFind := q.Order("id ASC").Limit(limit).Offset(offset).Find(&mosques).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list mosques failed"})
		return
	}

	items := make([]gin.H, 0, len(mosques))
	for i := range mosques {
		items = append(items, h.withOccupancy(c, &mosques[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

// Get returns one mosque with its code and current admin.
func (h *MosqueHandler) Get(c *gin.Context) {
	id, errParse := parseID(c)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mosque id"})
		return
	}

	var mosque models.Mosque
	if errFind := h.db.WithContext(c.Request.Context()).First(&mosque, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "mosque not found", "code": "mosque_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load mosque failed"})
		return
	}
	c.JSON(http.StatusOK, h.withOccupancy(c, &mosque))
}

// Delete removes a mosque; every admin still tied to it is cascaded to
// mosque_deleted in the same transaction.
func (h *MosqueHandler) Delete(c *gin.Context) {
	id, errParse := parseID(c)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mosque id"})
		return
	}

	if errDelete := h.engine.DeleteMosque(c.Request.Context(), actorName(currentSuperAdmin(c)), id); errDelete != nil {
		respondLifecycleError(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// RegenerateCode rotates a mosque's verification code on demand.
func (h *MosqueHandler) RegenerateCode(c *gin.Context) {
	id, errParse := parseID(c)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mosque id"})
		return
	}

	mosque, errRegen := h.engine.RegenerateCode(c.Request.Context(), actorName(currentSuperAdmin(c)), id)
	if errRegen != nil {
		respondLifecycleError(c, errRegen)
		return
	}
	c.JSON(http.StatusOK, mosqueResponse(mosque, nil))
}

// withOccupancy renders a mosque with its currently bound admin, if any.
func (h *MosqueHandler) withOccupancy(c *gin.Context, mosque *models.Mosque) gin.H {
	var bound models.Admin
	errFind := h.db.WithContext(c.Request.Context()).
		Where("mosque_id = ? AND status IN ?", mosque.ID, models.ActiveStatuses).
		First(&bound).Error
	if errFind != nil {
		return mosqueResponse(mosque, nil)
	}
	return mosqueResponse(mosque, &bound)
}

// mosqueResponse renders a mosque for super-admin consumption, code
// included.
func mosqueResponse(mosque *models.Mosque, bound *models.Admin) gin.H {
	resp := gin.H{
		"id":            mosque.ID,
		"name":          mosque.Name,
		"location":      mosque.Location,
		"contact_email": mosque.ContactEmail,
		"contact_phone": mosque.ContactPhone,
		"description":   mosque.Description,
		"verification_code": gin.H{
			"code":       mosque.VerificationCode,
			"expires_at": mosque.VerificationCodeExpiresAt,
		},
	}
	if bound != nil {
		resp["admin"] = gin.H{
			"id":     bound.ID,
			"name":   bound.Name,
			"email":  bound.Email,
			"status": bound.Status,
		}
	}
	return resp
}

// parseID reads the :id route parameter.
func parseID(c *gin.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
