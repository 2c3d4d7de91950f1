package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	dbutil "github.com/masjidnet/MasjidAdminAPI/internal/db"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	"gorm.io/gorm"
)

// MosqueHandler serves the public mosque directory. Verification codes are
// never exposed here.
type MosqueHandler struct {
	db *gorm.DB
}

// NewMosqueHandler constructs a MosqueHandler.
func NewMosqueHandler(db *gorm.DB) *MosqueHandler {
	return &MosqueHandler{db: db}
}

// List returns mosques matching an optional name/location search.
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
	if errFind := q.Order("name ASC").Limit(limit).Offset(offset).Find(&mosques).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list mosques failed"})
		return
	}

	items := make([]gin.H, 0, len(mosques))
	for _, m := range mosques {
		items = append(items, gin.H{
			"id":          m.ID,
			"name":        m.Name,
			"location":    m.Location,
			"description": m.Description,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}
