package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/masjidnet/MasjidAdminAPI/internal/audit"
)

// AuditHandler serves the audit log.
type AuditHandler struct {
	recorder *audit.Recorder
}

// NewAuditHandler constructs an AuditHandler.
func NewAuditHandler(recorder *audit.Recorder) *AuditHandler {
	return &AuditHandler{recorder: recorder}
}

// List returns audit entries matching the query filters, newest first.
func (h *AuditHandler) List(c *gin.Context) {
	filter := audit.Filter{
		Kind:  strings.TrimSpace(c.Query("kind")),
		Actor: strings.TrimSpace(c.Query("actor")),
	}
	if param := strings.TrimSpace(c.Query("admin_id")); param != "" {
		id, errParse := strconv.ParseUint(param, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid admin_id"})
			return
		}
		filter.AdminID = &id
	}
	if param := strings.TrimSpace(c.Query("mosque_id")); param != "" {
		id, errParse := strconv.ParseUint(param, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mosque_id"})
			return
		}
		filter.MosqueID = &id
	}
	if param := strings.TrimSpace(c.Query("from")); param != "" {
		ts, errParse := time.Parse(time.RFC3339, param)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from timestamp"})
			return
		}
		filter.From = ts
	}
	if param := strings.TrimSpace(c.Query("to")); param != "" {
		ts, errParse := time.Parse(time.RFC3339, param)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to timestamp"})
			return
		}
		filter.To = ts
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	rows, total, errList := h.recorder.List(c.Request.Context(), filter)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list audit entries failed"})
		return
	}

	items := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		item := gin.H{
			"id":         row.ID,
			"kind":       row.Kind,
			"actor":      row.Actor,
			"created_at": row.CreatedAt,
		}
		if row.AdminID != nil {
			item["admin_id"] = *row.AdminID
		}
		if row.MosqueID != nil {
			item["mosque_id"] = *row.MosqueID
		}
		if len(row.Before) > 0 {
			item["before"] = json.RawMessage(row.Before)
		}
		if len(row.After) > 0 {
			item["after"] = json.RawMessage(row.After)
		}
		if row.Reason != "" {
			item["reason"] = row.Reason
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}
