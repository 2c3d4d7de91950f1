package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/masjidnet/MasjidAdminAPI/internal/lifecycle"
	log "github.com/sirupsen/logrus"
)

// respondLifecycleError maps an engine error to its HTTP status and a
// machine-readable code.
func respondLifecycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrMosqueNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "mosque not found", "code": "mosque_not_found"})
	case errors.Is(err, lifecycle.ErrAdminNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found", "code": "admin_not_found"})
	case errors.Is(err, lifecycle.ErrWrongCode):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "verification code does not match", "code": "wrong_code"})
	case errors.Is(err, lifecycle.ErrCodeExpired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "verification code expired, ask the mosque for the current one", "code": "code_expired"})
	case errors.Is(err, lifecycle.ErrAlreadyStaffed):
		c.JSON(http.StatusConflict, gin.H{"error": "this mosque already has an active admin", "code": "already_staffed"})
	case errors.Is(err, lifecycle.ErrWrongStatus):
		c.JSON(http.StatusConflict, gin.H{"error": "action not allowed in the current status", "code": "wrong_status"})
	case errors.Is(err, lifecycle.ErrReapplyNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": "reapplication is not permitted", "code": "reapply_not_allowed"})
	case errors.Is(err, lifecycle.ErrReasonTooShort):
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason too short", "code": "reason_too_short"})
	case errors.Is(err, lifecycle.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "a concurrent change won, please retry", "code": "conflict_lost"})
	default:
		log.WithError(err).Error("front: lifecycle operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "storage_unavailable"})
	}
}
