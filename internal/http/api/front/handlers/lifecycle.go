package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/masjidnet/MasjidAdminAPI/internal/lifecycle"
	"github.com/masjidnet/MasjidAdminAPI/internal/rate"
)

// LifecycleHandler exposes the authenticated applicant transitions.
type LifecycleHandler struct {
	engine  *lifecycle.Engine
	limiter *rate.Limiter
	policy  lifecycle.PolicyFunc
}

// NewLifecycleHandler constructs a LifecycleHandler.
func NewLifecycleHandler(engine *lifecycle.Engine, limiter *rate.Limiter, policy lifecycle.PolicyFunc) *LifecycleHandler {
	return &LifecycleHandler{engine: engine, limiter: limiter, policy: policy}
}

// reapplyRequest defines the request body for a reapplication.
type reapplyRequest struct {
	MosqueID uint64 `json:"mosque_id"`
	Code     string `json:"code"`
}

// Reapply moves the authenticated former admin back to pending against a
// mosque's current verification code.
func (h *LifecycleHandler) Reapply(c *gin.Context) {
	admin := currentAdmin(c)
	if admin == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	var body reapplyRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.MosqueID == 0 || strings.TrimSpace(body.Code) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing mosque_id or code"})
		return
	}
	if !h.limiter.Allow("apply:"+admin.Email, h.policy().ApplyPerHour, time.Hour) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, try again later"})
		return
	}

	updated, errReapply := h.engine.Reapply(c.Request.Context(), admin.ID, body.MosqueID, body.Code)
	if errReapply != nil {
		respondLifecycleError(c, errReapply)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":     updated.ID,
		"status": updated.Status,
	})
}

// revalidateRequest defines the request body for a code revalidation.
type revalidateRequest struct {
	Code string `json:"code"`
}

// Revalidate restores the authenticated admin after a code regeneration.
func (h *LifecycleHandler) Revalidate(c *gin.Context) {
	admin := currentAdmin(c)
	if admin == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	var body revalidateRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Code) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}
	if !h.limiter.Allow("revalidate:"+admin.Email, h.policy().RevalidatePerHour, time.Hour) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, try again later"})
		return
	}

	updated, errRevalidate := h.engine.Revalidate(c.Request.Context(), admin.ID, body.Code)
	if errRevalidate != nil {
		respondLifecycleError(c, errRevalidate)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":     updated.ID,
		"status": updated.Status,
	})
}
