package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/masjidnet/MasjidAdminAPI/internal/config"
	"github.com/masjidnet/MasjidAdminAPI/internal/lifecycle"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	"github.com/masjidnet/MasjidAdminAPI/internal/rate"
	"github.com/masjidnet/MasjidAdminAPI/internal/security"
	"gorm.io/gorm"
)

// AuthHandler handles applicant registration and login.
type AuthHandler struct {
	db      *gorm.DB
	engine  *lifecycle.Engine
	jwtCfg  config.JWTConfig
	limiter *rate.Limiter
	policy  lifecycle.PolicyFunc
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, engine *lifecycle.Engine, jwtCfg config.JWTConfig, limiter *rate.Limiter, policy lifecycle.PolicyFunc) *AuthHandler {
	return &AuthHandler{db: db, engine: engine, jwtCfg: jwtCfg, limiter: limiter, policy: policy}
}

// applyRequest defines the request body for a self-registration.
type applyRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	MosqueID uint64 `json:"mosque_id"`
	Code     string `json:"code"`
}

// Apply registers an applicant against a mosque's verification code. The
// same endpoint serves first-time applications and returns of former admins
// whose reapplication gate is open.
func (h *AuthHandler) Apply(c *gin.Context) {
	var body applyRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" || !strings.Contains(email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid email"})
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}
	if strings.TrimSpace(body.Phone) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing phone"})
		return
	}
	password := strings.TrimSpace(body.Password)
	if len(password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
		return
	}
	if body.MosqueID == 0 || strings.TrimSpace(body.Code) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing mosque_id or code"})
		return
	}

	if !h.limiter.Allow("apply:"+email, h.policy().ApplyPerHour, time.Hour) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, try again later"})
		return
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}

	admin, errApply := h.engine.Apply(c.Request.Context(), lifecycle.ApplyInput{
		Name:         body.Name,
		Email:        email,
		Phone:        body.Phone,
		PasswordHash: hash,
		MosqueID:     body.MosqueID,
		Code:         body.Code,
	})
	if errApply != nil {
		respondLifecycleError(c, errApply)
		return
	}

	token, errToken := security.GenerateAdminToken(h.jwtCfg.Secret, admin.ID, admin.Email, h.jwtCfg.Expiry)
	if errToken != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign token failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"token":  token,
		"id":     admin.ID,
		"status": admin.Status,
	})
}

// loginRequest defines the request body for applicant login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an applicant in any lifecycle status; former admins
// must be able to sign in to check their status and reapply.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email or password"})
		return
	}

	var admin models.Admin
	errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&admin).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup account failed"})
		return
	}
	if !security.CheckPassword(admin.Password, body.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, errToken := security.GenerateAdminToken(h.jwtCfg.Secret, admin.ID, admin.Email, h.jwtCfg.Expiry)
	if errToken != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign token failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"id":     admin.ID,
		"status": admin.Status,
	})
}
