package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/masjidnet/MasjidAdminAPI/internal/audit"
	"github.com/masjidnet/MasjidAdminAPI/internal/config"
	"github.com/masjidnet/MasjidAdminAPI/internal/http/api/admin/handlers"
	"github.com/masjidnet/MasjidAdminAPI/internal/lifecycle"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	"github.com/masjidnet/MasjidAdminAPI/internal/security"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers super-admin routes.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, eng *lifecycle.Engine, auditor *audit.Recorder, jwtCfg config.JWTConfig) {
	if r == nil || db == nil || eng == nil {
		return
	}

	adminGroup := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	adminGroup.POST("/login", authHandler.Login)

	authed := adminGroup.Group("")
	authed.Use(superAdminAuthMiddleware(db, jwtCfg))

	mfaHandler := handlers.NewMFAHandler(db)
	authed.GET("/mfa/status", mfaHandler.Status)
	authed.POST("/mfa/totp/prepare", mfaHandler.PrepareTOTP)
	authed.POST("/mfa/totp/confirm", mfaHandler.ConfirmTOTP)
	authed.POST("/mfa/totp/disable", mfaHandler.DisableTOTP)

	mosqueHandler := handlers.NewMosqueHandler(db, eng)
	authed.POST("/mosques", mosqueHandler.Create)
	authed.GET("/mosques", mosqueHandler.List)
	authed.GET("/mosques/:id", mosqueHandler.Get)
	authed.DELETE("/mosques/:id", mosqueHandler.Delete)
	authed.POST("/mosques/:id/regenerate-code", mosqueHandler.RegenerateCode)

	applicationHandler := handlers.NewApplicationHandler(db, eng)
	authed.GET("/applications", applicationHandler.List)
	authed.POST("/applications/:id/approve", applicationHandler.Approve)
	authed.POST("/applications/:id/reject", applicationHandler.Reject)
	authed.POST("/admins/:id/remove", applicationHandler.Remove)
	authed.POST("/admins/:id/allow-reapply", applicationHandler.AllowReapply)

	auditHandler := handlers.NewAuditHandler(auditor)
	authed.GET("/audit", auditHandler.List)

	settingsHandler := handlers.NewSettingsHandler(db)
	authed.GET("/settings", settingsHandler.Get)
	authed.PUT("/settings", settingsHandler.Update)
}

// superAdminAuthMiddleware validates super-admin JWTs and loads the account
// into the context under "super_admin".
func superAdminAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseSuperAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var account models.SuperAdmin
		if errFind := db.WithContext(c.Request.Context()).First(&account, claims.SuperAdminID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account no longer exists"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "load account failed"})
			return
		}
		if !account.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}

		c.Set("super_admin", &account)
		c.Next()
	}
}
