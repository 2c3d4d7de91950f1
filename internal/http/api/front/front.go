package front

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/masjidnet/MasjidAdminAPI/internal/config"
	"github.com/masjidnet/MasjidAdminAPI/internal/http/api/front/handlers"
	"github.com/masjidnet/MasjidAdminAPI/internal/lifecycle"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	"github.com/masjidnet/MasjidAdminAPI/internal/rate"
	"github.com/masjidnet/MasjidAdminAPI/internal/security"
	"gorm.io/gorm"
)

// RegisterFrontRoutes registers public and authenticated applicant routes.
func RegisterFrontRoutes(r *gin.Engine, db *gorm.DB, eng *lifecycle.Engine, jwtCfg config.JWTConfig, limiter *rate.Limiter, policy lifecycle.PolicyFunc) {
	if r == nil || db == nil || eng == nil {
		return
	}
	if limiter == nil {
		limiter = rate.NewLimiter()
	}
	if policy == nil {
		policy = config.DefaultPolicy
	}

	front := r.Group("/v0/front")

	mosqueHandler := handlers.NewMosqueHandler(db)
	front.GET("/mosques", mosqueHandler.List)

	authHandler := handlers.NewAuthHandler(db, eng, jwtCfg, limiter, policy)
	front.POST("/apply", authHandler.Apply)
	front.POST("/login", authHandler.Login)

	authed := front.Group("")
	authed.Use(adminAuthMiddleware(db, jwtCfg))

	statusHandler := handlers.NewStatusHandler(db)
	authed.GET("/status", statusHandler.Get)

	lifecycleHandler := handlers.NewLifecycleHandler(eng, limiter, policy)
	authed.POST("/reapply", lifecycleHandler.Reapply)
	authed.POST("/revalidate", lifecycleHandler.Revalidate)
}

// adminAuthMiddleware validates applicant JWTs and loads the admin row into
// the context under "admin".
func adminAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
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

		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var admin models.Admin
		if errFind := db.WithContext(c.Request.Context()).First(&admin, claims.AdminID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account no longer exists"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "load account failed"})
			return
		}

		c.Set("admin", &admin)
		c.Next()
	}
}
