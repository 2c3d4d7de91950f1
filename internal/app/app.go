package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/masjidnet/MasjidAdminAPI/internal/audit"
	"github.com/masjidnet/MasjidAdminAPI/internal/config"
	"github.com/masjidnet/MasjidAdminAPI/internal/db"
	adminapi "github.com/masjidnet/MasjidAdminAPI/internal/http/api/admin"
	"github.com/masjidnet/MasjidAdminAPI/internal/http/api/front"
	"github.com/masjidnet/MasjidAdminAPI/internal/lifecycle"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	"github.com/masjidnet/MasjidAdminAPI/internal/notify"
	"github.com/masjidnet/MasjidAdminAPI/internal/rate"
	"github.com/masjidnet/MasjidAdminAPI/internal/security"
	"github.com/masjidnet/MasjidAdminAPI/internal/settings"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

// Migrate opens the database and runs migrations, then exits.
func Migrate(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(config.ResolveConfigPath(configPath))
	if errLoad != nil {
		return errLoad
	}
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the API server and blocks until ctx is cancelled.
func RunServer(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(config.ResolveConfigPath(configPath))
	if errLoad != nil {
		return errLoad
	}
	setupLogging(cfg.Log)

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errRefresh := settings.Refresh(ctx, conn); errRefresh != nil {
		return fmt.Errorf("load settings: %w", errRefresh)
	}
	if errSeed := ensureSuperAdmin(ctx, conn); errSeed != nil {
		return errSeed
	}

	var mailer notify.Mailer
	if strings.TrimSpace(cfg.SMTP.Host) != "" {
		mailer = notify.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		mailer = notify.NoopMailer{}
	}

	defaults := cfg.Policy
	policy := func() config.Policy { return settings.EffectivePolicy(defaults) }

	auditor := audit.NewRecorder(conn)
	engine := lifecycle.NewEngine(conn, auditor, mailer, policy)
	limiter := rate.NewLimiter()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	front.RegisterFrontRoutes(router, conn, engine, cfg.JWT, limiter, policy)
	adminapi.RegisterAdminRoutes(router, conn, engine, auditor, cfg.JWT)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("app: listening on %s", cfg.Server.Addr)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return <-errCh
	case errServe := <-errCh:
		return errServe
	}
}

// setupLogging configures logrus with optional file rotation.
func setupLogging(cfg config.LogConfig) {
	level, errParse := log.ParseLevel(cfg.Level)
	if errParse != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if strings.TrimSpace(cfg.File) != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	}
}

// ensureSuperAdmin seeds the first super-admin account from the environment
// when the table is empty, so a fresh deployment can sign in.
func ensureSuperAdmin(ctx context.Context, conn *gorm.DB) error {
	var count int64
	if errCount := conn.WithContext(ctx).Model(&models.SuperAdmin{}).Count(&count).Error; errCount != nil {
		return fmt.Errorf("count super admins: %w", errCount)
	}
	if count > 0 {
		return nil
	}

	username := strings.TrimSpace(os.Getenv("MASJID_ADMIN_USER"))
	password := os.Getenv("MASJID_ADMIN_PASSWORD")
	if username == "" || password == "" {
		log.Warn("app: no super admin exists and MASJID_ADMIN_USER/MASJID_ADMIN_PASSWORD are not set")
		return nil
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return fmt.Errorf("hash seed password: %w", errHash)
	}
	account := models.SuperAdmin{Username: username, Password: hash, Active: true}
	if errCreate := conn.WithContext(ctx).Create(&account).Error; errCreate != nil {
		return fmt.Errorf("seed super admin: %w", errCreate)
	}
	log.Infof("app: seeded super admin %q", username)
	return nil
}

// requestLogger logs each request through logrus instead of gin's default
// writer.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}).Debug("http request")
	}
}
