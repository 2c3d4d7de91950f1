package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/masjidnet/MasjidAdminAPI/internal/audit"
	"github.com/masjidnet/MasjidAdminAPI/internal/config"
	dbpkg "github.com/masjidnet/MasjidAdminAPI/internal/db"
	"github.com/masjidnet/MasjidAdminAPI/internal/lifecycle"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	"github.com/masjidnet/MasjidAdminAPI/internal/security"
	"gorm.io/gorm"
)

var testJWT = config.JWTConfig{Secret: "test-secret", Expiry: time.Hour, AdminExpiry: time.Hour}

func setupAdmin(t *testing.T) (*gorm.DB, *lifecycle.Engine, *models.SuperAdmin) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	conn, errOpen := dbpkg.Open(":memory:")
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbpkg.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}

	hash, errHash := security.HashPassword("operator-pw")
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	account := models.SuperAdmin{Username: "operator", Password: hash, Active: true}
	if errCreate := conn.Create(&account).Error; errCreate != nil {
		t.Fatalf("create super admin: %v", errCreate)
	}

	eng := lifecycle.NewEngine(conn, audit.NewRecorder(conn), nil, config.DefaultPolicy)
	return conn, eng, &account
}

func jsonContext(t *testing.T, method, target string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var payload []byte
	if body != nil {
		var errMarshal error
		payload, errMarshal = json.Marshal(body)
		if errMarshal != nil {
			t.Fatalf("marshal body: %v", errMarshal)
		}
	}
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func seedPendingAdmin(t *testing.T, eng *lifecycle.Engine, conn *gorm.DB) (*models.Mosque, *models.Admin) {
	t.Helper()
	mosque, errCreate := eng.CreateMosque(context.Background(), "superadmin:operator", lifecycle.MosqueInput{Name: "Al Noor", Location: "Old Town"})
	if errCreate != nil {
		t.Fatalf("create mosque: %v", errCreate)
	}
	admin, errApply := eng.Apply(context.Background(), lifecycle.ApplyInput{
		Name:         "Amina",
		Email:        "amina@example.com",
		Phone:        "+4912345",
		PasswordHash: "$2a$12$fakehash",
		MosqueID:     mosque.ID,
		Code:         mosque.VerificationCode,
	})
	if errApply != nil {
		t.Fatalf("apply: %v", errApply)
	}
	return mosque, admin
}
