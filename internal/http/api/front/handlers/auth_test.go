package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/masjidnet/MasjidAdminAPI/internal/audit"
	"github.com/masjidnet/MasjidAdminAPI/internal/config"
	dbpkg "github.com/masjidnet/MasjidAdminAPI/internal/db"
	"github.com/masjidnet/MasjidAdminAPI/internal/lifecycle"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	"github.com/masjidnet/MasjidAdminAPI/internal/rate"
	"gorm.io/gorm"
)

var testJWT = config.JWTConfig{Secret: "test-secret", Expiry: time.Hour, AdminExpiry: time.Hour}

func setupFront(t *testing.T) (*gorm.DB, *lifecycle.Engine, *models.Mosque) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	conn, errOpen := dbpkg.Open(":memory:")
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbpkg.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	eng := lifecycle.NewEngine(conn, audit.NewRecorder(conn), nil, config.DefaultPolicy)
	mosque, errCreate := eng.CreateMosque(context.Background(), "superadmin:test", lifecycle.MosqueInput{Name: "Al Noor", Location: "Old Town"})
	if errCreate != nil {
		t.Fatalf("create mosque: %v", errCreate)
	}
	return conn, eng, mosque
}

func jsonContext(t *testing.T, method, target string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	payload, errMarshal := json.Marshal(body)
	if errMarshal != nil {
		t.Fatalf("marshal body: %v", errMarshal)
	}
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestApplyCreatesPendingAndIssuesToken(t *testing.T) {
	conn, eng, mosque := setupFront(t)
	h := NewAuthHandler(conn, eng, testJWT, rate.NewLimiter(), config.DefaultPolicy)

	c, w := jsonContext(t, http.MethodPost, "/v0/front/apply", applyRequest{
		Name:     "Amina",
		Email:    "amina@example.com",
		Phone:    "+4912345",
		Password: "long-enough-pw",
		MosqueID: mosque.ID,
		Code:     mosque.VerificationCode,
	})
	h.Apply(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Token  string `json:"token"`
		Status string `json:"status"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if resp.Status != models.StatusPending {
		t.Fatalf("status = %q, want pending", resp.Status)
	}
}

func TestApplyWrongCodeRejected(t *testing.T) {
	conn, eng, mosque := setupFront(t)
	h := NewAuthHandler(conn, eng, testJWT, rate.NewLimiter(), config.DefaultPolicy)

	c, w := jsonContext(t, http.MethodPost, "/v0/front/apply", applyRequest{
		Name:     "Amina",
		Email:    "amina@example.com",
		Phone:    "+4912345",
		Password: "long-enough-pw",
		MosqueID: mosque.ID,
		Code:     "XXXXXXXX",
	})
	h.Apply(c)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestApplyThrottledPerEmail(t *testing.T) {
	conn, eng, mosque := setupFront(t)
	limiter := rate.NewLimiter()
	h := NewAuthHandler(conn, eng, testJWT, limiter, config.DefaultPolicy)

	limit := config.DefaultPolicy().ApplyPerHour
	for i := 0; i < limit; i++ {
		c, w := jsonContext(t, http.MethodPost, "/v0/front/apply", applyRequest{
			Name:     "Amina",
			Email:    "amina@example.com",
			Phone:    "+4912345",
			Password: "long-enough-pw",
			MosqueID: mosque.ID,
			Code:     "XXXXXXXX",
		})
		h.Apply(c)
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("attempt %d: status = %d", i, w.Code)
		}
	}

	c, w := jsonContext(t, http.MethodPost, "/v0/front/apply", applyRequest{
		Name:     "Amina",
		Email:    "amina@example.com",
		Phone:    "+4912345",
		Password: "long-enough-pw",
		MosqueID: mosque.ID,
		Code:     mosque.VerificationCode,
	})
	h.Apply(c)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
}

func TestLoginAnyStatus(t *testing.T) {
	conn, eng, mosque := setupFront(t)
	h := NewAuthHandler(conn, eng, testJWT, rate.NewLimiter(), config.DefaultPolicy)

	c, w := jsonContext(t, http.MethodPost, "/v0/front/apply", applyRequest{
		Name:     "Amina",
		Email:    "amina@example.com",
		Phone:    "+4912345",
		Password: "long-enough-pw",
		MosqueID: mosque.ID,
		Code:     mosque.VerificationCode,
	})
	h.Apply(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("apply status = %d", w.Code)
	}

	var applied struct {
		ID uint64 `json:"id"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &applied); errDecode != nil {
		t.Fatalf("decode apply response: %v", errDecode)
	}

	// Even a rejected applicant can still sign in to check their status.
	if _, errReject := eng.Reject(context.Background(), "superadmin:test", applied.ID, "incomplete documentation provided", true); errReject != nil {
		t.Fatalf("reject: %v", errReject)
	}

	c, w = jsonContext(t, http.MethodPost, "/v0/front/login", loginRequest{
		Email:    "amina@example.com",
		Password: "long-enough-pw",
	})
	h.Login(c)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Status string `json:"status"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode login response: %v", errDecode)
	}
	if resp.Status != models.StatusRejected {
		t.Fatalf("status = %q, want rejected", resp.Status)
	}

	c, w = jsonContext(t, http.MethodPost, "/v0/front/login", loginRequest{
		Email:    "amina@example.com",
		Password: "wrong-password",
	})
	h.Login(c)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d, want 401", w.Code)
	}
}
