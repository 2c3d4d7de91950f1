package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	"github.com/pquerna/otp/totp"
)

func TestSuperAdminLogin(t *testing.T) {
	conn, _, _ := setupAdmin(t)
	h := NewAuthHandler(conn, testJWT)

	c, w := jsonContext(t, http.MethodPost, "/v0/admin/login", loginRequest{
		Username: "operator",
		Password: "operator-pw",
	})
	h.Login(c)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.Token == "" {
		t.Fatal("expected a token")
	}

	c, w = jsonContext(t, http.MethodPost, "/v0/admin/login", loginRequest{
		Username: "operator",
		Password: "wrong",
	})
	h.Login(c)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d, want 401", w.Code)
	}
}

func TestSuperAdminLoginRequiresTOTPWhenEnabled(t *testing.T) {
	conn, _, account := setupAdmin(t)
	h := NewAuthHandler(conn, testJWT)

	key, errGen := totp.Generate(totp.GenerateOpts{Issuer: "MasjidAdmin", AccountName: account.Username})
	if errGen != nil {
		t.Fatalf("generate totp: %v", errGen)
	}
	if errUpdate := conn.Model(&models.SuperAdmin{}).Where("id = ?", account.ID).
		Update("totp_secret", key.Secret()).Error; errUpdate != nil {
		t.Fatalf("enable totp: %v", errUpdate)
	}

	c, w := jsonContext(t, http.MethodPost, "/v0/admin/login", loginRequest{
		Username: "operator",
		Password: "operator-pw",
	})
	h.Login(c)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without totp code", w.Code)
	}

	code, errCode := totp.GenerateCode(key.Secret(), time.Now())
	if errCode != nil {
		t.Fatalf("generate code: %v", errCode)
	}
	c, w = jsonContext(t, http.MethodPost, "/v0/admin/login", loginRequest{
		Username: "operator",
		Password: "operator-pw",
		TOTPCode: code,
	})
	h.Login(c)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}
