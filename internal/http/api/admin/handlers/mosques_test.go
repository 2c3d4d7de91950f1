package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
)

func TestCreateMosqueReturnsCode(t *testing.T) {
	conn, eng, account := setupAdmin(t)
	h := NewMosqueHandler(conn, eng)

	c, w := jsonContext(t, http.MethodPost, "/v0/admin/mosques", createMosqueRequest{
		Name:     "Al Noor",
		Location: "Old Town",
	})
	c.Set("super_admin", account)
	h.Create(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		VerificationCode struct {
			Code string `json:"code"`
		} `json:"verification_code"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.VerificationCode.Code == "" {
		t.Fatal("expected a verification code in the response")
	}
}

func TestRegenerateCodeEndpointDemotesApprovedAdmin(t *testing.T) {
	conn, eng, account := setupAdmin(t)
	mosque, admin := seedPendingAdmin(t, eng, conn)
	if _, errApprove := eng.Approve(context.Background(), "superadmin:operator", admin.ID, ""); errApprove != nil {
		t.Fatalf("approve: %v", errApprove)
	}
	h := NewMosqueHandler(conn, eng)

	c, w := jsonContext(t, http.MethodPost, "/v0/admin/mosques/1/regenerate-code", nil)
	c.Set("super_admin", account)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(mosque.ID, 10)}}
	h.RegenerateCode(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		VerificationCode struct {
			Code string `json:"code"`
		} `json:"verification_code"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.VerificationCode.Code == mosque.VerificationCode {
		t.Fatal("code was not rotated")
	}

	var demoted models.Admin
	if errFind := conn.First(&demoted, admin.ID).Error; errFind != nil {
		t.Fatalf("reload admin: %v", errFind)
	}
	if demoted.Status != models.StatusCodeRegenerated {
		t.Fatalf("status = %s, want code_regenerated", demoted.Status)
	}
}

func TestDeleteMosqueEndpointCascades(t *testing.T) {
	conn, eng, account := setupAdmin(t)
	mosque, admin := seedPendingAdmin(t, eng, conn)
	h := NewMosqueHandler(conn, eng)

	c, w := jsonContext(t, http.MethodDelete, "/v0/admin/mosques/1", nil)
	c.Set("super_admin", account)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(mosque.ID, 10)}}
	h.Delete(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	var cascaded models.Admin
	if errFind := conn.First(&cascaded, admin.ID).Error; errFind != nil {
		t.Fatalf("reload admin: %v", errFind)
	}
	if cascaded.Status != models.StatusMosqueDeleted {
		t.Fatalf("status = %s, want mosque_deleted", cascaded.Status)
	}

	// Deleting again is a 404.
	c, w = jsonContext(t, http.MethodDelete, "/v0/admin/mosques/1", nil)
	c.Set("super_admin", account)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(mosque.ID, 10)}}
	h.Delete(c)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", w.Code)
	}
}
