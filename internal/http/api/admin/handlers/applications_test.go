package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
)

func TestApproveEndpoint(t *testing.T) {
	conn, eng, account := setupAdmin(t)
	_, admin := seedPendingAdmin(t, eng, conn)
	h := NewApplicationHandler(conn, eng)

	c, w := jsonContext(t, http.MethodPost, "/v0/admin/applications/1/approve", nil)
	c.Set("super_admin", account)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(admin.ID, 10)}}
	h.Approve(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Status string `json:"status"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.Status != models.StatusApproved {
		t.Fatalf("status = %q, want approved", resp.Status)
	}
}

func TestRejectEndpointValidatesReason(t *testing.T) {
	conn, eng, account := setupAdmin(t)
	_, admin := seedPendingAdmin(t, eng, conn)
	h := NewApplicationHandler(conn, eng)

	idParam := gin.Params{{Key: "id", Value: strconv.FormatUint(admin.ID, 10)}}

	c, w := jsonContext(t, http.MethodPost, "/v0/admin/applications/1/reject", reasonRequest{Reason: "too bad"})
	c.Set("super_admin", account)
	c.Params = idParam
	h.Reject(c)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("short reason status = %d, want 400", w.Code)
	}

	c, w = jsonContext(t, http.MethodPost, "/v0/admin/applications/1/reject", reasonRequest{Reason: "incomplete documentation provided"})
	c.Set("super_admin", account)
	c.Params = idParam
	h.Reject(c)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	// Rejecting again hits the wrong-status guard.
	c, w = jsonContext(t, http.MethodPost, "/v0/admin/applications/1/reject", reasonRequest{Reason: "incomplete documentation provided"})
	c.Set("super_admin", account)
	c.Params = idParam
	h.Reject(c)
	if w.Code != http.StatusConflict {
		t.Fatalf("double reject status = %d, want 409", w.Code)
	}
}

func TestRejectWithoutExplicitPermissionClosesReapplication(t *testing.T) {
	conn, eng, account := setupAdmin(t)
	_, admin := seedPendingAdmin(t, eng, conn)
	h := NewApplicationHandler(conn, eng)

	c, w := jsonContext(t, http.MethodPost, "/v0/admin/applications/1/reject", reasonRequest{Reason: "incomplete documentation provided"})
	c.Set("super_admin", account)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(admin.ID, 10)}}
	h.Reject(c)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	var rejected models.Admin
	if errFind := conn.First(&rejected, admin.ID).Error; errFind != nil {
		t.Fatalf("reload admin: %v", errFind)
	}
	if rejected.CanReapply {
		t.Fatal("omitting allow_reapply must leave the gate closed")
	}
}

func TestRejectCanGrantReapplication(t *testing.T) {
	conn, eng, account := setupAdmin(t)
	_, admin := seedPendingAdmin(t, eng, conn)
	h := NewApplicationHandler(conn, eng)

	granted := true
	c, w := jsonContext(t, http.MethodPost, "/v0/admin/applications/1/reject", reasonRequest{
		Reason:       "incomplete documentation provided",
		AllowReapply: &granted,
	})
	c.Set("super_admin", account)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(admin.ID, 10)}}
	h.Reject(c)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	var rejected models.Admin
	if errFind := conn.First(&rejected, admin.ID).Error; errFind != nil {
		t.Fatalf("reload admin: %v", errFind)
	}
	if !rejected.CanReapply {
		t.Fatal("explicit allow_reapply=true must keep the gate open")
	}
}

func TestApplicationListFiltersByStatus(t *testing.T) {
	conn, eng, _ := setupAdmin(t)
	seedPendingAdmin(t, eng, conn)
	h := NewApplicationHandler(conn, eng)

	c, w := jsonContext(t, http.MethodGet, "/v0/admin/applications?status=pending", nil)
	h.List(c)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Items []struct {
			Status string `json:"status"`
		} `json:"items"`
		Total int64 `json:"total"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.Total != 1 || len(resp.Items) != 1 || resp.Items[0].Status != models.StatusPending {
		t.Fatalf("unexpected response: %+v", resp)
	}

	c, w = jsonContext(t, http.MethodGet, "/v0/admin/applications?status=approved", nil)
	h.List(c)
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.Total != 0 {
		t.Fatalf("approved total = %d, want 0", resp.Total)
	}
}
