package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/masjidnet/MasjidAdminAPI/internal/config"
	"github.com/masjidnet/MasjidAdminAPI/internal/settings"
)

func TestSettingsUpdateOverridesPolicy(t *testing.T) {
	conn, _, _ := setupAdmin(t)
	if errRefresh := settings.Refresh(context.Background(), conn); errRefresh != nil {
		t.Fatalf("refresh: %v", errRefresh)
	}
	h := NewSettingsHandler(conn)

	c, w := jsonContext(t, http.MethodPut, "/v0/admin/settings", map[string]int{
		settings.MaxRejectionsKey: 5,
	})
	h.Update(c)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	effective := settings.EffectivePolicy(config.DefaultPolicy())
	if effective.MaxRejections != 5 {
		t.Fatalf("max rejections = %d, want 5", effective.MaxRejections)
	}
	if effective.CodeLength != config.DefaultPolicy().CodeLength {
		t.Fatalf("code length changed unexpectedly: %d", effective.CodeLength)
	}

	// Null deletes the override and the default comes back.
	c, w = jsonContext(t, http.MethodPut, "/v0/admin/settings", map[string]json.RawMessage{
		settings.MaxRejectionsKey: json.RawMessage("null"),
	})
	h.Update(c)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d body=%s", w.Code, w.Body.String())
	}
	effective = settings.EffectivePolicy(config.DefaultPolicy())
	if effective.MaxRejections != config.DefaultPolicy().MaxRejections {
		t.Fatalf("max rejections = %d, want default", effective.MaxRejections)
	}
}

func TestSettingsUpdateRejectsUnknownKeyAndBadValue(t *testing.T) {
	conn, _, _ := setupAdmin(t)
	h := NewSettingsHandler(conn)

	c, w := jsonContext(t, http.MethodPut, "/v0/admin/settings", map[string]int{"NOT_A_KEY": 1})
	h.Update(c)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown key status = %d, want 400", w.Code)
	}

	c, w = jsonContext(t, http.MethodPut, "/v0/admin/settings", map[string]int{settings.CodeLengthKey: -3})
	h.Update(c)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad value status = %d, want 400", w.Code)
	}
}
