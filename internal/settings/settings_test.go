package settings

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/masjidnet/MasjidAdminAPI/internal/config"
	"github.com/masjidnet/MasjidAdminAPI/internal/models"
	"gorm.io/gorm"
)

func TestEffectivePolicyUsesDefaultsWhenSnapshotEmpty(t *testing.T) {
	Store(time.Now().UTC(), nil)

	defaults := config.DefaultPolicy()
	policy := EffectivePolicy(defaults)
	if policy != defaults {
		t.Fatalf("policy = %+v, want defaults %+v", policy, defaults)
	}
}

func TestRefreshAppliesOverrides(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(&models.Setting{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	row := models.Setting{Key: MaxRejectionsKey, Value: "5"}
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		t.Fatalf("create setting: %v", errCreate)
	}

	if errRefresh := Refresh(context.Background(), conn); errRefresh != nil {
		t.Fatalf("refresh: %v", errRefresh)
	}
	t.Cleanup(func() { Store(time.Now().UTC(), nil) })

	policy := EffectivePolicy(config.DefaultPolicy())
	if policy.MaxRejections != 5 {
		t.Fatalf("MaxRejections = %d, want 5", policy.MaxRejections)
	}
	if policy.CodeTTLDays != config.DefaultPolicy().CodeTTLDays {
		t.Fatalf("CodeTTLDays should keep its default")
	}
}

func TestIntValueIgnoresMalformed(t *testing.T) {
	Store(time.Now().UTC(), map[string]json.RawMessage{
		MaxRejectionsKey: json.RawMessage(`"not a number"`),
	})
	t.Cleanup(func() { Store(time.Now().UTC(), nil) })

	if got := IntValue(MaxRejectionsKey, 3); got != 3 {
		t.Fatalf("IntValue = %d, want fallback 3", got)
	}
}
