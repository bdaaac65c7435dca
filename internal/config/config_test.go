package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("WIZARD_TOKEN_TTL", "not-a-duration")
	t.Setenv("AUTO_MIGRATE", "")
	t.Setenv("RESERVED_GROUP_SLUGS", "")

	cfg := Load()
	if cfg.WizardTokenTTL != 24*time.Hour {
		t.Errorf("WizardTokenTTL = %v, want 24h", cfg.WizardTokenTTL)
	}
	if !cfg.AutoMigrate {
		t.Error("AutoMigrate should default to true")
	}
	if cfg.ReservedSlugs != nil {
		t.Errorf("ReservedSlugs = %v, want nil", cfg.ReservedSlugs)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("WIZARD_TOKEN_TTL", "90m")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("RESERVED_GROUP_SLUGS", " feed, ,events ")

	cfg := Load()
	if !cfg.IsProduction() {
		t.Error("expected production config")
	}
	if cfg.WizardTokenTTL != 90*time.Minute {
		t.Errorf("WizardTokenTTL = %v, want 90m", cfg.WizardTokenTTL)
	}
	if cfg.AutoMigrate {
		t.Error("AutoMigrate should be false")
	}
	if want := []string{"feed", "events"}; !reflect.DeepEqual(cfg.ReservedSlugs, want) {
		t.Errorf("ReservedSlugs = %v, want %v", cfg.ReservedSlugs, want)
	}
}
