package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.AgentWaitInterval != 500*time.Millisecond {
		t.Errorf("agent wait interval = %v, want 500ms", cfg.AgentWaitInterval)
	}
	if cfg.AgentWaitAttempts != 10 {
		t.Errorf("agent wait attempts = %d, want 10", cfg.AgentWaitAttempts)
	}
	if cfg.PushEnabled() {
		t.Error("push should be disabled without VAPID keys")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STUDYHABIT_PORT", "9000")
	t.Setenv("STUDYHABIT_TIMEZONE", "Asia/Seoul")
	t.Setenv("STUDYHABIT_VAPID_PUBLIC_KEY", "pub")
	t.Setenv("STUDYHABIT_VAPID_PRIVATE_KEY", "priv")
	t.Setenv("STUDYHABIT_ALLOWED_ORIGINS", "localhost:5173,study.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("port = %q, want %q", cfg.Port, "9000")
	}
	if !cfg.PushEnabled() {
		t.Error("push should be enabled")
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("allowed origins = %v, want 2 entries", cfg.AllowedOrigins)
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc.String() != "Asia/Seoul" {
		t.Errorf("location = %q, want Asia/Seoul", loc.String())
	}
}

func TestValidateHalfVAPID(t *testing.T) {
	t.Setenv("STUDYHABIT_VAPID_PUBLIC_KEY", "pub")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when only the public key is set")
	}
}

func TestValidateBadTimezone(t *testing.T) {
	t.Setenv("STUDYHABIT_TIMEZONE", "Mars/Olympus_Mons")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestLocationLocal(t *testing.T) {
	cfg := Config{Timezone: "Local"}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc != time.Local {
		t.Errorf("location = %v, want time.Local", loc)
	}
}
