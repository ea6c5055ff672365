package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Backend.Mode != BackendLocal {
		t.Errorf("Backend.Mode = %q, want %q", cfg.Backend.Mode, BackendLocal)
	}
	if cfg.Timer.TickInterval != time.Second {
		t.Errorf("TickInterval = %v, want 1s", cfg.Timer.TickInterval)
	}
	if cfg.Timer.SafetySaveInterval != 30*time.Second {
		t.Errorf("SafetySaveInterval = %v, want 30s", cfg.Timer.SafetySaveInterval)
	}
	if cfg.Timer.FallbackInterval != 5*time.Second {
		t.Errorf("FallbackInterval = %v, want 5s", cfg.Timer.FallbackInterval)
	}
	if cfg.Timer.AutoPauseOnBlur {
		t.Error("AutoPauseOnBlur = true, want false")
	}
	if cfg.Server.Port != 8787 || cfg.Server.NotificationTTL != 3500*time.Millisecond {
		t.Errorf("Server = %+v", cfg.Server)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.yaml")
	content := `
env: test
storage_path: /tmp/timer.db
user_id: u-42
backend:
  mode: remote
  base_url: https://example.supabase.co
  timeout: 3s
timer:
  safety_save_interval: 10s
  auto_pause_on_blur: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PROJECT_TIMER_BACKEND_API_KEY", "anon")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Env != "test" || cfg.UserID != "u-42" {
		t.Errorf("Env/UserID = %q/%q", cfg.Env, cfg.UserID)
	}
	if cfg.Backend.Mode != BackendRemote || cfg.Backend.Timeout != 3*time.Second {
		t.Errorf("Backend = %+v", cfg.Backend)
	}
	if cfg.Backend.APIKey != "anon" {
		t.Errorf("APIKey = %q, want env override", cfg.Backend.APIKey)
	}
	if cfg.Timer.SafetySaveInterval != 10*time.Second || !cfg.Timer.AutoPauseOnBlur {
		t.Errorf("Timer = %+v", cfg.Timer)
	}
	if cfg.Timer.TickInterval != time.Second {
		t.Errorf("TickInterval = %v, want default 1s", cfg.Timer.TickInterval)
	}
}

func TestValidate(t *testing.T) {
	base, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.Backend.Mode = "cloud" }},
		{"remote without url", func(c *Config) { c.Backend.Mode = BackendRemote }},
		{"zero tick", func(c *Config) { c.Timer.TickInterval = 0 }},
		{"negative interval", func(c *Config) { c.Timer.SafetySaveInterval = -time.Second }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() error = nil, want failure")
			}
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	cfg.UserID = "u-7"

	path := filepath.Join(t.TempDir(), "config", "local.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.UserID != "u-7" || loaded.Timer.SafetySaveInterval != 30*time.Second {
		t.Errorf("loaded = %+v", loaded)
	}
}
