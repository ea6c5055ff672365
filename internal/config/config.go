package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// Backend modes
const (
	BackendRemote = "remote"
	BackendLocal  = "local"
	BackendMemory = "memory"
)

type Config struct {
	Env         string        `yaml:"env" env:"PROJECT_TIMER_ENV" env-default:"local"`
	StoragePath string        `yaml:"storage_path" env:"PROJECT_TIMER_STORAGE_PATH" env-default:"./data/project-timer.db"`
	UserID      string        `yaml:"user_id" env:"PROJECT_TIMER_USER_ID"`
	Log         LogConfig     `yaml:"log"`
	Backend     BackendConfig `yaml:"backend"`
	Timer       TimerConfig   `yaml:"timer"`
	Server      ServerConfig  `yaml:"server"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"PROJECT_TIMER_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"PROJECT_TIMER_LOG_FORMAT" env-default:"console"`
	// File receives log output instead of stderr when set
	File string `yaml:"file" env:"PROJECT_TIMER_LOG_FILE"`
}

type BackendConfig struct {
	Mode        string        `yaml:"mode" env:"PROJECT_TIMER_BACKEND_MODE" env-default:"local"`
	BaseURL     string        `yaml:"base_url" env:"PROJECT_TIMER_BACKEND_URL"`
	APIKey      string        `yaml:"api_key" env:"PROJECT_TIMER_BACKEND_API_KEY"`
	AccessToken string        `yaml:"access_token" env:"PROJECT_TIMER_ACCESS_TOKEN"`
	Timeout     time.Duration `yaml:"timeout" env:"PROJECT_TIMER_BACKEND_TIMEOUT" env-default:"10s"`
}

type TimerConfig struct {
	TickInterval       time.Duration `yaml:"tick_interval" env:"PROJECT_TIMER_TICK_INTERVAL" env-default:"1s"`
	SafetySaveInterval time.Duration `yaml:"safety_save_interval" env:"PROJECT_TIMER_SAFETY_SAVE_INTERVAL" env-default:"30s"`
	FallbackInterval   time.Duration `yaml:"fallback_interval" env:"PROJECT_TIMER_FALLBACK_INTERVAL" env-default:"5s"`
	SaveTimeout        time.Duration `yaml:"save_timeout" env:"PROJECT_TIMER_SAVE_TIMEOUT" env-default:"5s"`
	AutoPauseOnBlur    bool          `yaml:"auto_pause_on_blur" env:"PROJECT_TIMER_AUTO_PAUSE_ON_BLUR"`
}

type ServerConfig struct {
	Enabled         bool          `yaml:"enabled" env:"PROJECT_TIMER_SERVER_ENABLED"`
	Port            int           `yaml:"port" env:"PROJECT_TIMER_SERVER_PORT" env-default:"8787"`
	NotificationTTL time.Duration `yaml:"notification_ttl" env:"PROJECT_TIMER_NOTIFICATION_TTL" env-default:"3500ms"`
}

// LoadConfig reads the YAML file at path, then applies environment overrides and
// defaults. A missing file is not an error; the configuration then comes from the
// environment alone.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with every default applied.
func Default() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return &cfg, nil
}

// Validate checks values that cannot be expressed as defaults.
func (c *Config) Validate() error {
	switch c.Backend.Mode {
	case BackendRemote:
		if c.Backend.BaseURL == "" {
			return fmt.Errorf("backend.base_url is required in %s mode", BackendRemote)
		}
	case BackendLocal, BackendMemory:
	default:
		return fmt.Errorf("unknown backend.mode %q", c.Backend.Mode)
	}

	if c.StoragePath == "" {
		return errors.New("storage_path is required")
	}
	if c.Timer.TickInterval <= 0 {
		return errors.New("timer.tick_interval must be positive")
	}
	if c.Timer.SafetySaveInterval < 0 || c.Timer.FallbackInterval < 0 || c.Timer.SaveTimeout < 0 {
		return errors.New("timer intervals must not be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	return nil
}

// Save writes cfg to path as YAML, creating the directory if needed.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
