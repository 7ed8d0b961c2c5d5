package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. TASKDASH_BASE_URL
const EnvPrefix = "TASKDASH"

// Config represents the full taskdash configuration
type Config struct {
	// Root URL of the task API
	BaseURL        string        `yaml:"base_url" mapstructure:"base_url"`
	DataDir        string        `yaml:"data_dir" mapstructure:"data_dir"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`

	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	UI        UIConfig        `yaml:"ui" mapstructure:"ui"`
	DevServer DevServerConfig `yaml:"dev_server" mapstructure:"dev_server"`
}

// LogConfig configures the log file
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file" mapstructure:"file"`
}

// UIConfig toggles optional controller behaviour
type UIConfig struct {
	// NotifyAllErrors surfaces every failed load or mutation as a notification
	NotifyAllErrors bool `yaml:"notify_all_errors" mapstructure:"notify_all_errors"`
	// GuardInFlight rejects a second concurrent mutation of the same kind
	GuardInFlight bool `yaml:"guard_in_flight" mapstructure:"guard_in_flight"`
}

// DevServerConfig configures the in-memory development backend
type DevServerConfig struct {
	Addr      string        `yaml:"addr" mapstructure:"addr"`
	JWTSecret string        `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "http://localhost:3000",
		DataDir:        filepath.Join("~", ".taskdash"),
		RequestTimeout: 10 * time.Second,
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join("~", ".taskdash", "taskdash.log"),
		},
		DevServer: DevServerConfig{
			Addr:      ":3000",
			JWTSecret: "taskdash-dev-secret",
			TokenTTL:  24 * time.Hour,
		},
	}
}

// DefaultPath returns ~/.taskdash/config.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".taskdash", "config.yaml")
	}
	return filepath.Join(home, ".taskdash", "config.yaml")
}

// Load reads the config file at path (DefaultPath when empty), applies
// TASKDASH_* environment overrides and expands ~ in path settings.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.Log.File = expandHome(cfg.Log.File)

	return cfg, cfg.Validate()
}

// Validate checks settings that would otherwise fail late
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url must not be empty")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base_url %q must start with http:// or https://", c.BaseURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// DatabasePath returns the sqlite file holding the cookie jar
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "taskdash.db")
}

// setDefaults registers every key so env overrides work without a file
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("ui.notify_all_errors", d.UI.NotifyAllErrors)
	v.SetDefault("ui.guard_in_flight", d.UI.GuardInFlight)
	v.SetDefault("dev_server.addr", d.DevServer.Addr)
	v.SetDefault("dev_server.jwt_secret", d.DevServer.JWTSecret)
	v.SetDefault("dev_server.token_ttl", d.DevServer.TokenTTL)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
