package config

import (
	"errors"
	"fmt"
	"os"

	"menupos/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig              `yaml:"app"`
	Remote     RemoteConfig           `yaml:"remote"`
	Probe      ProbeConfig            `yaml:"probe"`
	Storage    StorageConfig          `yaml:"storage"`
	Session    SessionConfig          `yaml:"session"`
	Redis      RedisConfig            `yaml:"redis"`
	Cache      CacheConfig            `yaml:"cache"`
	Sync       SyncConfig             `yaml:"sync"`
	Bridge     BridgeConfig           `yaml:"bridge"`
	Monitoring MonitoringConfig       `yaml:"monitoring"`
	Logging    LoggingConfig          `yaml:"logging"`
	Exports    ExportConfig           `yaml:"exports"`
	Printers   []models.PrinterConfig `yaml:"printers"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

// RemoteConfig points at the menu/order service this client talks to.
type RemoteConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ProbeConfig drives the connectivity monitor.
type ProbeConfig struct {
	URL             string `yaml:"url"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	IntervalSeconds int    `yaml:"interval_seconds"`
}

// StorageConfig selects the durable order queue backend. Driver is either
// "sqlite" or "file" (whole-file JSON store).
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type SessionConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type CacheConfig struct {
	MenuTTLSeconds int `yaml:"menu_ttl_seconds"`
}

type SyncConfig struct {
	IntervalSeconds      int `yaml:"interval_seconds"`
	SubmitTimeoutSeconds int `yaml:"submit_timeout_seconds"`
}

// BridgeConfig configures the loopback HTTP API consumed by the UI shell.
type BridgeConfig struct {
	Enabled   bool                  `yaml:"enabled"`
	Port      int                   `yaml:"port"`
	Auth      BridgeAuthConfig      `yaml:"auth"`
	RateLimit BridgeRateLimitConfig `yaml:"rate_limit"`
}

type BridgeAuthConfig struct {
	Enabled bool     `yaml:"enabled"`
	Header  string   `yaml:"header"`
	APIKeys []string `yaml:"api_keys"`
}

type BridgeRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; YAML values reference it via ${VAR}
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Remote.BaseURL == "" {
		return errors.New("remote base_url is required")
	}

	if c.Storage.Path == "" {
		return errors.New("storage path is required")
	}

	if c.Storage.Driver != "sqlite" && c.Storage.Driver != "file" {
		return fmt.Errorf("unknown storage driver: %s", c.Storage.Driver)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "menupos"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Session.Path == "" {
		c.Session.Path = "data/preferences.json"
	}
	if c.Remote.TimeoutSeconds == 0 {
		c.Remote.TimeoutSeconds = models.DefaultSubmitTimeoutSeconds
	}
	if c.Probe.URL == "" {
		c.Probe.URL = models.DefaultProbeURL
	}
	if c.Probe.TimeoutSeconds == 0 {
		c.Probe.TimeoutSeconds = models.DefaultProbeTimeoutSeconds
	}
	if c.Probe.IntervalSeconds == 0 {
		c.Probe.IntervalSeconds = models.DefaultSyncIntervalSeconds
	}
	if c.Cache.MenuTTLSeconds == 0 {
		c.Cache.MenuTTLSeconds = models.MenuCacheTTL
	}
	if c.Sync.IntervalSeconds == 0 {
		c.Sync.IntervalSeconds = models.DefaultSyncIntervalSeconds
	}
	if c.Sync.SubmitTimeoutSeconds == 0 {
		c.Sync.SubmitTimeoutSeconds = models.DefaultSubmitTimeoutSeconds
	}
	if c.Bridge.Port == 0 {
		c.Bridge.Port = 3001
	}
	if c.Bridge.Auth.Header == "" {
		c.Bridge.Auth.Header = "x-api-key"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
