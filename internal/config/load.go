package config

import (
	"os"

	"github.com/goccy/go-json"
)

type Config struct {
	Bot       BotConfig       `json:"bot"`
	Detection DetectionConfig `json:"detection"`
	Network   NetworkConfig   `json:"network"`
	Database  DatabaseConfig  `json:"database"`
	Logging   LoggingConfig   `json:"logging"`
	Runtime   RuntimeConfig   `json:"runtime"`
}

type BotConfig struct {
	Token    string `json:"token"`
	ClientID string `json:"client_id"`
}

type DetectionConfig struct {
	Enabled             bool `json:"enabled"`
	WindowMs            int  `json:"window_ms"`
	InactivityTTLSec    int  `json:"inactivity_ttl_sec"`
	DedupTTLSec         int  `json:"dedup_ttl_sec"`
	LockdownMinutes     int  `json:"lockdown_minutes"`
	AuditPollSec        int  `json:"audit_poll_sec"`
	SnapshotIntervalMin int  `json:"snapshot_interval_min"`
}

type NetworkConfig struct {
	HTTPPoolSize int    `json:"http_pool_size"`
	APIBaseURL   string `json:"api_base_url"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

type LoggingConfig struct {
	Level string `json:"level"`
	Path  string `json:"path"`
}

type RuntimeConfig struct {
	CPUIsolation bool `json:"cpu_isolation"`
	EngineCPU    int  `json:"engine_cpu"`
}

var globalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	globalConfig = cfg
	return cfg, nil
}

func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		cfg = DefaultConfig()
		applyEnvOverrides(cfg)
		globalConfig = cfg
	}
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		cfg.Bot.Token = token
	}
	if clientID := os.Getenv("CLIENT_ID"); clientID != "" {
		cfg.Bot.ClientID = clientID
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
}

func DefaultConfig() *Config {
	return &Config{
		Detection: DetectionConfig{
			Enabled:             true,
			WindowMs:            5000,
			InactivityTTLSec:    60,
			DedupTTLSec:         30,
			LockdownMinutes:     5,
			AuditPollSec:        30,
			SnapshotIntervalMin: 60,
		},
		Network: NetworkConfig{
			HTTPPoolSize: 8,
			APIBaseURL:   "https://discord.com/api/v10",
		},
		Database: DatabaseConfig{
			Path: "guildguard.db",
		},
		Logging: LoggingConfig{
			Level: "info",
			Path:  "guildguard.log",
		},
		Runtime: RuntimeConfig{
			CPUIsolation: false,
			EngineCPU:    1,
		},
	}
}

func Get() *Config {
	if globalConfig == nil {
		return DefaultConfig()
	}
	return globalConfig
}
