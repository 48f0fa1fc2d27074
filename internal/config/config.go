package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// unconfiguredToken marks a CasaTunes URI that was never filled in. Some
// installer templates ship the literal string "undefined" in the URI field,
// so a substring check catches both the empty and the placeholder case.
const unconfiguredToken = "undefined"

// Config holds the base bridge configuration.
type Config struct {
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	SQLiteDBPath string `yaml:"sqlite_db_path"`

	// CasaTunesURI is the base URI of the CasaTunes HTTP API, e.g.
	// http://192.168.1.20:8735/api/v1. All endpoints are relative to it.
	CasaTunesURI       string `yaml:"casatunes_uri"`
	CasaTunesTimeoutMs int    `yaml:"casatunes_timeout_ms"`

	// RefreshSchedule is a cron expression (robfig/cron syntax, descriptors
	// like "@every 60s" allowed) driving periodic rediscovery cycles.
	RefreshSchedule string `yaml:"refresh_schedule"`

	JWTSecret                string `yaml:"jwt_secret"`
	JWTAccessTokenExpirySec  int    `yaml:"jwt_access_token_expiry_sec"`
	JWTRefreshTokenExpirySec int    `yaml:"jwt_refresh_token_expiry_sec"`
	AllowTestMode            bool   `yaml:"allow_test_mode"`
}

// CasaTunesConfigured reports whether the service URI has a usable value.
// Absence and the "undefined" placeholder both count as not configured.
func (cfg Config) CasaTunesConfigured() bool {
	uri := strings.TrimSpace(cfg.CasaTunesURI)
	if uri == "" {
		return false
	}
	return !strings.Contains(uri, unconfiguredToken)
}

// Load reads configuration from environment variables with defaults,
// applying an optional YAML overlay file first (BRIDGE_CONFIG_FILE).
// Environment variables win over the file.
func Load() (Config, error) {
	cfg := Config{
		Host:                     "0.0.0.0",
		Port:                     "9200",
		SQLiteDBPath:             "./data/casatunes-bridge.db",
		CasaTunesTimeoutMs:       5000,
		RefreshSchedule:          "@every 60s",
		JWTAccessTokenExpirySec:  3600,
		JWTRefreshTokenExpirySec: 2592000,
	}

	if path := os.Getenv("BRIDGE_CONFIG_FILE"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	cfg.Host = envString("HOST", cfg.Host)
	cfg.Port = envString("PORT", cfg.Port)
	cfg.SQLiteDBPath = envString("SQLITE_DB_PATH", cfg.SQLiteDBPath)
	cfg.CasaTunesURI = envString("CASATUNES_URI", cfg.CasaTunesURI)
	cfg.CasaTunesTimeoutMs = envInt("CASATUNES_TIMEOUT_MS", cfg.CasaTunesTimeoutMs)
	cfg.RefreshSchedule = envString("BRIDGE_REFRESH_SCHEDULE", cfg.RefreshSchedule)
	cfg.JWTSecret = envString("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTAccessTokenExpirySec = envInt("JWT_ACCESS_TOKEN_EXPIRY", cfg.JWTAccessTokenExpirySec)
	cfg.JWTRefreshTokenExpirySec = envInt("JWT_REFRESH_TOKEN_EXPIRY", cfg.JWTRefreshTokenExpirySec)
	cfg.AllowTestMode = envBool("ALLOW_TEST_MODE", cfg.AllowTestMode)

	if len(strings.TrimSpace(cfg.JWTSecret)) < 32 {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func envString(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return strings.EqualFold(val, "true")
}
