package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds server settings. Values come from an optional YAML file
// (RECALL_CONFIG) overlaid with environment variables; env wins.
type Config struct {
	Port      int    `yaml:"port"`
	DBPath    string `yaml:"dbPath"`
	CacheSize int    `yaml:"cacheSize"`
	APIKey    string `yaml:"apiKey"`
	LogLevel  string `yaml:"logLevel"`
}

func defaults() *Config {
	return &Config{
		Port:      8742,
		DBPath:    "/data/recall.db",
		CacheSize: 512,
		LogLevel:  "info",
	}
}

// Load builds the configuration from file and environment.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("RECALL_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Port = envInt("PORT", cfg.Port)
	cfg.DBPath = envStr("RECALL_DB_PATH", cfg.DBPath)
	cfg.CacheSize = envInt("RECALL_CACHE_SIZE", cfg.CacheSize)
	cfg.APIKey = envStr("RECALL_API_KEY", cfg.APIKey)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("RECALL_DB_PATH must not be empty")
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("RECALL_CACHE_SIZE must be positive, got %d", c.CacheSize)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
