// Package config reads server settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port     int
	LogLevel string

	// Activity sampling
	GitHubAPIURL   string
	GitHubOwner    string
	GitHubToken    string
	GitHubRepos    []string
	SamplerTimeout time.Duration

	// Content
	ContentDBPath   string
	ContentSeed     string
	ContentCacheTTL time.Duration
	ImageCDNURL     string
	ImageProjectID  string
	ImageDataset    string

	// Pulse overlay
	PulseFPS       int
	PulseIntensity float64

	// Optional NATS fan-out
	NATSURL     string
	NATSSubject string

	AdminUsername string
	AdminPassword string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:            envInt("PORT", 8080),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		GitHubAPIURL:    envStr("GITHUB_API_URL", "https://api.github.com"),
		GitHubOwner:     envStr("GITHUB_OWNER", "MrTimedying"),
		GitHubToken:     envStr("GITHUB_TOKEN", ""),
		GitHubRepos:     envList("GITHUB_REPOS"),
		SamplerTimeout:  envDuration("SAMPLER_TIMEOUT", 5*time.Second),
		ContentDBPath:   envStr("CONTENT_DB_PATH", "data/content.db"),
		ContentSeed:     envStr("CONTENT_SEED", "content/posts.yaml"),
		ContentCacheTTL: envDuration("CONTENT_CACHE_TTL", 30*time.Minute),
		ImageCDNURL:     envStr("IMAGE_CDN_URL", "https://cdn.sanity.io"),
		ImageProjectID:  envStr("IMAGE_PROJECT_ID", ""),
		ImageDataset:    envStr("IMAGE_DATASET", "production"),
		PulseFPS:        envInt("PULSE_FPS", 30),
		PulseIntensity:  envFloat("PULSE_INTENSITY", 1.0),
		NATSURL:         envStr("NATS_URL", ""),
		NATSSubject:     envStr("NATS_SUBJECT", "pulse.activity"),
		AdminUsername:   envStr("ADMIN_USERNAME", "admin"),
		AdminPassword:   envStr("ADMIN_PASSWORD", "admin123"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.GitHubOwner == "" {
		return fmt.Errorf("GITHUB_OWNER must not be empty")
	}
	if c.SamplerTimeout <= 0 {
		return fmt.Errorf("SAMPLER_TIMEOUT must be positive, got %s", c.SamplerTimeout)
	}
	if c.ContentDBPath == "" {
		return fmt.Errorf("CONTENT_DB_PATH must not be empty")
	}
	if c.PulseFPS < 1 || c.PulseFPS > 120 {
		return fmt.Errorf("PULSE_FPS must be between 1 and 120, got %d", c.PulseFPS)
	}
	if c.PulseIntensity <= 0 {
		return fmt.Errorf("PULSE_INTENSITY must be positive, got %f", c.PulseIntensity)
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma separated variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
