package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort                = "8080"
	defaultJWTTTL              = "24h"
	defaultSlotDurationMinutes = "60"
	defaultCancelCutoff        = "2h"
	defaultJWTSecret           = ""
)

// RuntimeConfig carries everything cmd/api needs to wire the service.
type RuntimeConfig struct {
	DatabaseURL         string
	Port                string
	JWTSecret           string
	JWTTTL              time.Duration
	SlotDurationMinutes int
	CancelCutoff        time.Duration
}

func Load() (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Port:        envOrDefault("PORT", defaultPort),
		JWTSecret:   envOrDefault("JWT_SECRET", defaultJWTSecret),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is empty")
	}

	ttl, err := time.ParseDuration(envOrDefault("JWT_TTL", defaultJWTTTL))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	cfg.JWTTTL = ttl

	cutoff, err := time.ParseDuration(envOrDefault("CANCEL_CUTOFF", defaultCancelCutoff))
	if err != nil {
		return nil, fmt.Errorf("invalid CANCEL_CUTOFF: %w", err)
	}
	cfg.CancelCutoff = cutoff

	minutes, err := strconv.Atoi(envOrDefault("SLOT_DURATION_MINUTES", defaultSlotDurationMinutes))
	if err != nil || minutes <= 0 {
		return nil, fmt.Errorf("invalid SLOT_DURATION_MINUTES")
	}
	cfg.SlotDurationMinutes = minutes

	return cfg, nil
}

func envOrDefault(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}
