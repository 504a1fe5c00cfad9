// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     int
	LogLevel string
	DevMode  bool

	// RiskFreeRate is the single reference rate used by the optimizer and
	// risk analyzer unless a request overrides it explicitly.
	RiskFreeRate float64
	// PeriodsPerYear is the annualization factor applied to periodic
	// return data (252 for daily series).
	PeriodsPerYear float64
	// FrontierPoints is the default sweep resolution for the efficient
	// frontier endpoint.
	FrontierPoints int
	// FrontierWorkers bounds the parallel frontier sweep; 0 means one
	// worker per CPU.
	FrontierWorkers int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvInt("FRONTIER_PORT", 8090),
		LogLevel:        getEnv("FRONTIER_LOG_LEVEL", "info"),
		DevMode:         getEnvBool("FRONTIER_DEV_MODE", false),
		RiskFreeRate:    getEnvFloat("FRONTIER_RISK_FREE_RATE", 0.02),
		PeriodsPerYear:  getEnvFloat("FRONTIER_PERIODS_PER_YEAR", 252),
		FrontierPoints:  getEnvInt("FRONTIER_FRONTIER_POINTS", 100),
		FrontierWorkers: getEnvInt("FRONTIER_FRONTIER_WORKERS", 0),
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.PeriodsPerYear <= 0 {
		return nil, fmt.Errorf("periods per year must be positive, got %v", cfg.PeriodsPerYear)
	}
	if cfg.FrontierPoints < 1 {
		return nil, fmt.Errorf("frontier points must be at least 1, got %d", cfg.FrontierPoints)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
