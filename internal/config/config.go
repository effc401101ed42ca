package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fortipass/fortipass-go/internal/crypto"
	"github.com/fortipass/fortipass-go/internal/instance"
)

type Config struct {
	Env            string
	ListenAddr     string
	LockFile       string
	LogFile        string
	LogLevel       slog.Level
	DefaultLength  int
	DatabaseDSN    string
	TokenSecret    string
	TokenExpiry    time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

func Load() (Config, error) {
	cfg := Config{
		Env:         getEnv("ENV", "development"),
		ListenAddr:  getEnv("LISTEN_ADDR", "127.0.0.1:8080"),
		LockFile:    getEnv("LOCK_FILE", instance.DefaultPath()),
		LogFile:     getEnv("LOG_FILE", ""),
		DatabaseDSN: getEnv("DATABASE_DSN", ""),
		TokenSecret: getEnv("TOKEN_SECRET", ""),
	}

	var errs []error

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	length, err := strconv.Atoi(getEnv("DEFAULT_LENGTH", strconv.Itoa(crypto.DefaultLength)))
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("DEFAULT_LENGTH: %w", err))
	case length < crypto.MinLength || length > crypto.MaxLength:
		errs = append(errs, fmt.Errorf("DEFAULT_LENGTH: %d is outside [%d, %d]", length, crypto.MinLength, crypto.MaxLength))
	}
	cfg.DefaultLength = length

	if cfg.TokenExpiry, err = time.ParseDuration(getEnv("TOKEN_EXPIRY", "12h")); err != nil {
		errs = append(errs, fmt.Errorf("TOKEN_EXPIRY: %w", err))
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "5"), 64); err != nil {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS: %w", err))
	} else if cfg.RateLimitRPS <= 0 || math.IsNaN(cfg.RateLimitRPS) {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS: %v must be greater than zero", cfg.RateLimitRPS))
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "10")); err != nil {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST: %w", err))
	} else if cfg.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST: %d must be at least 1", cfg.RateLimitBurst))
	}

	if cfg.IsProduction() && cfg.TokenSecret == "" {
		errs = append(errs, errors.New("TOKEN_SECRET must be set in production environment"))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether ENV is production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// HistoryEnabled reports whether generation history should be recorded.
func (c Config) HistoryEnabled() bool {
	return c.DatabaseDSN != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
