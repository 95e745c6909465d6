// Package config loads the service configuration from the process
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the kueaplan
// service.
type Config struct {
	HTTPPort      int
	SQLiteDSN     string
	SessionSecret string
	SessionMaxAge time.Duration
	AdminSecret   string
	LogLevel      string
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to sensible defaults. The session secret is the
// only required value: running without it would silently sign tokens with an
// empty key. Missing and invalid variables are accumulated so one run reports
// all problems.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:      8080,
		SQLiteDSN:     "file:kueaplan.db",
		SessionMaxAge: 14 * 24 * time.Hour,
		LogLevel:      "info",
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("KUEAPLAN_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "KUEAPLAN_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("KUEAPLAN_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv("KUEAPLAN_SESSION_SECRET")); secret == "" {
		missing = append(missing, "KUEAPLAN_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}

	if maxAgeValue := strings.TrimSpace(os.Getenv("KUEAPLAN_SESSION_MAX_AGE")); maxAgeValue != "" {
		maxAge, err := time.ParseDuration(maxAgeValue)
		if err != nil || maxAge <= 0 {
			invalid = append(invalid, "KUEAPLAN_SESSION_MAX_AGE")
		} else {
			cfg.SessionMaxAge = maxAge
		}
	}

	// Empty disables the instance-level operator endpoints entirely.
	cfg.AdminSecret = strings.TrimSpace(os.Getenv("KUEAPLAN_ADMIN_SECRET"))

	if level := strings.TrimSpace(strings.ToLower(os.Getenv("KUEAPLAN_LOG_LEVEL"))); level != "" {
		switch level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		default:
			invalid = append(invalid, "KUEAPLAN_LOG_LEVEL")
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
