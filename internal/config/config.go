/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	DBBackend   DatabaseBackend
	DBDSN       string
	MetricsBind string

	// Playback
	PlayerBin    string        // external launcher used to decode/output one file
	PollInterval time.Duration // playback monitor cadence

	// Event bridges
	RedisBridgeEnabled bool
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	NATSBridgeEnabled  bool
	NATSURL            string

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("GJALLAR_ENV", "development"),
		HTTPBind:    getEnv("GJALLAR_HTTP_BIND", "127.0.0.1"),
		HTTPPort:    getEnvInt("GJALLAR_HTTP_PORT", 8089),
		DBBackend:   DatabaseBackend(getEnv("GJALLAR_DB_BACKEND", string(DatabaseSQLite))),
		DBDSN:       getEnv("GJALLAR_DB_DSN", "gjallar.db"),
		MetricsBind: getEnv("GJALLAR_METRICS_BIND", "127.0.0.1:9100"),

		PlayerBin:    getEnv("GJALLAR_PLAYER_BIN", "gst-launch-1.0"),
		PollInterval: time.Duration(getEnvInt("GJALLAR_POLL_INTERVAL_MS", 500)) * time.Millisecond,

		RedisBridgeEnabled: getEnvBool("GJALLAR_REDIS_BRIDGE_ENABLED", false),
		RedisAddr:          getEnv("GJALLAR_REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("GJALLAR_REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("GJALLAR_REDIS_DB", 0),
		NATSBridgeEnabled:  getEnvBool("GJALLAR_NATS_BRIDGE_ENABLED", false),
		NATSURL:            getEnv("GJALLAR_NATS_URL", "nats://localhost:4222"),

		TracingEnabled:    getEnvBool("GJALLAR_TRACING_ENABLED", false),
		OTLPEndpoint:      getEnv("GJALLAR_OTLP_ENDPOINT", "localhost:4317"),
		TracingSampleRate: getEnvFloat("GJALLAR_TRACING_SAMPLE_RATE", 1.0),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("GJALLAR_DB_DSN must be provided")
	}

	if cfg.PollInterval < 50*time.Millisecond {
		return nil, fmt.Errorf("GJALLAR_POLL_INTERVAL_MS must be at least 50")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "true" || v == "1" || v == "yes" {
			return true
		}
		if v == "false" || v == "0" || v == "no" {
			return false
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return def
}
