// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the checker service configuration.
//
// # Description
//
// Configuration comes from an optional YAML file layered over DefaultConfig,
// then environment overrides:
//
//	PORT                          server.port
//	NUCHEM_PARSER_URL             parser.url
//	OTEL_EXPORTER_OTLP_ENDPOINT   tracing.endpoint
//	NUCHEM_LOG_LEVEL              logging.level
//
// Watch reloads the file when it changes.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Config is the complete service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Parser  ParserConfig  `yaml:"parser"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ParserConfig configures the grammar service client and its cache.
type ParserConfig struct {
	URL       string        `yaml:"url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"`
	Burst     int           `yaml:"burst"`
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig configures OpenTelemetry.
type TracingConfig struct {
	Exporter    string `yaml:"exporter"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Parser: ParserConfig{
			URL:       "http://localhost:3000",
			Timeout:   10 * time.Second,
			CacheSize: 1024,
			CacheTTL:  10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Exporter:    "none",
			Endpoint:    "localhost:4317",
			ServiceName: "nuchem-checker",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads the YAML file at path over the defaults and applies the
// environment. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read the config file: %w", err)
		}
		if cfg, err = Parse(data); err != nil {
			return Config{}, err
		}
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Fields absent from data keep their
// default values.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse the config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv applies environment overrides read through getenv. Empty
// values are ignored; an unparsable PORT is left for Validate to report.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			port = -1
		}
		c.Server.Port = port
	}
	if v := strings.Trim(getenv("NUCHEM_PARSER_URL"), "\"' "); v != "" {
		c.Parser.URL = v
	}
	if v := strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT")); v != "" {
		c.Tracing.Endpoint = v
	}
	if v := strings.TrimSpace(getenv("NUCHEM_LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
}

// Validate reports every problem in the configuration at once.
func (c Config) Validate() error {
	var err error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if u, parseErr := url.Parse(c.Parser.URL); parseErr != nil || u.Scheme == "" || u.Host == "" {
		err = multierr.Append(err, fmt.Errorf("parser.url must be an absolute URL, got %q", c.Parser.URL))
	}
	if c.Parser.Timeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("parser.timeout must be positive"))
	}
	if c.Parser.RateLimit < 0 {
		err = multierr.Append(err, fmt.Errorf("parser.rate_limit must not be negative"))
	}
	if c.Parser.CacheSize < 0 {
		err = multierr.Append(err, fmt.Errorf("parser.cache_size must not be negative"))
	}
	if _, levelErr := c.SlogLevel(); levelErr != nil {
		err = multierr.Append(err, levelErr)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		err = multierr.Append(err, fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format))
	}
	switch c.Tracing.Exporter {
	case "", "none", "stdout":
	case "otlp":
		if c.Tracing.Endpoint == "" {
			err = multierr.Append(err, fmt.Errorf("tracing.endpoint is required for the otlp exporter"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("tracing.exporter must be none, otlp or stdout, got %q", c.Tracing.Exporter))
	}
	return err
}

// SlogLevel parses Logging.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// Marshal encodes the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
