package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"smsgate/internal/logging"
	"smsgate/internal/sweep"
)

// config describes the smsgated YAML configuration.
type config struct {
	Server struct {
		ListenAddr      string        `yaml:"listen_addr"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
		ResetPerMinute  int           `yaml:"reset_per_minute"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Limits struct {
		MaxPerNumber  int `yaml:"max_messages_per_number"`
		MaxPerAccount int `yaml:"max_messages_per_account"`
	} `yaml:"limits"`
	Expiry struct {
		IdleRetention time.Duration `yaml:"idle_retention"`
		SweepInterval time.Duration `yaml:"sweep_interval"`
	} `yaml:"expiry"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// defaultConfig returns the configuration used when no file is present.
func defaultConfig() config {
	var cfg config
	cfg.Server.ListenAddr = "localhost:5000"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Server.ResetPerMinute = 10
	cfg.Server.ShutdownTimeout = 10 * time.Second
	cfg.Limits.MaxPerNumber = 100
	cfg.Limits.MaxPerAccount = 1000
	cfg.Expiry.IdleRetention = sweep.DefaultRetention
	cfg.Expiry.SweepInterval = sweep.DefaultInterval
	cfg.Log.Level = "info"
	cfg.Log.Format = "human"
	return cfg
}

// loadConfig reads the configuration file, applies environment overrides and
// validates the result. A missing file yields the defaults.
func loadConfig(path string, getenv func(string) string) (config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

// loadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

func applyEnv(cfg *config, getenv func(string) string) error {
	if getenv == nil {
		return nil
	}
	if v := getenv("SMSGATE_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := getenv("SMSGATE_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if err := envInt(getenv, "SMSGATE_MAX_PER_NUMBER", &cfg.Limits.MaxPerNumber); err != nil {
		return err
	}
	if err := envInt(getenv, "SMSGATE_MAX_PER_ACCOUNT", &cfg.Limits.MaxPerAccount); err != nil {
		return err
	}
	if err := envInt(getenv, "SMSGATE_RESET_PER_MINUTE", &cfg.Server.ResetPerMinute); err != nil {
		return err
	}
	if err := envDuration(getenv, "SMSGATE_IDLE_RETENTION", &cfg.Expiry.IdleRetention); err != nil {
		return err
	}
	if err := envDuration(getenv, "SMSGATE_SWEEP_INTERVAL", &cfg.Expiry.SweepInterval); err != nil {
		return err
	}
	if v := getenv("SMSGATE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv("SMSGATE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

func (c config) validate() error {
	if strings.TrimSpace(c.Server.ListenAddr) == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	if c.Server.ResetPerMinute < 0 {
		return fmt.Errorf("server.reset_per_minute must be >= 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	if c.Limits.MaxPerNumber < 0 {
		return fmt.Errorf("limits.max_messages_per_number must be >= 0")
	}
	if c.Limits.MaxPerAccount < 0 {
		return fmt.Errorf("limits.max_messages_per_account must be >= 0")
	}
	if c.Expiry.IdleRetention <= 0 {
		return fmt.Errorf("expiry.idle_retention must be positive")
	}
	if c.Expiry.SweepInterval <= 0 {
		return fmt.Errorf("expiry.sweep_interval must be positive")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

func envInt(getenv func(string) string, key string, dst *int) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func envDuration(getenv func(string) string, key string, dst *time.Duration) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func splitList(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if value := strings.TrimSpace(part); value != "" {
			out = append(out, value)
		}
	}
	return out
}
