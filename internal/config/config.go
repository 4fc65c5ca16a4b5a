// Package config loads frogbot's runtime settings from defaults, an optional
// YAML file and FROGBOT_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	// ReminderDelay is the check-in delay after start or extend. Zero means
	// "the task's own duration".
	ReminderDelay   time.Duration `yaml:"reminder_delay"`
	DeadlineWarning time.Duration `yaml:"deadline_warning"`
	JournalDSN      string        `yaml:"journal_dsn"`
	LogFile         string        `yaml:"log_file"`
	GatewayBuffer   int           `yaml:"gateway_buffer"`
}

func Default() RuntimeConfig {
	return RuntimeConfig{
		ReminderDelay:   0,
		DeadlineWarning: 2 * time.Hour,
		JournalDSN:      ":memory:",
		LogFile:         "frogbot.log",
		GatewayBuffer:   64,
	}
}

// Load applies the YAML file at path (if it exists) and then the environment.
func Load(path string) (RuntimeConfig, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		fromFile, err := LoadYAML(path, cfg)
		if err != nil {
			return RuntimeConfig{}, err
		}
		cfg = fromFile
	}
	cfg = FromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return RuntimeConfig{}, err
	}
	return cfg, nil
}

// LoadYAML overlays the file at path on base. A missing file leaves base as is.
func LoadYAML(path string, base RuntimeConfig) (RuntimeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return base, nil
		}
		return RuntimeConfig{}, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RuntimeConfig{}, fmt.Errorf("failed to parse YAML from %s: %w", path, err)
	}
	return cfg, nil
}

func FromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v, ok := getEnvDuration("FROGBOT_REMINDER_DELAY"); ok && v >= 0 {
		cfg.ReminderDelay = v
	}
	if v, ok := getEnvDuration("FROGBOT_DEADLINE_WARNING"); ok && v > 0 {
		cfg.DeadlineWarning = v
	}
	if v, ok := getEnvString("FROGBOT_JOURNAL_DSN"); ok {
		cfg.JournalDSN = v
	}
	if v, ok := getEnvString("FROGBOT_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := getEnvInt("FROGBOT_GATEWAY_BUFFER"); ok && v > 0 {
		cfg.GatewayBuffer = v
	}
	return cfg
}

func (c RuntimeConfig) Validate() error {
	if c.ReminderDelay < 0 {
		return fmt.Errorf("config: reminder_delay must not be negative, got %s", c.ReminderDelay)
	}
	if c.DeadlineWarning <= 0 {
		return fmt.Errorf("config: deadline_warning must be positive, got %s", c.DeadlineWarning)
	}
	if c.GatewayBuffer <= 0 {
		return fmt.Errorf("config: gateway_buffer must be positive, got %d", c.GatewayBuffer)
	}
	return nil
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvDuration(name string) (time.Duration, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
