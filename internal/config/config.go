package config

import (
	"fmt"
	"os"
	"time"

	"github.com/gyeh/claimengine/internal/engine"
	"github.com/gyeh/claimengine/internal/model"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWorkers    = 4
	DefaultTimeout    = 10 * time.Second
	DefaultListenAddr = ":8080"
)

// Config holds all runtime configuration for a claimrun invocation.
type Config struct {
	DSN          string
	SnapshotPath string
	LogFormat    string // "text" or "json"
	LogLevel     string

	// Engine tunables.
	ChargemasterCents int64
	LookbackYears     int
	EnableSDOH        bool

	// Batch and serve.
	Workers    int
	Timeout    time.Duration
	ListenAddr string

	// Reference load.
	Kind        string
	FilePath    string
	Force       bool
	KeepStaging bool
	DryRun      bool
}

// yamlConfig is the on-disk YAML structure. Pointers distinguish an absent
// key from an explicit zero.
type yamlConfig struct {
	Snapshot          string `yaml:"snapshot"`
	LogFormat         string `yaml:"log_format"`
	LogLevel          string `yaml:"log_level"`
	ChargemasterCents *int64 `yaml:"chargemaster_cents"`
	LookbackYears     *int   `yaml:"lookback_years"`
	EnableSDOH        *bool  `yaml:"enable_sdoh"`
	Workers           *int   `yaml:"workers"`
	Timeout           string `yaml:"timeout"`
	ListenAddr        string `yaml:"listen_addr"`
}

// Default returns a Config with every tunable at its built-in value.
func Default() *Config {
	return &Config{
		DSN:               os.Getenv("CLAIMRUN_DB_URL"),
		LogFormat:         "text",
		LogLevel:          "info",
		ChargemasterCents: engine.DefaultChargemasterCents,
		LookbackYears:     engine.DefaultLookbackYears,
		EnableSDOH:        true,
		Workers:           DefaultWorkers,
		Timeout:           DefaultTimeout,
		ListenAddr:        DefaultListenAddr,
	}
}

// LoadFromFile reads a YAML config file and merges the keys it sets into
// Config.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if yc.Snapshot != "" {
		c.SnapshotPath = yc.Snapshot
	}
	if yc.LogFormat != "" {
		c.LogFormat = yc.LogFormat
	}
	if yc.LogLevel != "" {
		c.LogLevel = yc.LogLevel
	}
	if yc.ChargemasterCents != nil {
		c.ChargemasterCents = *yc.ChargemasterCents
	}
	if yc.LookbackYears != nil {
		c.LookbackYears = *yc.LookbackYears
	}
	if yc.EnableSDOH != nil {
		c.EnableSDOH = *yc.EnableSDOH
	}
	if yc.Workers != nil {
		c.Workers = *yc.Workers
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return fmt.Errorf("parse timeout %q: %w", yc.Timeout, err)
		}
		c.Timeout = d
	}
	if yc.ListenAddr != "" {
		c.ListenAddr = yc.ListenAddr
	}
	return c.validateTunables()
}

func (c *Config) validateTunables() error {
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log format must be text or json, got %q", c.LogFormat)
	}
	if c.ChargemasterCents <= 0 {
		return fmt.Errorf("chargemaster_cents must be positive, got %d", c.ChargemasterCents)
	}
	if c.LookbackYears <= 0 {
		return fmt.Errorf("lookback_years must be positive, got %d", c.LookbackYears)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// EngineOptions maps the engine tunables onto engine.Options.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		ChargemasterCents: c.ChargemasterCents,
		LookbackYears:     c.LookbackYears,
		EnableSDOH:        c.EnableSDOH,
	}
}

// ValidateSource checks that reference data can come from somewhere.
func (c *Config) ValidateSource() error {
	if err := c.validateTunables(); err != nil {
		return err
	}
	if c.SnapshotPath == "" && c.DSN == "" {
		return fmt.Errorf("--snapshot or --dsn (CLAIMRUN_DB_URL) is required")
	}
	if c.SnapshotPath != "" {
		if _, err := os.Stat(c.SnapshotPath); err != nil {
			return fmt.Errorf("snapshot not accessible: %w", err)
		}
	}
	return nil
}

// ValidateDSN checks that a database is configured.
func (c *Config) ValidateDSN() error {
	if c.DSN == "" {
		return fmt.Errorf("--dsn or CLAIMRUN_DB_URL is required")
	}
	return nil
}

// ValidateLoad checks the fields a reference load needs and resolves the kind.
// A dry run may skip the database.
func (c *Config) ValidateLoad() (model.RefKind, error) {
	kind, ok := model.RefKindByName(c.Kind)
	if !ok {
		return model.RefKind{}, fmt.Errorf("unknown reference kind %q (want one of %v)", c.Kind, model.RefKindNames())
	}
	if c.FilePath == "" {
		return kind, fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return kind, fmt.Errorf("file not accessible: %w", err)
	}
	if c.DSN == "" && !c.DryRun {
		return kind, fmt.Errorf("--dsn or CLAIMRUN_DB_URL is required")
	}
	return kind, nil
}
