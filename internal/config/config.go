//-------------------------------------------------------------------------
//
// clickmart - clickstream analytics pipeline
//
// Copyright (c) 2025 - 2026, the clickmart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for clickmart.
// Configuration is loaded from config files and CLI flags (no environment
// variables). CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for clickmart.
type Config struct {
	// Connection is the database connection string. For the postgres engine
	// this is a pgx URL/DSN; for clickhouse it is a clickhouse:// DSN.
	Connection string `mapstructure:"connection"`

	// Engine selects the SQL engine: "postgres" or "clickhouse".
	Engine string `mapstructure:"engine"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Load holds configuration for the load subcommand.
	Load LoadConfig `mapstructure:"load"`

	// Seed holds configuration for the seed subcommand.
	Seed SeedConfig `mapstructure:"seed"`

	// Run holds configuration for the run subcommand.
	Run RunConfig `mapstructure:"run"`
}

// LoadConfig holds configuration for CSV ingestion into the bronze layer.
type LoadConfig struct {
	// File is the path of the CSV export to ingest.
	File string `mapstructure:"file"`

	// BatchSize is the number of rows per batch insert.
	BatchSize int `mapstructure:"batch_size"`

	// Truncate empties raw_events before loading.
	Truncate bool `mapstructure:"truncate"`
}

// SeedConfig holds configuration for synthetic event generation.
type SeedConfig struct {
	// Events is the approximate number of raw events to generate.
	Events int `mapstructure:"events"`

	// Users is the number of distinct synthetic users.
	Users int `mapstructure:"users"`

	// Products is the size of the synthetic product catalog.
	Products int `mapstructure:"products"`

	// Days is the calendar span of generated event timestamps.
	Days int `mapstructure:"days"`

	// DirtyRate is the fraction of rows that receive deliberate data-quality
	// defects (missing brand/category, non-positive price, missing key fields).
	DirtyRate float64 `mapstructure:"dirty_rate"`

	// RandomSeed makes generation reproducible when non-zero.
	RandomSeed uint64 `mapstructure:"random_seed"`

	// BatchSize is the number of rows per batch insert.
	BatchSize int `mapstructure:"batch_size"`
}

// RunConfig holds configuration for pipeline execution.
type RunConfig struct {
	// Stage limits execution to a single named stage. Empty runs the full DAG.
	Stage string `mapstructure:"stage"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Engine:   "postgres",
		LogLevel: "info",
		Load: LoadConfig{
			BatchSize: 5000,
		},
		Seed: SeedConfig{
			Events:    100000,
			Users:     2000,
			Products:  500,
			Days:      7,
			DirtyRate: 0.05,
			BatchSize: 5000,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./clickmart.yaml
// 3. ~/.config/clickmart/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("clickmart")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "clickmart"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	if c.Engine != "postgres" && c.Engine != "clickhouse" {
		return fmt.Errorf("engine must be 'postgres' or 'clickhouse'")
	}
	return nil
}

// ValidateLoad checks configuration required for the load command.
func (c *Config) ValidateLoad() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Load.File == "" {
		return fmt.Errorf("input file is required for load")
	}
	if c.Load.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1")
	}
	return nil
}

// ValidateSeed checks configuration required for the seed command.
func (c *Config) ValidateSeed() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Seed.Events < 1 {
		return fmt.Errorf("events must be at least 1")
	}
	if c.Seed.Users < 1 {
		return fmt.Errorf("users must be at least 1")
	}
	if c.Seed.Products < 1 {
		return fmt.Errorf("products must be at least 1")
	}
	if c.Seed.Days < 1 {
		return fmt.Errorf("days must be at least 1")
	}
	if c.Seed.DirtyRate < 0 || c.Seed.DirtyRate > 1 {
		return fmt.Errorf("dirty_rate must be between 0 and 1")
	}
	if c.Seed.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1")
	}
	return nil
}
