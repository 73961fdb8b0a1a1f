//-------------------------------------------------------------------------
//
// clickmart - clickstream analytics pipeline
//
// Copyright (c) 2025 - 2026, the clickmart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for clickmart.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/clickmart/clickmart/internal/config"
	"github.com/clickmart/clickmart/internal/logging"
	"github.com/clickmart/clickmart/internal/pipeline"
	"github.com/clickmart/clickmart/internal/stages"
	"github.com/clickmart/clickmart/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	engine     string
	logLevel   string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "clickmart",
		Short: "E-commerce clickstream analytics pipeline",
		Long: `clickmart is a CLI tool that loads e-commerce clickstream event
exports into a SQL engine and transforms them through a layered pipeline:
raw events are cleaned and normalized, then aggregated into session, user,
product, category, brand and time-bucket analytics tables.

Each transform publishes its table atomically, so readers always see either
the previous complete result or the new one, never a partial build.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./clickmart.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"database connection string")
	rootCmd.PersistentFlags().StringVar(&engine, "engine", "",
		"SQL engine (postgres, clickhouse)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stagesCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(statusCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if engine != "" {
		cfg.Engine = engine
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List pipeline stages in execution order",
	Long: `List all pipeline stages in the order they execute, with the
tables each one publishes and the tables it reads.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ordered, err := pipeline.Order(stages.All())
		if err != nil {
			return err
		}
		cmd.Println("Pipeline stages (execution order):")
		cmd.Println()
		for _, s := range ordered {
			cmd.Printf("  %-24s [%s] %s\n", s.Name(), s.Layer(), s.Description())
			if deps := s.DependsOn(); len(deps) > 0 {
				cmd.Printf("  %-24s reads: %v\n", "", deps)
			}
		}
		return nil
	},
}
