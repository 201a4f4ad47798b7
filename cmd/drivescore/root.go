package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/drivescore/internal/config"
	"github.com/okian/drivescore/pkg/logger"
	"github.com/okian/drivescore/pkg/metrics"
)

// newRootCmd builds the command tree. Scores go to out; logs go to stderr.
func newRootCmd(out io.Writer) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:          "drivescore",
		Short:        "Driving safety score for recorded vehicle-control logs",
		SilenceUsage: true,
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return logger.Sync()
		},
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $"+config.EnvConfigPath+")")

	load := func(ctx context.Context) (*config.Config, error) {
		return setup(ctx, cfgFile)
	}

	rootCmd.AddCommand(newScoreCmd(load))
	rootCmd.AddCommand(newServeCmd(load))
	return rootCmd
}

// setup initializes logging and loads configuration.
func setup(ctx context.Context, cfgFile string) (*config.Config, error) {
	if err := logger.InitWithWriter(os.Stderr); err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}

	cfg, err := config.Load(ctx, cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.SetEnabled(cfg.MetricsEnabled)
	return cfg, nil
}
