package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/drivescore/internal/adapters/batch"
	service "github.com/okian/drivescore/internal/app"
	"github.com/okian/drivescore/internal/config"
	"github.com/okian/drivescore/pkg/logger"
)

type configLoader func(ctx context.Context) (*config.Config, error)

func newScoreCmd(load configLoader) *cobra.Command {
	var (
		tail    int
		workers int
	)

	cmd := &cobra.Command{
		Use:   "score FILE...",
		Short: "Score each recorded log as one driving session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := load(ctx)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("tail") {
				tail = cfg.Tail
			}
			if !cmd.Flags().Changed("workers") {
				workers = cfg.Workers
			}
			if tail < 0 {
				return fmt.Errorf("%w: tail must not be negative, got %d", config.ErrInvalidConfig, tail)
			}

			svc := service.New(
				service.WithLogger(logger.Get()),
				service.WithMetricsEnabled(cfg.MetricsEnabled),
			)
			pool := batch.NewPool(svc, batch.WithWorkers(workers))

			results, err := pool.ScoreFiles(ctx, args)
			if err != nil {
				return err
			}
			return printResults(cmd.OutOrStdout(), results, tail, len(args) > 1)
		},
	}

	cmd.Flags().IntVar(&tail, "tail", config.New().Tail, "number of trailing raw scores to print")
	cmd.Flags().IntVar(&workers, "workers", 0, "logs scored in parallel (0 = one per CPU)")
	return cmd
}

// printResults writes the trailing raw scores and the session score of every
// result in input order. It returns a joined error for failed logs.
func printResults(w io.Writer, results []batch.Result, tail int, withHeader bool) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Path, r.Err))
			continue
		}
		if withHeader {
			fmt.Fprintf(w, "==> %s <==\n", r.Path)
		}
		scores := r.Session.RawScores
		start := len(scores) - tail
		if start < 0 {
			start = 0
		}
		if len(scores) > start {
			fmt.Fprintln(w, "raw_score")
			for i := start; i < len(scores); i++ {
				fmt.Fprintf(w, "%d %.2f\n", i, scores[i])
			}
		}
		fmt.Fprintf(w, "Driving Score (out of 100): %.2f\n", r.Session.NormalizedScore)
	}
	return errors.Join(errs...)
}
