package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shelfsync/backend/internal/app"
	"github.com/shelfsync/backend/internal/infrastructure/export"
	"github.com/shelfsync/backend/internal/infrastructure/logger"
	"github.com/shelfsync/backend/internal/infrastructure/report"
	"github.com/shelfsync/backend/internal/infrastructure/state"
	"github.com/shelfsync/backend/internal/usecase"
)

var errGateFailed = errors.New("quality gate failed")

type batchOptions struct {
	urlsFile          string
	output            string
	statePath         string
	workers           int
	limit             int
	continueOnError   bool
	skipWithoutImages bool
	retryFailed       bool
	topFields         int
}

func newBatchCommand(c *cli) *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch [url...]",
		Short: "Extract a list of product pages and export the valid ones",
		Long: `Batch extracts every URL given as an argument or listed in --urls, writes
valid products to the JSON Lines output and records progress in the state
database so that an interrupted run resumes where it stopped.

The command exits with status 2 when the share of products with errors
exceeds quality.error_threshold_pct.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyBatchDefaults(cmd, opts, c)
			return runBatch(cmd, c, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.urlsFile, "urls", "u", "", "file with one URL per line, - for stdin")
	flags.StringVarP(&opts.output, "output", "o", "", "JSON Lines output path (default batch.output_path)")
	flags.StringVar(&opts.statePath, "state", "", "state database path (default batch.state_path)")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "concurrent pages (default batch.workers)")
	flags.IntVar(&opts.limit, "limit", 0, "process at most this many pending URLs")
	flags.BoolVar(&opts.continueOnError, "continue-on-error", true, "record per-page failures and keep going")
	flags.BoolVar(&opts.skipWithoutImages, "skip-without-images", true, "do not export products without images")
	flags.BoolVar(&opts.retryFailed, "retry-failed", false, "attempt URLs that failed in earlier runs again")
	flags.IntVar(&opts.topFields, "top-fields", 10, "rows in the per-field issue table")
	return cmd
}

// applyBatchDefaults fills options the user did not set from configuration.
func applyBatchDefaults(cmd *cobra.Command, opts *batchOptions, c *cli) {
	flags := cmd.Flags()
	if opts.output == "" {
		opts.output = c.cfg.Batch.OutputPath
	}
	if opts.statePath == "" {
		opts.statePath = c.cfg.Batch.StatePath
	}
	if opts.workers <= 0 {
		opts.workers = c.cfg.Batch.Workers
	}
	if !flags.Changed("continue-on-error") {
		opts.continueOnError = c.cfg.Batch.ContinueOnError
	}
	if !flags.Changed("skip-without-images") {
		opts.skipWithoutImages = c.cfg.Batch.SkipWithoutImages
	}
}

func runBatch(cmd *cobra.Command, c *cli, opts *batchOptions, args []string) error {
	ctx := cmd.Context()

	urls, err := collectURLs(args, opts.urlsFile, c.cfg.Fetch.BaseURL, os.Stdin)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return errors.New("no URLs given: pass them as arguments or with --urls")
	}

	deps := app.New(c.cfg, c.log)
	defer deps.Close()

	store, err := state.Open(ctx, opts.statePath, c.log)
	if err != nil {
		return err
	}
	defer store.Close()

	if opts.retryFailed {
		n, err := store.Retry(ctx)
		if err != nil {
			return err
		}
		c.log.Info("Released failed URLs", logger.Int("count", n))
	}

	sink, err := export.OpenFile(opts.output)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			c.log.Error("Failed to close output", logger.String("path", opts.output), logger.Error(err))
		}
	}()

	runnerConfig := c.cfg.BatchRunnerConfig()
	runnerConfig.Workers = opts.workers
	runnerConfig.Limit = opts.limit
	runnerConfig.ContinueOnError = opts.continueOnError
	runnerConfig.SkipWithoutImages = opts.skipWithoutImages

	runner := usecase.NewBatchRunner(deps.Pages, deps.Pipeline, store, sink, c.log, runnerConfig)
	result, runErr := runner.Run(ctx, urls)
	if result != nil {
		report.NewTableRenderer(cmd.OutOrStdout(), opts.topFields).RenderBatch(result)
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d products to %s\n", result.Exported, opts.output)
	}
	if runErr != nil {
		return runErr
	}
	if !result.GatePassed() {
		return fmt.Errorf("%w: %.1f%% of products have errors (threshold %.1f%%)",
			errGateFailed, result.Quality.Percent(result.Quality.Errored), result.Quality.ThresholdPct)
	}
	return nil
}
