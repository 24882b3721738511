package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/claimengine/internal/batch"
	"github.com/gyeh/claimengine/internal/exitcode"
	"github.com/gyeh/claimengine/internal/logging"
)

var (
	batchInput    string
	batchOutput   string
	batchProgress string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Evaluate a JSON Lines file of encounters (optionally .gz)",
	RunE:  runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchInput, "input", "", "JSONL evaluation requests, .gz allowed, - for stdin (required)")
	f.StringVar(&batchOutput, "output", "-", "JSONL results destination, .gz allowed")
	f.StringVar(&batchProgress, "progress", "auto", "Progress display: auto, bar, log, none")
	f.StringVar(&cfg.SnapshotPath, "snapshot", "", "YAML reference snapshot (instead of --dsn)")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "Concurrent evaluations")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-encounter timeout")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

func newTracker(mode string, total int, log zerolog.Logger) batch.Tracker {
	if mode == "auto" {
		mode = "log"
		if isatty.IsTerminal(os.Stderr.Fd()) {
			mode = "bar"
		}
	}
	switch mode {
	case "bar":
		return batch.NewMPBTracker(total)
	case "log":
		return &batch.LogTracker{Log: log, Total: total, Every: 100}
	}
	return batch.NoopTracker{}
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, err := batch.Open(batchInput)
	if err != nil {
		log.Error().Err(err).Msg("failed to open input")
		os.Exit(exitcode.ValidationError)
	}
	items, err := batch.ReadRequests(in)
	in.Close()
	if err != nil {
		log.Error().Err(err).Msg("failed to read input")
		os.Exit(exitcode.ValidationError)
	}

	b := openBackend(ctx, log)
	defer b.Close()

	// Per-run decision logs would interleave with the progress bar.
	engineLog := log.Level(zerolog.WarnLevel)
	tracker := newTracker(batchProgress, len(items), log)
	pool := &batch.Pool{
		Workers:  cfg.Workers,
		Timeout:  cfg.Timeout,
		Engine:   b.engine(engineLog),
		Progress: tracker,
	}

	start := time.Now()
	outcomes := pool.Run(ctx, items)
	tracker.Done()
	summary := batch.Summarize(outcomes, time.Since(start))

	out, err := batch.Create(batchOutput)
	if err != nil {
		log.Error().Err(err).Msg("failed to create output")
		os.Exit(exitcode.EvaluateError)
	}
	if err := batch.WriteResults(out, outcomes); err != nil {
		out.Close()
		log.Error().Err(err).Msg("failed to write results")
		os.Exit(exitcode.EvaluateError)
	}
	if err := out.Close(); err != nil {
		log.Error().Err(err).Msg("failed to flush results")
		os.Exit(exitcode.EvaluateError)
	}

	log.Info().
		Int("encounters", summary.Encounters).
		Int("succeeded", summary.Succeeded).
		Int("manual_review", summary.ManualReview).
		Int("failed", summary.Failed).
		Int("unreadable", summary.Unreadable).
		Int("skipped", summary.Skipped).
		Str("duration", summary.Duration.String()).
		Msg("batch complete")

	switch {
	case summary.Failed+summary.Unreadable+summary.Skipped > 0:
		os.Exit(exitcode.EvaluateError)
	case summary.ManualReview > 0:
		os.Exit(exitcode.ManualReview)
	}
	return nil
}
