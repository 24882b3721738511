package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimengine/internal/exitcode"
	"github.com/gyeh/claimengine/internal/logging"
	"github.com/gyeh/claimengine/internal/model"
)

var evaluateInput string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one encounter and print the result as JSON",
	RunE:  runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evaluateInput, "input", "-", "Evaluation request JSON file, or - for stdin")
	f.StringVar(&cfg.SnapshotPath, "snapshot", "", "YAML reference snapshot (instead of --dsn)")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-encounter timeout")
	rootCmd.AddCommand(evaluateCmd)
}

func readRequest(path string) (*model.EvaluationRequest, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open request: %w", err)
		}
		defer f.Close()
		r = f
	}
	var req model.EvaluationRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &req, nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)

	req, err := readRequest(evaluateInput)
	if err != nil {
		log.Error().Err(err).Msg("invalid evaluation request")
		os.Exit(exitcode.ValidationError)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	b := openBackend(ctx, log)
	defer b.Close()

	res := b.engine(log).ProcessEncounter(ctx, &req.Encounter, req.Documentation)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	switch {
	case !res.Success:
		os.Exit(exitcode.EvaluateError)
	case res.RequiresManualReview:
		os.Exit(exitcode.ManualReview)
	}
	return nil
}
