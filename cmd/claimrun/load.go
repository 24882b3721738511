package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimengine/internal/db"
	"github.com/gyeh/claimengine/internal/exitcode"
	"github.com/gyeh/claimengine/internal/logging"
	"github.com/gyeh/claimengine/internal/model"
	"github.com/gyeh/claimengine/internal/refload"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a reference Parquet file (procedure catalog, fee schedule, RVUs)",
	RunE:  runLoad,
}

func init() {
	f := loadCmd.Flags()
	f.StringVar(&cfg.Kind, "kind", "", fmt.Sprintf("Reference kind: one of %v (required)", model.RefKindNames()))
	f.StringVar(&cfg.FilePath, "file", "", "Path to Parquet file (required)")
	f.BoolVar(&cfg.Force, "force", false, "Reload even if the file SHA was already loaded")
	f.BoolVar(&cfg.KeepStaging, "keep-staging", false, "Keep staging rows after upsert")
	f.BoolVar(&cfg.DryRun, "dry-run", false, "Validate and report only; no writes")
	_ = loadCmd.MarkFlagRequired("kind")
	_ = loadCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	kind, err := cfg.ValidateLoad()
	if err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	var conn refload.DB
	if cfg.DSN != "" {
		pool, err := db.NewPool(ctx, cfg.DSN, 2)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		defer pool.Close()
		conn = pool
	}

	summary, err := refload.Run(ctx, conn, log, refload.Options{
		Kind:        kind,
		FilePath:    cfg.FilePath,
		Force:       cfg.Force,
		KeepStaging: cfg.KeepStaging,
		DryRun:      cfg.DryRun,
	})
	if err != nil {
		var pe *refload.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("load failed")
			if pe.Phase == "preflight" {
				os.Exit(exitcode.ValidationError)
			}
		} else {
			log.Error().Err(err).Msg("load failed")
		}
		os.Exit(exitcode.LoadError)
	}

	if cfg.DryRun {
		printPlan(summary, conn != nil)
		return nil
	}
	if summary.AlreadyLoaded {
		fmt.Printf("Already loaded as load_file_id %d; use --force to reload\n", summary.LoadFileID)
		return nil
	}
	fmt.Printf("Load complete: %d rows staged, %d rejected, %d upserted into ref.%s (%.1fs)\n",
		summary.RowsStaged, summary.RowsRejected, summary.RowsUpserted, kind.Table, summary.DurationTotal.Seconds())
	return nil
}

func printPlan(s *model.LoadSummary, checkedDB bool) {
	fmt.Println("=== claimrun load plan ===")
	fmt.Printf("Kind:       %s\n", s.Kind)
	fmt.Printf("File:       %s\n", s.FilePath)
	fmt.Printf("SHA-256:    %s\n", s.FileSHA256)
	fmt.Printf("Total rows: %d\n", s.RowsRead)
	switch {
	case !checkedDB:
		fmt.Println("Database:   not checked (no --dsn)")
	case s.AlreadyLoaded:
		fmt.Printf("Database:   already loaded (load_file_id %d)\n", s.LoadFileID)
	default:
		fmt.Println("Database:   would load")
	}
	fmt.Println("Schema validation: OK")
}
