package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimengine/internal/db"
	"github.com/gyeh/claimengine/internal/exitcode"
	"github.com/gyeh/claimengine/internal/logging"
	"github.com/gyeh/claimengine/internal/refdata/memstore"
	"github.com/gyeh/claimengine/internal/refdata/pgstore"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Copy a YAML reference snapshot into Postgres",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&cfg.SnapshotPath, "snapshot", "", "Path to YAML reference snapshot (required)")
	_ = seedCmd.MarkFlagRequired("snapshot")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	if err := cfg.ValidateDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	snap, err := memstore.ReadSnapshot(cfg.SnapshotPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to read snapshot")
		os.Exit(exitcode.ValidationError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN, 2)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	counts, err := pgstore.New(pool).Seed(ctx, log, snap)
	if err != nil {
		log.Error().Err(err).Msg("seed failed")
		os.Exit(exitcode.LoadError)
	}

	fmt.Printf("Seed complete: %d patients, %d procedures, %d fees, %d rules\n",
		counts.Patients, counts.Procedures, counts.Fees, counts.Rules)
	return nil
}
