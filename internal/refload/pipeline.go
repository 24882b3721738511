// Package refload loads reference Parquet files (procedure catalog, payer fee
// schedules, RVUs) into the Postgres ref schema.
package refload

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimengine/internal/model"
)

// DB is the subset of *pgxpool.Pool the loader uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Options selects the file and behavior of one load.
type Options struct {
	Kind        model.RefKind
	FilePath    string
	Force       bool
	KeepStaging bool
	// DryRun stops after preflight without writing anything.
	DryRun bool
}

// Run executes the full load pipeline: preflight → stage → upsert →
// finalize → cleanup.
func Run(ctx context.Context, db DB, log zerolog.Logger, opts Options) (*model.LoadSummary, error) {
	totalStart := time.Now()
	log = log.With().Str("kind", opts.Kind.Name).Logger()

	log.Info().Str("file", opts.FilePath).Msg("starting preflight")
	pf, err := Preflight(ctx, db, log, opts)
	if err != nil {
		return nil, &PipelineError{Phase: "preflight", Err: err}
	}

	summary := &model.LoadSummary{
		Kind:          opts.Kind.Name,
		FilePath:      pf.FilePath,
		FileSHA256:    pf.FileSHA256,
		LoadFileID:    pf.LoadFileID,
		IngestBatchID: pf.IngestBatchID.String(),
		AlreadyLoaded: pf.AlreadyLoaded,
		RowsRead:      pf.NumRows,
	}
	if pf.AlreadyLoaded {
		log.Info().
			Int64("load_file_id", pf.LoadFileID).
			Str("sha256", pf.FileSHA256).
			Msg("file already loaded, skipping (use --force to reload)")
		summary.DurationTotal = time.Since(totalStart)
		return summary, nil
	}
	if opts.DryRun {
		log.Info().Int64("rows", pf.NumRows).Msg("dry run: schema valid, nothing written")
		summary.DurationTotal = time.Since(totalStart)
		return summary, nil
	}

	// Stage
	if err := UpdateStatus(ctx, db, pf.LoadFileID, "staging"); err != nil {
		return nil, &PipelineError{Phase: "stage", Err: err}
	}
	stageResult, err := Stage(ctx, db, log, pf)
	if err != nil {
		_ = UpdateStatus(ctx, db, pf.LoadFileID, "failed")
		_ = Cleanup(ctx, db, log, opts.Kind, pf.IngestBatchID)
		return nil, &PipelineError{Phase: "stage", Err: err}
	}

	// Upsert
	upserted, upsertDur, err := Upsert(ctx, db, log, opts.Kind, pf.IngestBatchID, pf.LoadFileID)
	if err != nil {
		_ = UpdateStatus(ctx, db, pf.LoadFileID, "failed")
		return nil, &PipelineError{Phase: "upsert", Err: err}
	}

	// Finalize
	finalizeDur, err := Finalize(ctx, db, log, opts.Kind, pf.LoadFileID, stageResult.RowsStaged)
	if err != nil {
		_ = UpdateStatus(ctx, db, pf.LoadFileID, "failed")
		return nil, &PipelineError{Phase: "finalize", Err: err}
	}

	// Cleanup staging
	if !opts.KeepStaging {
		if err := Cleanup(ctx, db, log, opts.Kind, pf.IngestBatchID); err != nil {
			log.Warn().Err(err).Msg("staging cleanup failed (non-fatal)")
		}
	}

	summary.RowsRead = stageResult.RowsRead
	summary.RowsStaged = stageResult.RowsStaged
	summary.RowsRejected = stageResult.RowsRejected
	summary.RowsUpserted = upserted
	summary.DurationStage = stageResult.Duration
	summary.DurationUpsert = upsertDur
	summary.DurationFinalize = finalizeDur
	summary.DurationTotal = time.Since(totalStart)

	log.Info().
		Int64("rows_read", summary.RowsRead).
		Int64("rows_staged", summary.RowsStaged).
		Int64("rows_upserted", summary.RowsUpserted).
		Int64("rows_rejected", summary.RowsRejected).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("reference load complete")

	return summary, nil
}
