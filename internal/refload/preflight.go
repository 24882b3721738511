package refload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimengine/internal/model"
	"github.com/gyeh/claimengine/internal/normalize"
	"github.com/gyeh/claimengine/internal/parquetread"
	embedsql "github.com/gyeh/claimengine/internal/sql"
)

// PreflightResult holds all context resolved during the preflight phase.
type PreflightResult struct {
	Kind       model.RefKind
	FilePath   string
	FileSHA256 string
	FileSize   int64
	// LoadFileID is 0 on a dry run of a file never seen before.
	LoadFileID    int64
	IngestBatchID uuid.UUID
	NumRows       int64
	// AlreadyLoaded is true when the same kind and sha256 already reached
	// status "loaded" and force mode is off.
	AlreadyLoaded bool
}

// Preflight hashes the file, validates its schema for the kind, and
// registers it in ingest.load_files. A dry run only looks the file up, and
// skips even that when db is nil.
func Preflight(ctx context.Context, db DB, log zerolog.Logger, opts Options) (*PreflightResult, error) {
	start := time.Now()

	sha, err := normalize.FileHash(opts.FilePath)
	if err != nil {
		return nil, fmt.Errorf("preflight hash: %w", err)
	}
	stat, err := os.Stat(opts.FilePath)
	if err != nil {
		return nil, fmt.Errorf("preflight stat: %w", err)
	}

	schema, numRows, err := parquetread.Inspect(opts.FilePath)
	if err != nil {
		return nil, fmt.Errorf("preflight open: %w", err)
	}
	if err := parquetread.ValidateSchema(schema, opts.Kind); err != nil {
		return nil, fmt.Errorf("preflight validate: %w", err)
	}

	log.Info().
		Str("file", filepath.Base(opts.FilePath)).
		Str("sha256", sha).
		Int64("rows", numRows).
		Dur("duration", time.Since(start)).
		Msg("preflight complete")

	pf := &PreflightResult{
		Kind:          opts.Kind,
		FilePath:      opts.FilePath,
		FileSHA256:    sha,
		FileSize:      stat.Size(),
		IngestBatchID: uuid.New(),
		NumRows:       numRows,
	}

	if opts.DryRun {
		if db == nil {
			return pf, nil
		}
		id, status, err := lookupLoadFile(ctx, db, opts.Kind.Name, sha)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return nil, fmt.Errorf("preflight lookup file: %w", err)
		default:
			pf.LoadFileID = id
			pf.AlreadyLoaded = !opts.Force && status == "loaded"
		}
		return pf, nil
	}

	pf.LoadFileID, pf.AlreadyLoaded, err = registerLoadFile(ctx, db, opts, sha, stat.Size(), numRows)
	if err != nil {
		return nil, fmt.Errorf("preflight register file: %w", err)
	}
	return pf, nil
}

func lookupLoadFile(ctx context.Context, db DB, kind, sha string) (int64, string, error) {
	var id int64
	var status string
	err := db.QueryRow(ctx, embedsql.LookupLoadFile, kind, sha).Scan(&id, &status)
	return id, status, err
}

func registerLoadFile(ctx context.Context, db DB, opts Options, sha string, fileSize, numRows int64) (int64, bool, error) {
	var id int64
	err := db.QueryRow(ctx, embedsql.RegisterLoadFile,
		opts.Kind.Name, filepath.Base(opts.FilePath), sha, fileSize, numRows,
	).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		// ON CONFLICT DO NOTHING returned no rows: the file is known.
		existing, status, err2 := lookupLoadFile(ctx, db, opts.Kind.Name, sha)
		if err2 != nil {
			return 0, false, fmt.Errorf("lookup existing load file: %w", err2)
		}
		if !opts.Force && status == "loaded" {
			return existing, true, nil
		}
		if err3 := UpdateStatus(ctx, db, existing, "pending"); err3 != nil {
			return 0, false, fmt.Errorf("reset load status: %w", err3)
		}
		return existing, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("register load file: %w", err)
	}
	return id, false, nil
}

// UpdateStatus updates the load_files status.
func UpdateStatus(ctx context.Context, db DB, loadFileID int64, status string) error {
	_, err := db.Exec(ctx, embedsql.UpdateLoadStatus, loadFileID, status)
	return err
}
