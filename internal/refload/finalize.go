package refload

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimengine/internal/model"
)

// Finalize records the staged row count, marks the file loaded, and
// refreshes planner statistics on the serving table.
func Finalize(ctx context.Context, db DB, log zerolog.Logger, kind model.RefKind, loadFileID, rowsStaged int64) (time.Duration, error) {
	start := time.Now()

	if _, err := db.Exec(ctx,
		"UPDATE ingest.load_files SET row_count = $2 WHERE load_file_id = $1",
		loadFileID, rowsStaged,
	); err != nil {
		return 0, fmt.Errorf("record row count: %w", err)
	}
	if err := UpdateStatus(ctx, db, loadFileID, "loaded"); err != nil {
		return 0, fmt.Errorf("mark loaded: %w", err)
	}

	table := pgx.Identifier{"ref", kind.Table}.Sanitize()
	if _, err := db.Exec(ctx, "ANALYZE "+table); err != nil {
		return 0, fmt.Errorf("analyze %s: %w", table, err)
	}
	log.Info().Int64("load_file_id", loadFileID).Str("table", table).Msg("load finalized")

	return time.Since(start), nil
}
