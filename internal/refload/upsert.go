package refload

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimengine/internal/model"
	embedsql "github.com/gyeh/claimengine/internal/sql"
)

// Upsert moves one staged batch into the serving table. When a key appears
// more than once in the file, the last row wins.
func Upsert(ctx context.Context, db DB, log zerolog.Logger, kind model.RefKind, batchID uuid.UUID, loadFileID int64) (int64, time.Duration, error) {
	start := time.Now()
	query, ok := embedsql.UpsertByKind[kind.Name]
	if !ok {
		return 0, 0, fmt.Errorf("no upsert for reference kind %q", kind.Name)
	}
	tag, err := db.Exec(ctx, query, batchID, loadFileID)
	if err != nil {
		return 0, 0, fmt.Errorf("upsert ref.%s: %w", kind.Table, err)
	}
	dur := time.Since(start)
	log.Info().
		Str("table", "ref."+kind.Table).
		Int64("rows", tag.RowsAffected()).
		Dur("duration", dur).
		Msg("upsert complete")
	return tag.RowsAffected(), dur, nil
}
