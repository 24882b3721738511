package refload

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimengine/internal/model"
)

// Cleanup deletes staging rows for the given batch.
func Cleanup(ctx context.Context, db DB, log zerolog.Logger, kind model.RefKind, batchID uuid.UUID) error {
	start := time.Now()

	tag, err := db.Exec(ctx,
		"DELETE FROM "+stageTable(kind).Sanitize()+" WHERE ingest_batch_id = $1",
		batchID,
	)
	if err != nil {
		return err
	}

	log.Info().
		Int64("rows_deleted", tag.RowsAffected()).
		Dur("duration", time.Since(start)).
		Msg("staging cleanup complete")

	return nil
}
