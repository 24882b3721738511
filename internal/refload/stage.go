package refload

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimengine/internal/db"
	"github.com/gyeh/claimengine/internal/model"
	"github.com/gyeh/claimengine/internal/parquetread"
)

const readBatchSize = 1024

// StageResult holds metrics from the staging phase.
type StageResult struct {
	RowsRead     int64
	RowsStaged   int64
	RowsRejected int64
	Duration     time.Duration
}

func stageTable(kind model.RefKind) pgx.Identifier {
	return pgx.Identifier{"ingest", "stage_" + kind.Table}
}

// Stage streams the file into the kind's staging table.
func Stage(ctx context.Context, conn DB, log zerolog.Logger, pf *PreflightResult) (*StageResult, error) {
	switch pf.Kind.Name {
	case "procedure_codes":
		return stageRows(ctx, conn, log, pf, procedureValues)
	case "fee_schedule":
		return stageRows(ctx, conn, log, pf, feeValues)
	case "rvu":
		return stageRows(ctx, conn, log, pf, rvuValues)
	}
	return nil, fmt.Errorf("no stager for reference kind %q", pf.Kind.Name)
}

// stageRows reads Parquet rows of type T, converts them, and COPY-loads them
// through a channel-backed CopyFromSource.
func stageRows[T any](ctx context.Context, conn DB, log zerolog.Logger, pf *PreflightResult, convert func(*T) ([]any, error)) (*StageResult, error) {
	start := time.Now()

	reader, err := parquetread.Open[T](pf.FilePath)
	if err != nil {
		return nil, fmt.Errorf("stage open: %w", err)
	}
	defer reader.Close()

	ch := make(chan []any, readBatchSize)
	errCh := make(chan error, 1)
	copyCtx, cancelCopy := context.WithCancel(ctx)
	defer cancelCopy()

	var rowsRead, rowsRejected int64

	// Producer: read Parquet → normalize → push to channel
	go func() {
		defer close(ch)
		buf := make([]T, readBatchSize)
		var rowNum int64

		for {
			n, readErr := reader.Read(buf)
			for i := 0; i < n; i++ {
				rowNum++
				rowsRead++

				vals, convErr := convert(&buf[i])
				if convErr != nil {
					rowsRejected++
					log.Warn().Err(convErr).Int64("row", rowNum).Msg("row rejected")
					continue
				}

				row := make([]any, 0, len(vals)+2)
				row = append(row, pf.IngestBatchID, rowNum)
				row = append(row, vals...)
				select {
				case ch <- row:
				case <-copyCtx.Done():
					errCh <- copyCtx.Err()
					return
				}
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				errCh <- fmt.Errorf("read parquet at row %d: %w", rowNum, readErr)
				return
			}
		}
		errCh <- nil
	}()

	// Consumer: COPY from channel into staging table
	rowsStaged, copyErr := conn.CopyFrom(copyCtx, stageTable(pf.Kind), pf.Kind.StagingColumns(), db.NewChannelSource(ch))
	if copyErr != nil {
		// Unblock the producer if COPY stopped early.
		cancelCopy()
		for range ch {
		}
	}

	prodErr := <-errCh
	if copyErr != nil {
		return nil, fmt.Errorf("stage copy: %w", copyErr)
	}
	if prodErr != nil {
		return nil, fmt.Errorf("stage producer: %w", prodErr)
	}

	dur := time.Since(start)
	log.Info().
		Int64("rows_read", rowsRead).
		Int64("rows_staged", rowsStaged).
		Int64("rows_rejected", rowsRejected).
		Str("duration", dur.String()).
		Float64("rows_per_sec", float64(rowsStaged)/dur.Seconds()).
		Msg("staging complete")

	return &StageResult{
		RowsRead:     rowsRead,
		RowsStaged:   rowsStaged,
		RowsRejected: rowsRejected,
		Duration:     dur,
	}, nil
}
