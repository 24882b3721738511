package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Copier is the slice of pgxpool.Pool that PGSink needs.
type Copier interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

var eventColumns = []string{
	"run_id", "encounter_id", "patient_id", "seq", "kind", "code", "outcome", "message", "recorded_at",
}

// PGSink appends events to audit.decision_events with COPY.
type PGSink struct {
	db Copier
}

func NewPGSink(db Copier) *PGSink {
	return &PGSink{db: db}
}

func (s *PGSink) Emit(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([][]any, len(events))
	for i, ev := range events {
		rows[i] = []any{
			ev.RunID, ev.EncounterID, ev.PatientID, ev.Seq, string(ev.Kind),
			ev.Code, ev.Outcome, ev.Message, ev.RecordedAt,
		}
	}
	n, err := s.db.CopyFrom(ctx, pgx.Identifier{"audit", "decision_events"}, eventColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy audit events: %w", err)
	}
	if n != int64(len(events)) {
		return fmt.Errorf("copy audit events: wrote %d of %d rows", n, len(events))
	}
	return nil
}
