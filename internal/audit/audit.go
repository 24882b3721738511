// Package audit records the decision trail of every pipeline run.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimengine/internal/model"
)

// Kind distinguishes the three record types a run produces.
type Kind string

const (
	KindDecision Kind = "decision"
	KindWarning  Kind = "warning"
	KindError    Kind = "error"
)

// Event is one flattened audit record. Seq orders events within a run.
type Event struct {
	RunID       string
	EncounterID string
	PatientID   string
	Seq         int
	Kind        Kind
	// Code is the node id for decisions, the warning/error code otherwise.
	Code       string
	Outcome    string
	Message    string
	RecordedAt time.Time
}

// Sink receives the events of one run at a time.
type Sink interface {
	Emit(ctx context.Context, events []Event) error
}

// EventsFromResult flattens a result into events: decisions first, then
// warnings, then errors.
func EventsFromResult(res *model.ProcessResult, patientID string, at time.Time) []Event {
	if res == nil {
		return nil
	}
	events := make([]Event, 0, len(res.Decisions)+len(res.Warnings)+len(res.Errors))
	add := func(kind Kind, code, outcome, msg string) {
		events = append(events, Event{
			RunID:       res.RunID,
			EncounterID: res.EncounterID,
			PatientID:   patientID,
			Seq:         len(events),
			Kind:        kind,
			Code:        code,
			Outcome:     outcome,
			Message:     msg,
			RecordedAt:  at,
		})
	}
	for _, d := range res.Decisions {
		add(KindDecision, d.NodeID, d.Outcome, d.Rationale)
	}
	for _, w := range res.Warnings {
		add(KindWarning, w.Code, "", w.Message)
	}
	for _, e := range res.Errors {
		add(KindError, e.Code, "", e.Message)
	}
	return events
}

// Discard drops every event.
type Discard struct{}

func (Discard) Emit(context.Context, []Event) error { return nil }

// LogSink writes each event as a structured log line.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("component", "audit").Logger()}
}

func (s *LogSink) Emit(_ context.Context, events []Event) error {
	for _, ev := range events {
		var e *zerolog.Event
		switch ev.Kind {
		case KindError:
			e = s.log.Warn()
		default:
			e = s.log.Debug()
		}
		e.Str("run_id", ev.RunID).
			Str("encounter_id", ev.EncounterID).
			Int("seq", ev.Seq).
			Str("kind", string(ev.Kind)).
			Str("code", ev.Code).
			Str("outcome", ev.Outcome).
			Msg(ev.Message)
	}
	return nil
}

// Multi fans events out to every sink. All sinks are attempted; their
// errors are joined.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, events []Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
