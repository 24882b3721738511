package audit

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimengine/internal/model"
)

func sampleResult() *model.ProcessResult {
	return &model.ProcessResult{
		RunID:       "run-1",
		EncounterID: "E1",
		Decisions: []model.DecisionRecord{
			{NodeID: model.NodeEligibility, Outcome: "eligible", Rationale: "ok"},
			{NodeID: model.NodeClassification, Outcome: "procedural", Rationale: "surgery"},
		},
		Warnings: []model.Warning{{Code: model.WarnUnlistedProcedure, Message: "no match"}},
		Errors:   []model.ValidationError{{Code: model.ErrCodeProcessingError, Message: "boom"}},
	}
}

func TestEventsFromResult(t *testing.T) {
	at := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	events := EventsFromResult(sampleResult(), "P1", at)
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	for i, ev := range events {
		if ev.Seq != i {
			t.Errorf("event %d has seq %d", i, ev.Seq)
		}
		if ev.RunID != "run-1" || ev.PatientID != "P1" || !ev.RecordedAt.Equal(at) {
			t.Errorf("event %d missing run metadata: %+v", i, ev)
		}
	}
	if events[0].Kind != KindDecision || events[0].Code != model.NodeEligibility {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[2].Kind != KindWarning || events[3].Kind != KindError {
		t.Errorf("unexpected kinds: %s, %s", events[2].Kind, events[3].Kind)
	}
	if EventsFromResult(nil, "P1", at) != nil {
		t.Error("expected nil for nil result")
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf).Level(zerolog.DebugLevel))
	events := EventsFromResult(sampleResult(), "P1", time.Now())
	if err := sink.Emit(context.Background(), events); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(events) {
		t.Fatalf("expected %d log lines, got %d", len(events), len(lines))
	}
	if !strings.Contains(lines[0], `"code":"NODE_A"`) || !strings.Contains(lines[0], `"run_id":"run-1"`) {
		t.Errorf("unexpected log line: %s", lines[0])
	}
}

type failingSink struct{ calls int }

func (f *failingSink) Emit(context.Context, []Event) error {
	f.calls++
	return errors.New("sink down")
}

type countingSink struct{ events int }

func (c *countingSink) Emit(_ context.Context, events []Event) error {
	c.events += len(events)
	return nil
}

func TestMulti_AttemptsEverySink(t *testing.T) {
	bad := &failingSink{}
	good := &countingSink{}
	err := Multi{bad, good}.Emit(context.Background(), EventsFromResult(sampleResult(), "", time.Now()))
	if err == nil || !strings.Contains(err.Error(), "sink down") {
		t.Errorf("expected joined sink error, got %v", err)
	}
	if bad.calls != 1 || good.events != 4 {
		t.Errorf("expected both sinks called: bad=%d good=%d", bad.calls, good.events)
	}
}

type fakeCopier struct {
	table pgx.Identifier
	cols  []string
	rows  [][]any
}

func (f *fakeCopier) CopyFrom(_ context.Context, table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error) {
	f.table, f.cols = table, cols
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return 0, err
		}
		f.rows = append(f.rows, vals)
	}
	return int64(len(f.rows)), src.Err()
}

func TestPGSink_CopiesRows(t *testing.T) {
	c := &fakeCopier{}
	sink := NewPGSink(c)
	if err := sink.Emit(context.Background(), EventsFromResult(sampleResult(), "P1", time.Now())); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if c.table.Sanitize() != `"audit"."decision_events"` {
		t.Errorf("unexpected table %s", c.table.Sanitize())
	}
	if len(c.rows) != 4 || len(c.rows[0]) != len(c.cols) {
		t.Fatalf("unexpected rows: %d rows, %d cols", len(c.rows), len(c.cols))
	}
	if c.rows[2][4] != "warning" {
		t.Errorf("expected warning kind in row 2, got %v", c.rows[2][4])
	}

	c2 := &fakeCopier{}
	if err := NewPGSink(c2).Emit(context.Background(), nil); err != nil || c2.table != nil {
		t.Errorf("expected no copy for empty events, err=%v", err)
	}
}
