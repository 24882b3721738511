package engine

import (
	"github.com/gyeh/claimengine/internal/model"
)

// run accumulates the audit trail of a single ProcessEncounter call.
type run struct {
	result *model.ProcessResult
}

func newRun(in *model.EncounterInput) *run {
	r := &run{result: &model.ProcessResult{
		RunID:     newRunID(),
		Decisions: []model.DecisionRecord{},
		Errors:    []model.ValidationError{},
		Warnings:  []model.Warning{},
	}}
	if in != nil {
		r.result.EncounterID = in.EncounterID
	}
	return r
}

func (r *run) decide(node, outcome, rationale string) {
	r.result.Decisions = append(r.result.Decisions, model.DecisionRecord{
		NodeID:    node,
		Outcome:   outcome,
		Rationale: rationale,
	})
}

func (r *run) warn(code, msg string) {
	r.result.Warnings = append(r.result.Warnings, model.Warning{Code: code, Message: msg})
}

func (r *run) review() {
	r.result.RequiresManualReview = true
}

// fail terminates the run. INELIGIBLE is a definitive answer and is the only
// blocking error that does not route the encounter to a human.
func (r *run) fail(code, msg string) *model.ProcessResult {
	r.result.Success = false
	r.result.ClaimLine = nil
	r.result.Errors = append(r.result.Errors, model.ValidationError{Code: code, Message: msg})
	if code != model.ErrCodeIneligible {
		r.result.RequiresManualReview = true
	}
	return r.result
}

func (r *run) succeed(line *model.ClaimLine) *model.ProcessResult {
	r.result.Success = true
	r.result.ClaimLine = line
	return r.result
}
