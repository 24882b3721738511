package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gyeh/claimengine/internal/model"
	"github.com/gyeh/claimengine/internal/normalize"
	"github.com/gyeh/claimengine/internal/refdata"
)

// EnhanceWithSDOH returns a copy of a successful result with the patient's
// social-needs Z-codes appended to the claim line. The input is never
// modified. Unsuccessful results are returned as-is.
func (e *Engine) EnhanceWithSDOH(ctx context.Context, result *model.ProcessResult, patientID string) *model.ProcessResult {
	if result == nil || !result.Success || result.ClaimLine == nil {
		return result
	}

	a, err := e.ref.AssessSDOH(ctx, patientID)
	switch {
	case errors.Is(err, refdata.ErrNotFound) || (err == nil && a == nil):
		out := result.Clone()
		out.Decisions = append(out.Decisions, model.DecisionRecord{
			NodeID: model.NodeSDOH, Outcome: "no_assessment", Rationale: "no SDOH screening on file",
		})
		return out
	case err != nil:
		e.log.Warn().Err(err).Str("stage", "sdoh").Str("patient_id", patientID).Msg("SDOH assessment failed")
		out := result.Clone()
		out.Decisions = append(out.Decisions, model.DecisionRecord{
			NodeID: model.NodeSDOH, Outcome: "unavailable", Rationale: "SDOH assessment unavailable",
		})
		return out
	}

	out := result.Clone()
	have := make(map[string]bool, len(out.ClaimLine.ICD10Codes))
	for _, c := range out.ClaimLine.ICD10Codes {
		have[c] = true
	}
	var added []string
	for _, d := range a.Domains {
		z := normalize.ICD10(d.ZCode)
		if z == "" || have[z] {
			continue
		}
		have[z] = true
		out.ClaimLine.ICD10Codes = append(out.ClaimLine.ICD10Codes, z)
		added = append(added, fmt.Sprintf("%s (%s)", z, d.Domain))
	}

	outcome, rationale := "no_codes", "screening found no codable social needs"
	if len(added) > 0 {
		outcome, rationale = "augmented", "added "+strings.Join(added, ", ")
	}
	out.Decisions = append(out.Decisions, model.DecisionRecord{NodeID: model.NodeSDOH, Outcome: outcome, Rationale: rationale})

	if a.CCMEligible {
		out.Warnings = append(out.Warnings, model.Warning{
			Code:    model.WarnCCMEligible,
			Message: "patient qualifies for chronic care management; consider enrollment",
		})
		out.RequiresManualReview = true
	}
	return out
}
