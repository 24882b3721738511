package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/gyeh/claimengine/internal/normalize"
	"github.com/gyeh/claimengine/internal/refdata"
)

// Denial reasons in priority order.
const (
	DenialPatientNotFound = "Patient not found in system"
	DenialPolicyInactive  = "Insurance policy is not active"
	DenialPayerMismatch   = "Payer mismatch with patient insurance"
	DenialUnverified      = "Eligibility could not be verified"
)

type EligibilityResult struct {
	Eligible     bool
	Authorized   bool
	DenialReason string
	// Unavailable is set when the denial came from a lookup fault rather
	// than the stored record.
	Unavailable bool
}

func denied(reason string) EligibilityResult {
	return EligibilityResult{DenialReason: reason}
}

// CheckEligibility verifies the patient's stored coverage against the payer
// on the encounter. policyStatus is the status reported on the encounter
// itself and may be empty.
func (e *Engine) CheckEligibility(ctx context.Context, patientID, payerID, policyStatus string) EligibilityResult {
	cov, err := e.ref.PatientCoverage(ctx, patientID)
	switch {
	case errors.Is(err, refdata.ErrNotFound):
		return denied(DenialPatientNotFound)
	case err != nil:
		e.log.Warn().Err(err).Str("stage", "eligibility").Str("patient_id", patientID).Msg("coverage lookup failed")
		r := denied(DenialUnverified)
		r.Unavailable = true
		return r
	case cov == nil:
		return denied(DenialPatientNotFound)
	}

	if normalize.Status(cov.InsuranceStatus) != "active" ||
		(policyStatus != "" && normalize.Status(policyStatus) != "active") {
		return denied(DenialPolicyInactive)
	}
	stored := strings.TrimSpace(cov.PayerID)
	if stored == "" {
		e.log.Warn().Str("stage", "eligibility").Str("patient_id", patientID).Msg("coverage record has no payer")
		r := denied(DenialUnverified)
		r.Unavailable = true
		return r
	}
	if !strings.EqualFold(stored, strings.TrimSpace(payerID)) {
		return denied(DenialPayerMismatch)
	}
	return EligibilityResult{Eligible: true, Authorized: true}
}
