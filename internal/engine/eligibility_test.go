package engine

import (
	"context"
	"testing"
)

func TestCheckEligibility(t *testing.T) {
	e := newTestEngine(t, fixtureStore(), Options{})
	ctx := context.Background()

	tests := []struct {
		name         string
		patientID    string
		payerID      string
		policyStatus string
		wantEligible bool
		wantReason   string
	}{
		{"active and matching", "P-EST", "AETNA", "", true, ""},
		{"status case-insensitive", "P-NEW", "aetna", "active", true, ""},
		{"unknown patient", "P-GHOST", "AETNA", "", false, DenialPatientNotFound},
		{"stored status inactive", "P-INACTIVE", "AETNA", "", false, DenialPolicyInactive},
		{"encounter reports inactive", "P-EST", "AETNA", "terminated", false, DenialPolicyInactive},
		{"inactive outranks mismatch", "P-INACTIVE", "CIGNA", "", false, DenialPolicyInactive},
		{"payer mismatch", "P-EST", "CIGNA", "", false, DenialPayerMismatch},
		{"malformed record", "P-NOPAYER", "AETNA", "", false, DenialUnverified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.CheckEligibility(ctx, tt.patientID, tt.payerID, tt.policyStatus)
			if got.Eligible != tt.wantEligible {
				t.Errorf("Eligible = %v, want %v", got.Eligible, tt.wantEligible)
			}
			if got.Authorized != got.Eligible {
				t.Errorf("Authorized = %v, want it to mirror Eligible", got.Authorized)
			}
			if got.DenialReason != tt.wantReason {
				t.Errorf("DenialReason = %q, want %q", got.DenialReason, tt.wantReason)
			}
		})
	}
}

func TestCheckEligibility_LookupFault(t *testing.T) {
	e := newTestEngine(t, withFaults(fixtureStore(), "PatientCoverage"), Options{})
	got := e.CheckEligibility(context.Background(), "P-EST", "AETNA", "")
	if got.Eligible {
		t.Fatal("expected fault to read as ineligible")
	}
	if !got.Unavailable || got.DenialReason != DenialUnverified {
		t.Errorf("unexpected result: %+v", got)
	}
}
