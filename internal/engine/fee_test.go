package engine

import (
	"context"
	"testing"
)

func TestLookupFee_Tiers(t *testing.T) {
	e := newTestEngine(t, fixtureStore(), Options{})
	ctx := context.Background()

	tests := []struct {
		name       string
		code       string
		payerID    string
		wantSource RateSource
		wantCents  int64
	}{
		{"contracted", "99213", "AETNA", RateContracted, 9250},
		// (1.92 + 1.5 + 0.1) x 33.2875 = 117.172
		{"rvu fallback", "99214", "AETNA", RateRVU, 11717},
		{"no multiplier for payer", "99214", "CIGNA", RateChargemaster, DefaultChargemasterCents},
		{"nothing on file", "99499", "AETNA", RateChargemaster, DefaultChargemasterCents},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.LookupFee(ctx, tt.code, tt.payerID, "DR-7")
			if !got.FeeFound {
				t.Error("FeeFound must always be true")
			}
			if got.RateSource != tt.wantSource || got.AppliedRateCents != tt.wantCents {
				t.Errorf("got %s %d, want %s %d", got.RateSource, got.AppliedRateCents, tt.wantSource, tt.wantCents)
			}
			if got.Detail == "" {
				t.Error("expected detail")
			}
		})
	}
}

func TestLookupFee_ContractBeatsRVU(t *testing.T) {
	src := fixtureStore()
	ctx := context.Background()
	if _, err := src.RVUs(ctx, "99213"); err != nil {
		t.Fatalf("fixture must carry RVUs for 99213: %v", err)
	}

	e := newTestEngine(t, src, Options{})
	got := e.LookupFee(ctx, "99213", "AETNA", "DR-7")
	if got.RateSource != RateContracted || got.AppliedRateCents != 9250 {
		t.Errorf("got %s %d, want contracted 9250", got.RateSource, got.AppliedRateCents)
	}

	// Without the contract the same code prices from RVUs:
	// (1.3 + 1.1 + 0.1) x 33.2875 = 83.219
	e = newTestEngine(t, withFaults(src, "ContractedRate"), Options{})
	got = e.LookupFee(ctx, "99213", "AETNA", "DR-7")
	if got.RateSource != RateRVU || got.AppliedRateCents != 8322 {
		t.Errorf("got %s %d, want rvu 8322", got.RateSource, got.AppliedRateCents)
	}
}

func TestLookupFee_ConfiguredChargemaster(t *testing.T) {
	e := newTestEngine(t, fixtureStore(), Options{ChargemasterCents: 22500})
	got := e.LookupFee(context.Background(), "99499", "AETNA", "")
	if got.AppliedRateCents != 22500 {
		t.Errorf("got %d, want 22500", got.AppliedRateCents)
	}
}

func TestLookupFee_FaultsFallThrough(t *testing.T) {
	e := newTestEngine(t, withFaults(fixtureStore(), "ContractedRate"), Options{})
	got := e.LookupFee(context.Background(), "93000", "AETNA", "")
	// (0.17 + 0.3 + 0.01) x 33.2875 = 15.978
	if got.RateSource != RateRVU || got.AppliedRateCents != 1598 {
		t.Errorf("expected RVU tier after contracted fault, got %s %d", got.RateSource, got.AppliedRateCents)
	}

	e = newTestEngine(t, withFaults(fixtureStore(), "ContractedRate", "RVUs"), Options{})
	got = e.LookupFee(context.Background(), "99213", "AETNA", "")
	if got.RateSource != RateChargemaster || !got.FeeFound {
		t.Errorf("expected chargemaster after faults, got %+v", got)
	}
}
