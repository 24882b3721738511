package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/gyeh/claimengine/internal/normalize"
	"github.com/gyeh/claimengine/internal/refdata"
)

type RateSource string

const (
	RateContracted   RateSource = "contracted"
	RateRVU          RateSource = "rvu"
	RateChargemaster RateSource = "chargemaster"
)

type FeeResult struct {
	FeeFound         bool
	AppliedRateCents int64
	RateSource       RateSource
	Detail           string
}

type feeQuery struct {
	code       string
	payerID    string
	providerID string
}

// feeTier returns ok=false to fall through to the next tier.
type feeTier func(ctx context.Context, q feeQuery) (FeeResult, bool)

// LookupFee prices the code by walking the tiers in order. The last tier
// always answers, so FeeFound is always true.
func (e *Engine) LookupFee(ctx context.Context, code, payerID, providerID string) FeeResult {
	q := feeQuery{code: normalize.ProcedureCode(code), payerID: payerID, providerID: providerID}
	for _, tier := range e.tiers {
		if res, ok := tier(ctx, q); ok {
			res.FeeFound = true
			return res
		}
	}
	// Unreachable with the default tier list.
	return FeeResult{
		FeeFound:         true,
		AppliedRateCents: e.opts.ChargemasterCents,
		RateSource:       RateChargemaster,
		Detail:           "chargemaster default",
	}
}

func (e *Engine) tierFault(tier string, q feeQuery, err error) {
	if err == nil || errors.Is(err, refdata.ErrNotFound) {
		return
	}
	e.log.Warn().Err(err).
		Str("stage", "fee").
		Str("tier", tier).
		Str("code", q.code).
		Str("payer_id", q.payerID).
		Msg("fee tier lookup failed, falling through")
}

func (e *Engine) contractedTier(ctx context.Context, q feeQuery) (FeeResult, bool) {
	cents, err := e.ref.ContractedRate(ctx, q.payerID, q.code)
	if err != nil {
		e.tierFault(string(RateContracted), q, err)
		return FeeResult{}, false
	}
	return FeeResult{
		AppliedRateCents: cents,
		RateSource:       RateContracted,
		Detail:           fmt.Sprintf("contracted rate %s for %s with payer %s", normalize.FormatCents(cents), q.code, q.payerID),
	}, true
}

func (e *Engine) rvuTier(ctx context.Context, q feeQuery) (FeeResult, bool) {
	rvu, err := e.ref.RVUs(ctx, q.code)
	if err != nil || rvu == nil {
		e.tierFault(string(RateRVU), q, err)
		return FeeResult{}, false
	}
	mult, err := e.ref.Multiplier(ctx, q.payerID)
	if err != nil {
		e.tierFault(string(RateRVU), q, err)
		return FeeResult{}, false
	}
	total := rvu.Total()
	if total <= 0 || mult <= 0 {
		return FeeResult{}, false
	}
	cents := normalize.DollarsToCents(total * mult)
	return FeeResult{
		AppliedRateCents: cents,
		RateSource:       RateRVU,
		Detail:           fmt.Sprintf("%.2f RVU x %.4f (payer %s) = %s", total, mult, q.payerID, normalize.FormatCents(cents)),
	}, true
}

func (e *Engine) chargemasterTier(_ context.Context, q feeQuery) (FeeResult, bool) {
	return FeeResult{
		AppliedRateCents: e.opts.ChargemasterCents,
		RateSource:       RateChargemaster,
		Detail:           fmt.Sprintf("no payer rate for %s; chargemaster %s", q.code, normalize.FormatCents(e.opts.ChargemasterCents)),
	}, true
}
