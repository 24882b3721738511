// Package engine is the billing decision pipeline: it turns one encounter into
// one claim line plus the audit trail that justifies it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimengine/internal/audit"
	"github.com/gyeh/claimengine/internal/model"
	"github.com/gyeh/claimengine/internal/normalize"
	"github.com/gyeh/claimengine/internal/refdata"
)

const (
	DefaultChargemasterCents = 15000
	DefaultLookbackYears     = 3

	// UnlistedServiceCode is billed when a procedural encounter has no
	// catalog match.
	UnlistedServiceCode = "99199"
)

// Options tunes an Engine. Zero values fall back to the defaults above.
type Options struct {
	ChargemasterCents int64
	LookbackYears     int
	EnableSDOH        bool
	Now               func() time.Time
}

// Engine runs the pipeline. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	ref   refdata.Source
	log   zerolog.Logger
	sink  audit.Sink
	opts  Options
	tiers []feeTier
}

// New builds an Engine over the given reference source. A nil sink discards
// audit events.
func New(ref refdata.Source, log zerolog.Logger, sink audit.Sink, opts Options) *Engine {
	if opts.ChargemasterCents <= 0 {
		opts.ChargemasterCents = DefaultChargemasterCents
	}
	if opts.LookbackYears <= 0 {
		opts.LookbackYears = DefaultLookbackYears
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if sink == nil {
		sink = audit.Discard{}
	}
	e := &Engine{ref: ref, log: log, sink: sink, opts: opts}
	e.tiers = []feeTier{e.contractedTier, e.rvuTier, e.chargemasterTier}
	return e
}

var errRunCancelled = errors.New("run cancelled")

// ProcessEncounter runs every stage for one encounter. It never panics and
// never returns a nil result.
func (e *Engine) ProcessEncounter(ctx context.Context, in *model.EncounterInput, doc model.DocumentationQuality) (res *model.ProcessResult) {
	start := time.Now()
	r := newRun(in)
	log := e.log.With().Str("run_id", r.result.RunID).Str("encounter_id", r.result.EncounterID).Logger()

	defer func() {
		if p := recover(); p != nil {
			var stack [4096]byte
			n := runtime.Stack(stack[:], false)
			log.Error().
				Str("panic", fmt.Sprintf("%v", p)).
				Str("stack", string(stack[:n])).
				Msg("pipeline panic recovered")
			res = r.fail(model.ErrCodeProcessingError, fmt.Sprintf("unexpected fault while processing encounter: %v", p))
		}
		e.emit(ctx, res, in)
		evt := log.Info()
		if !res.Success {
			evt = log.Warn()
		}
		cpt := ""
		if res.ClaimLine != nil {
			cpt = res.ClaimLine.CPTCode
		}
		evt.
			Bool("success", res.Success).
			Bool("manual_review", res.RequiresManualReview).
			Str("cpt", cpt).
			Int("warnings", len(res.Warnings)).
			Dur("duration", time.Since(start)).
			Msg("encounter processed")
	}()

	if err := validateInput(in); err != nil {
		return r.fail(model.ErrCodeInvalidInput, err.Error())
	}
	log.Debug().Str("fingerprint", EncounterFingerprint(in)).Msg("processing encounter")

	res, err := e.pipeline(ctx, r, in, doc)
	if err != nil {
		return r.fail(model.ErrCodeProcessingError, err.Error())
	}
	return res
}

func validateInput(in *model.EncounterInput) error {
	switch {
	case in == nil:
		return errors.New("encounter input is required")
	case in.EncounterID == "":
		return errors.New("encounterId is required")
	case in.PatientID == "":
		return errors.New("patientId is required")
	case in.PayerID == "":
		return errors.New("payerId is required")
	}
	return nil
}

func checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", errRunCancelled, err)
	}
	return nil
}

func (e *Engine) pipeline(ctx context.Context, r *run, in *model.EncounterInput, doc model.DocumentationQuality) (*model.ProcessResult, error) {
	// NODE_A
	elig := e.CheckEligibility(ctx, in.PatientID, in.PayerID, in.PolicyStatus)
	// A lookup cut short by the caller is not a denial.
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	if !elig.Eligible {
		outcome := "ineligible"
		if elig.Unavailable {
			outcome = "unavailable"
		}
		r.decide(model.NodeEligibility, outcome, elig.DenialReason)
		return r.fail(model.ErrCodeIneligible, elig.DenialReason), nil
	}
	r.decide(model.NodeEligibility, "eligible", fmt.Sprintf("active coverage with payer %s", in.PayerID))

	// NODE_B
	pos := normalize.PlaceOfService(in.PlaceOfService)
	cls := ClassifyService(in.EncounterType, pos, in.HasProcedureCode())
	r.decide(model.NodeClassification, string(cls.Type), fmt.Sprintf("%s (confidence %d)", cls.Reason, cls.Confidence))
	if cls.Type == ClassUnknown {
		r.warn(model.WarnUnknownClassification, cls.Reason)
		r.review()
	}

	// NODE_C
	procs := e.resolveProcedures(ctx, r, in.Procedures)
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	// NODE_D
	var em *EMResult
	if cls.Type == ClassEvaluationManagement || (cls.Type == ClassUnknown && procs.primary == nil) {
		res := e.EvaluateEMLevel(ctx, in, doc)
		em = &res
		r.decide(model.NodeEMLevel, fmt.Sprintf("level_%d", res.EMLevel), res.Rationale)
		if !res.LevelDetermined {
			r.warn(model.WarnEMLevelUndetermined, "documentation insufficient to level the visit; lowest code in family applied")
			r.review()
		}
	} else {
		r.decide(model.NodeEMLevel, "not_applicable", "primary service is procedural")
	}
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	primary, supplemental := primaryCode(em, procs)

	// NODE_E
	circumstances := append([]string(nil), in.Circumstances...)
	if em != nil && len(procs.found) > 0 {
		circumstances = append(circumstances, CircumstanceEMWithProcedure)
	}
	if in.EncounterType == model.EncounterTelehealth || isTelehealthPOS(pos) {
		circumstances = append(circumstances, CircumstanceTelehealth)
	}
	mods, ignored := DetermineModifiers(primary, circumstances)
	r.decide(model.NodeModifiers, modifierOutcome(mods), modifierRationale(primary, mods, ignored))

	// NODE_F
	fee := e.LookupFee(ctx, primary, in.PayerID, in.ProviderID)
	r.decide(model.NodeFee, string(fee.RateSource), fee.Detail)
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	// NODE_G
	dx := normalizeDiagnoses(in.ICD10Codes())
	nec := e.ValidateMedicalNecessity(ctx, primary, dx)
	r.decide(model.NodeNecessity, nec.Outcome(), nec.Rationale())
	if !nec.IsValid {
		r.warn(model.WarnMedicalNecessityFailed, nec.FailureReason)
		r.review()
	}
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	// NODE_H
	if em != nil && primary == em.EMCode {
		pr := DetectProlongedServices(em.EMCode, em.TimeMinutes)
		r.decide(model.NodeProlonged, pr.Outcome(), pr.Rationale)
		if pr.Applies {
			supplemental = append(supplemental, model.ServiceLine{
				Kind:  model.LineProlongedService,
				Code:  pr.AddOnCode,
				Units: pr.Units,
			})
		}
	} else {
		r.decide(model.NodeProlonged, "not_applicable", "prolonged services only apply to E/M visits")
	}

	line := &model.ClaimLine{
		CPTCode:                   primary,
		Modifiers:                 modifierCodes(mods),
		ICD10Codes:                dx,
		BilledAmountCents:         fee.AppliedRateCents,
		PayerID:                   in.PayerID,
		ServiceDate:               in.ServiceDate,
		Units:                     1,
		PlaceOfService:            pos,
		RenderingProviderID:       in.ProviderID,
		MedicalNecessityValidated: nec.IsValid,
		SupplementalLines:         supplemental,
	}
	res := r.succeed(line)

	// NODE_I
	if e.opts.EnableSDOH {
		res = e.EnhanceWithSDOH(ctx, res, in.PatientID)
		if err := checkCtx(ctx); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// primaryCode picks the code billed on the claim line and any supplemental
// procedure lines.
func primaryCode(em *EMResult, procs resolvedProcedures) (string, []model.ServiceLine) {
	var supplemental []model.ServiceLine
	addProcs := func(skip *ProcedureResolution) {
		for i := range procs.found {
			if skip != nil && &procs.found[i] == skip {
				continue
			}
			supplemental = append(supplemental, model.ServiceLine{
				Kind:  model.LineProcedure,
				Code:  procs.found[i].CPTCode,
				Units: 1,
			})
		}
	}

	if em != nil {
		addProcs(nil)
		return em.EMCode, supplemental
	}
	if procs.primary != nil {
		addProcs(procs.primary)
		return procs.primary.CPTCode, supplemental
	}
	return UnlistedServiceCode, nil
}

func normalizeDiagnoses(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		n := normalize.ICD10(c)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func (e *Engine) emit(ctx context.Context, res *model.ProcessResult, in *model.EncounterInput) {
	patientID := ""
	if in != nil {
		patientID = in.PatientID
	}
	events := audit.EventsFromResult(res, patientID, e.opts.Now())
	if err := e.sink.Emit(context.WithoutCancel(ctx), events); err != nil {
		e.log.Warn().Err(err).Str("run_id", res.RunID).Msg("audit emit failed")
	}
}

func newRunID() string {
	return uuid.NewString()
}
