package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimengine/internal/audit"
	"github.com/gyeh/claimengine/internal/model"
	"github.com/gyeh/claimengine/internal/refdata"
	"github.com/gyeh/claimengine/internal/refdata/memstore"
)

var testNow = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

func fixtureSnapshot() memstore.Snapshot {
	return memstore.Snapshot{
		Patients: []refdata.PatientCoverage{
			{PatientID: "P-EST", PayerID: "AETNA", InsuranceStatus: "active"},
			{PatientID: "P-NEW", PayerID: "AETNA", InsuranceStatus: "Active"},
			{PatientID: "P-INACTIVE", PayerID: "AETNA", InsuranceStatus: "inactive"},
			{PatientID: "P-NOPAYER", PayerID: "", InsuranceStatus: "active"},
		},
		Procedures: []refdata.ProcedureCode{
			{Code: "99213", ShortDescription: "Office visit established low MDM", Status: "active"},
			{Code: "99214", ShortDescription: "Office visit established moderate MDM", Status: "active"},
			{Code: "11042", ShortDescription: "Debridement subcutaneous tissue", Status: "deleted"},
			{Code: "11043", ShortDescription: "Debridement muscle and fascia", Status: "active"},
			{Code: "29881", ShortDescription: "Knee arthroscopy with meniscectomy", Status: "active"},
			{Code: "93000", ShortDescription: "Electrocardiogram complete", LongDescription: "Routine ECG with at least 12 leads; with interpretation and report", Status: "active"},
		},
		Encounters: []memstore.EncounterRecord{
			{ID: "E-PRIOR", PatientID: "P-EST", Date: model.NewDate(2023, time.September, 1)},
			{ID: "E-OLD", PatientID: "P-NEW", Date: model.NewDate(2019, time.January, 10)},
		},
		FeeSchedules: []memstore.FeeScheduleEntry{
			{PayerID: "AETNA", Code: "99213", Amount: 92.50},
			{PayerID: "AETNA", Code: "29881", Amount: 1450.00},
		},
		RVUs: []refdata.RVU{
			{Code: "99213", Work: 1.3, Practice: 1.1, Malpractice: 0.1},
			{Code: "99214", Work: 1.92, Practice: 1.5, Malpractice: 0.1},
			{Code: "93000", Work: 0.17, Practice: 0.3, Malpractice: 0.01},
		},
		PayerMultipliers: []memstore.PayerMultiplier{
			{PayerID: "AETNA", Multiplier: 33.2875},
		},
		CodingRules: []refdata.CodingRule{
			{ProcedureCode: "99213", RequiredPatterns: []string{"I10", "E11.*"}, Source: "LCD L12345", ReferenceURL: "https://lcd.example/L12345", Active: true},
			{ProcedureCode: "99214", ExcludedPatterns: []string{"Z00.*"}, Source: "LCD L22222", Active: true},
			{ProcedureCode: "29881", RequiredPatterns: []string{"M23.2*", "S83.2*"}, Source: "NCD 150.9", Active: true},
			{ProcedureCode: "29881", ExcludedPatterns: []string{"M17.*"}, Active: false},
		},
		SDOH: []refdata.SDOHAssessment{
			{
				PatientID:   "P-EST",
				CCMEligible: true,
				Domains: []refdata.DomainAssessment{
					{Domain: refdata.DomainHousing, Severity: "moderate", ZCode: "Z59.0"},
					{Domain: refdata.DomainFood, Severity: "high", ZCode: "z5941"},
					{Domain: refdata.DomainTransportation, Severity: "low"},
				},
			},
		},
	}
}

func fixtureStore() *memstore.Store {
	return memstore.New(fixtureSnapshot())
}

type recordingSink struct {
	events []audit.Event
	err    error
}

func (s *recordingSink) Emit(_ context.Context, events []audit.Event) error {
	s.events = append(s.events, events...)
	return s.err
}

func newTestEngine(t *testing.T, src refdata.Source, opts Options) *Engine {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	return New(src, zerolog.Nop(), nil, opts)
}

func intPtr(v int) *int { return &v }

// officeVisit is an established-patient hypertension follow-up.
func officeVisit() *model.EncounterInput {
	return &model.EncounterInput{
		EncounterID:    "E-1001",
		PatientID:      "P-EST",
		ProviderID:     "DR-7",
		PayerID:        "AETNA",
		ServiceDate:    model.NewDate(2024, time.March, 15),
		EncounterType:  model.EncounterOfficeVisit,
		PlaceOfService: "11",
		ChiefComplaint: "blood pressure follow-up",
		Diagnoses:      []model.Diagnosis{{Term: "Essential hypertension", ICD10: "I10"}},
		TimeSpent:      intPtr(25),
	}
}

func moderateDoc() model.DocumentationQuality {
	return model.DocumentationQuality{
		HPI:               true,
		ROS:               true,
		ExamPerformed:     true,
		ExamDetail:        model.ExamDetailed,
		NumberOfDiagnoses: 2,
		AmountOfData:      model.DataModerate,
		RiskLevel:         model.RiskModerate,
		CompletenessScore: 80,
	}
}

var errBackend = errors.New("backend timeout")

// faultySource injects errors or panics into selected lookups.
type faultySource struct {
	refdata.Source
	faults  map[string]bool
	panicIn string
}

func withFaults(src refdata.Source, methods ...string) *faultySource {
	f := &faultySource{Source: src, faults: map[string]bool{}}
	for _, m := range methods {
		f.faults[m] = true
	}
	return f
}

func (f *faultySource) check(method string) error {
	if f.panicIn == method {
		panic("corrupt reference record")
	}
	if f.faults[method] {
		return errBackend
	}
	return nil
}

func (f *faultySource) PatientCoverage(ctx context.Context, id string) (*refdata.PatientCoverage, error) {
	if err := f.check("PatientCoverage"); err != nil {
		return nil, err
	}
	return f.Source.PatientCoverage(ctx, id)
}

func (f *faultySource) ProcedureByCode(ctx context.Context, code string) (*refdata.ProcedureCode, error) {
	if err := f.check("ProcedureByCode"); err != nil {
		return nil, err
	}
	return f.Source.ProcedureByCode(ctx, code)
}

func (f *faultySource) SearchProcedures(ctx context.Context, desc string) ([]refdata.ProcedureCode, error) {
	if err := f.check("SearchProcedures"); err != nil {
		return nil, err
	}
	return f.Source.SearchProcedures(ctx, desc)
}

func (f *faultySource) PriorEncounters(ctx context.Context, patientID string, from, to time.Time) ([]string, error) {
	if err := f.check("PriorEncounters"); err != nil {
		return nil, err
	}
	return f.Source.PriorEncounters(ctx, patientID, from, to)
}

func (f *faultySource) ContractedRate(ctx context.Context, payerID, code string) (int64, error) {
	if err := f.check("ContractedRate"); err != nil {
		return 0, err
	}
	return f.Source.ContractedRate(ctx, payerID, code)
}

func (f *faultySource) RVUs(ctx context.Context, code string) (*refdata.RVU, error) {
	if err := f.check("RVUs"); err != nil {
		return nil, err
	}
	return f.Source.RVUs(ctx, code)
}

func (f *faultySource) Multiplier(ctx context.Context, payerID string) (float64, error) {
	if err := f.check("Multiplier"); err != nil {
		return 0, err
	}
	return f.Source.Multiplier(ctx, payerID)
}

func (f *faultySource) ActiveRules(ctx context.Context, code string) ([]refdata.CodingRule, error) {
	if err := f.check("ActiveRules"); err != nil {
		return nil, err
	}
	return f.Source.ActiveRules(ctx, code)
}

func (f *faultySource) AssessSDOH(ctx context.Context, patientID string) (*refdata.SDOHAssessment, error) {
	if err := f.check("AssessSDOH"); err != nil {
		return nil, err
	}
	return f.Source.AssessSDOH(ctx, patientID)
}

// ctxAwareSource fails coverage lookups once ctx is done, as pgstore does.
type ctxAwareSource struct {
	refdata.Source
}

func (s ctxAwareSource) PatientCoverage(ctx context.Context, id string) (*refdata.PatientCoverage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Source.PatientCoverage(ctx, id)
}

// cancellingSource cancels the run from inside the rules lookup.
type cancellingSource struct {
	refdata.Source
	cancel context.CancelFunc
}

func (s cancellingSource) ActiveRules(ctx context.Context, code string) ([]refdata.CodingRule, error) {
	s.cancel()
	return nil, ctx.Err()
}

func decisionFor(res *model.ProcessResult, node string) (model.DecisionRecord, bool) {
	for _, d := range res.Decisions {
		if d.NodeID == node {
			return d, true
		}
	}
	return model.DecisionRecord{}, false
}
