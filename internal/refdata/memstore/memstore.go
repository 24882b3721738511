// Package memstore is a read-only, in-memory reference snapshot loaded from
// YAML. It backs the CLI when no database is configured and the engine tests.
package memstore

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/claimengine/internal/model"
	"github.com/gyeh/claimengine/internal/normalize"
	"github.com/gyeh/claimengine/internal/refdata"
)

// Snapshot is the on-disk YAML structure.
type Snapshot struct {
	Patients         []refdata.PatientCoverage `yaml:"patients"`
	Procedures       []refdata.ProcedureCode   `yaml:"procedures"`
	Encounters       []EncounterRecord         `yaml:"encounters"`
	FeeSchedules     []FeeScheduleEntry        `yaml:"fee_schedules"`
	RVUs             []refdata.RVU             `yaml:"rvus"`
	PayerMultipliers []PayerMultiplier         `yaml:"payer_multipliers"`
	CodingRules      []refdata.CodingRule      `yaml:"coding_rules"`
	SDOH             []refdata.SDOHAssessment  `yaml:"sdoh"`
}

// EncounterRecord is a historical encounter used for new-patient checks.
type EncounterRecord struct {
	ID        string     `yaml:"id"`
	PatientID string     `yaml:"patient_id"`
	Date      model.Date `yaml:"date"`
}

// FeeScheduleEntry is a contracted rate in dollars.
type FeeScheduleEntry struct {
	PayerID string  `yaml:"payer_id"`
	Code    string  `yaml:"code"`
	Amount  float64 `yaml:"amount"`
}

type PayerMultiplier struct {
	PayerID    string  `yaml:"payer_id"`
	Multiplier float64 `yaml:"multiplier"`
}

// Store implements refdata.Source over an immutable Snapshot. It is safe for
// concurrent use because nothing is written after New returns.
type Store struct {
	patients    map[string]refdata.PatientCoverage
	procedures  []refdata.ProcedureCode
	byCode      map[string]int
	encounters  map[string][]EncounterRecord
	fees        map[string]int64
	rvus        map[string]refdata.RVU
	multipliers map[string]float64
	rules       map[string][]refdata.CodingRule
	sdoh        map[string]refdata.SDOHAssessment
}

var _ refdata.Source = (*Store)(nil)

// Load reads a YAML snapshot file and indexes it.
func Load(path string) (*Store, error) {
	snap, err := ReadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return New(snap), nil
}

// ReadSnapshot reads a YAML snapshot file without indexing it.
func ReadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	return ParseSnapshot(data)
}

// ParseSnapshot decodes YAML snapshot bytes.
func ParseSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, nil
}

// Parse decodes a YAML snapshot and indexes it.
func Parse(data []byte) (*Store, error) {
	snap, err := ParseSnapshot(data)
	if err != nil {
		return nil, err
	}
	return New(snap), nil
}

// New indexes a snapshot. Codes are normalized so lookups are insensitive to
// case and punctuation.
func New(snap Snapshot) *Store {
	s := &Store{
		patients:    make(map[string]refdata.PatientCoverage, len(snap.Patients)),
		byCode:      make(map[string]int, len(snap.Procedures)),
		encounters:  make(map[string][]EncounterRecord),
		fees:        make(map[string]int64, len(snap.FeeSchedules)),
		rvus:        make(map[string]refdata.RVU, len(snap.RVUs)),
		multipliers: make(map[string]float64, len(snap.PayerMultipliers)),
		rules:       make(map[string][]refdata.CodingRule),
		sdoh:        make(map[string]refdata.SDOHAssessment, len(snap.SDOH)),
	}
	for _, p := range snap.Patients {
		s.patients[p.PatientID] = p
	}
	for _, p := range snap.Procedures {
		p.Code = normalize.ProcedureCode(p.Code)
		if _, dup := s.byCode[p.Code]; !dup {
			s.byCode[p.Code] = len(s.procedures)
		}
		s.procedures = append(s.procedures, p)
	}
	for _, e := range snap.Encounters {
		s.encounters[e.PatientID] = append(s.encounters[e.PatientID], e)
	}
	for _, f := range snap.FeeSchedules {
		s.fees[feeKey(f.PayerID, normalize.ProcedureCode(f.Code))] = normalize.DollarsToCents(f.Amount)
	}
	for _, r := range snap.RVUs {
		r.Code = normalize.ProcedureCode(r.Code)
		s.rvus[r.Code] = r
	}
	for _, m := range snap.PayerMultipliers {
		s.multipliers[m.PayerID] = m.Multiplier
	}
	for _, r := range snap.CodingRules {
		code := normalize.ProcedureCode(r.ProcedureCode)
		s.rules[code] = append(s.rules[code], r)
	}
	for _, a := range snap.SDOH {
		s.sdoh[a.PatientID] = a
	}
	return s
}

func feeKey(payerID, code string) string {
	return payerID + "\x00" + code
}

func (s *Store) PatientCoverage(_ context.Context, patientID string) (*refdata.PatientCoverage, error) {
	p, ok := s.patients[patientID]
	if !ok {
		return nil, refdata.ErrNotFound
	}
	return &p, nil
}

func (s *Store) ProcedureByCode(_ context.Context, code string) (*refdata.ProcedureCode, error) {
	idx, ok := s.byCode[normalize.ProcedureCode(code)]
	if !ok {
		return nil, refdata.ErrNotFound
	}
	p := s.procedures[idx]
	return &p, nil
}

func (s *Store) SearchProcedures(_ context.Context, description string) ([]refdata.ProcedureCode, error) {
	q := normalize.Name(description)
	if q == "" {
		return nil, nil
	}
	var out []refdata.ProcedureCode
	for _, p := range s.procedures {
		if strings.Contains(normalize.Name(p.ShortDescription), q) ||
			strings.Contains(normalize.Name(p.LongDescription), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) PriorEncounters(_ context.Context, patientID string, from, to time.Time) ([]string, error) {
	var ids []string
	for _, e := range s.encounters[patientID] {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		ids = append(ids, e.ID)
	}
	return ids, nil
}

func (s *Store) ContractedRate(_ context.Context, payerID, code string) (int64, error) {
	cents, ok := s.fees[feeKey(payerID, normalize.ProcedureCode(code))]
	if !ok {
		return 0, refdata.ErrNotFound
	}
	return cents, nil
}

func (s *Store) RVUs(_ context.Context, code string) (*refdata.RVU, error) {
	r, ok := s.rvus[normalize.ProcedureCode(code)]
	if !ok {
		return nil, refdata.ErrNotFound
	}
	return &r, nil
}

func (s *Store) Multiplier(_ context.Context, payerID string) (float64, error) {
	m, ok := s.multipliers[payerID]
	if !ok {
		return 0, refdata.ErrNotFound
	}
	return m, nil
}

func (s *Store) ActiveRules(_ context.Context, procedureCode string) ([]refdata.CodingRule, error) {
	var out []refdata.CodingRule
	for _, r := range s.rules[normalize.ProcedureCode(procedureCode)] {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) AssessSDOH(_ context.Context, patientID string) (*refdata.SDOHAssessment, error) {
	a, ok := s.sdoh[patientID]
	if !ok {
		return nil, refdata.ErrNotFound
	}
	return &a, nil
}
