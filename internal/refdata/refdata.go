// Package refdata defines the reference-data collaborators the decision engine
// consumes. The engine never owns this data; memstore and pgstore provide
// concrete implementations.
package refdata

import (
	"context"
	"errors"
	"time"

	"github.com/gyeh/claimengine/internal/normalize"
)

// ErrNotFound marks a record that truly does not exist. Any other error from
// a lookup is a fault.
var ErrNotFound = errors.New("not found")

// PatientCoverage is the stored insurance record for a patient.
type PatientCoverage struct {
	PatientID       string `yaml:"id"`
	PayerID         string `yaml:"payer_id"`
	InsuranceStatus string `yaml:"insurance_status"`
}

// ProcedureCode is one entry of the procedure code catalog.
type ProcedureCode struct {
	Code             string `yaml:"code"`
	ShortDescription string `yaml:"short_description"`
	LongDescription  string `yaml:"long_description"`
	Status           string `yaml:"status"`
}

// Active reports whether the code may be billed.
func (p ProcedureCode) Active() bool {
	return normalize.Status(p.Status) == "active"
}

// RVU holds the relative value units for a procedure code.
type RVU struct {
	Code        string  `yaml:"code"`
	Work        float64 `yaml:"work"`
	Practice    float64 `yaml:"practice"`
	Malpractice float64 `yaml:"malpractice"`
}

// Total is the sum of the three RVU components.
func (r RVU) Total() float64 {
	return r.Work + r.Practice + r.Malpractice
}

// CodingRule ties diagnosis patterns to a procedure code for medical
// necessity checks.
type CodingRule struct {
	ProcedureCode    string   `yaml:"procedure_code"`
	RequiredPatterns []string `yaml:"required_patterns"`
	ExcludedPatterns []string `yaml:"excluded_patterns"`
	Source           string   `yaml:"source"`
	ReferenceURL     string   `yaml:"reference_url"`
	Active           bool     `yaml:"active"`
}

// SDOHDomain is a social determinants of health domain.
type SDOHDomain string

const (
	DomainHousing         SDOHDomain = "housing"
	DomainFood            SDOHDomain = "food"
	DomainTransportation  SDOHDomain = "transportation"
	DomainSocialIsolation SDOHDomain = "social_isolation"
	DomainFinancial       SDOHDomain = "financial"
	DomainEducation       SDOHDomain = "education"
	DomainEmployment      SDOHDomain = "employment"
)

// DomainAssessment is the severity for one domain, optionally with the
// supplemental Z-code it justifies.
type DomainAssessment struct {
	Domain   SDOHDomain `yaml:"domain"`
	Severity string     `yaml:"severity"`
	ZCode    string     `yaml:"z_code"`
}

// SDOHAssessment is the per-patient social needs screening result.
type SDOHAssessment struct {
	PatientID   string             `yaml:"patient_id"`
	Domains     []DomainAssessment `yaml:"domains"`
	CCMEligible bool               `yaml:"ccm_eligible"`
}

type PatientLookup interface {
	PatientCoverage(ctx context.Context, patientID string) (*PatientCoverage, error)
}

type ProcedureCatalog interface {
	// ProcedureByCode is an exact lookup.
	ProcedureByCode(ctx context.Context, code string) (*ProcedureCode, error)
	// SearchProcedures returns case-insensitive partial description matches
	// in catalog order, active or not.
	SearchProcedures(ctx context.Context, description string) ([]ProcedureCode, error)
}

type EncounterHistory interface {
	// PriorEncounters returns the ids of the patient's encounters with a
	// service date in [from, to].
	PriorEncounters(ctx context.Context, patientID string, from, to time.Time) ([]string, error)
}

type FeeSchedule interface {
	// ContractedRate returns the payer's contracted amount in cents.
	ContractedRate(ctx context.Context, payerID, code string) (int64, error)
}

type RVULookup interface {
	RVUs(ctx context.Context, code string) (*RVU, error)
}

type PayerMultipliers interface {
	// Multiplier returns the payer's dollars-per-RVU conversion factor.
	Multiplier(ctx context.Context, payerID string) (float64, error)
}

type CodingRules interface {
	// ActiveRules returns only active rules for the procedure code.
	ActiveRules(ctx context.Context, procedureCode string) ([]CodingRule, error)
}

type SDOHAssessor interface {
	AssessSDOH(ctx context.Context, patientID string) (*SDOHAssessment, error)
}

// Source bundles every lookup the engine needs.
type Source interface {
	PatientLookup
	ProcedureCatalog
	EncounterHistory
	FeeSchedule
	RVULookup
	PayerMultipliers
	CodingRules
	SDOHAssessor
}
