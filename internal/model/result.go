package model

// Stable decision node identifiers, one per pipeline stage.
const (
	NodeEligibility    = "NODE_A"
	NodeClassification = "NODE_B"
	NodeProcedure      = "NODE_C"
	NodeEMLevel        = "NODE_D"
	NodeModifiers      = "NODE_E"
	NodeFee            = "NODE_F"
	NodeNecessity      = "NODE_G"
	NodeProlonged      = "NODE_H"
	NodeSDOH           = "NODE_I"
)

// Blocking error codes.
const (
	ErrCodeIneligible      = "INELIGIBLE"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeProcessingError = "PROCESSING_ERROR"
)

// Non-blocking warning codes.
const (
	WarnUnlistedProcedure      = "UNLISTED_PROCEDURE"
	WarnMedicalNecessityFailed = "MEDICAL_NECESSITY_FAILED"
	WarnUnknownClassification  = "UNKNOWN_CLASSIFICATION"
	WarnEMLevelUndetermined    = "EM_LEVEL_UNDETERMINED"
	WarnCCMEligible            = "CCM_ELIGIBLE"
)

// DecisionRecord is one audit entry for a pipeline stage.
type DecisionRecord struct {
	NodeID    string `json:"nodeId"`
	Outcome   string `json:"outcome"`
	Rationale string `json:"rationale"`
}

// ValidationError blocks claim generation.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Warning is recorded but does not block claim generation.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Supplemental line kinds.
const (
	LineProlongedService = "prolonged_service"
	LineProcedure        = "procedure"
)

// ServiceLine is a code billed alongside the primary line.
type ServiceLine struct {
	Kind  string `json:"kind"`
	Code  string `json:"code"`
	Units int    `json:"units"`
}

// ClaimLine is the billable output of a successful run.
type ClaimLine struct {
	CPTCode                   string        `json:"cptCode"`
	Modifiers                 []string      `json:"modifiers"`
	ICD10Codes                []string      `json:"icd10Codes"`
	BilledAmountCents         int64         `json:"billedAmountCents"`
	PayerID                   string        `json:"payerId"`
	ServiceDate               Date          `json:"serviceDate"`
	Units                     int           `json:"units"`
	PlaceOfService            string        `json:"placeOfService"`
	RenderingProviderID       string        `json:"renderingProviderId"`
	MedicalNecessityValidated bool          `json:"medicalNecessityValidated"`
	SupplementalLines         []ServiceLine `json:"supplementalLines,omitempty"`
}

// Clone returns a deep copy so later stages can derive a new line without
// touching one already handed out.
func (c *ClaimLine) Clone() *ClaimLine {
	if c == nil {
		return nil
	}
	out := *c
	out.Modifiers = append([]string(nil), c.Modifiers...)
	out.ICD10Codes = append([]string(nil), c.ICD10Codes...)
	out.SupplementalLines = append([]ServiceLine(nil), c.SupplementalLines...)
	return &out
}

// ProcessResult wraps a single pipeline run. Success=false always carries a
// nil ClaimLine.
type ProcessResult struct {
	RunID                string            `json:"runId"`
	EncounterID          string            `json:"encounterId"`
	Success              bool              `json:"success"`
	ClaimLine            *ClaimLine        `json:"claimLine"`
	Decisions            []DecisionRecord  `json:"decisions"`
	Errors               []ValidationError `json:"errors"`
	Warnings             []Warning         `json:"warnings"`
	RequiresManualReview bool              `json:"requiresManualReview"`
}

// HasWarning reports whether a warning with the given code was recorded.
func (r *ProcessResult) HasWarning(code string) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// HasError reports whether an error with the given code was recorded.
func (r *ProcessResult) HasError(code string) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the result.
func (r *ProcessResult) Clone() *ProcessResult {
	out := *r
	out.ClaimLine = r.ClaimLine.Clone()
	out.Decisions = append([]DecisionRecord(nil), r.Decisions...)
	out.Errors = append([]ValidationError(nil), r.Errors...)
	out.Warnings = append([]Warning(nil), r.Warnings...)
	return &out
}
