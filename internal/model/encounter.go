package model

// EncounterType is the kind of clinical encounter being billed.
type EncounterType string

const (
	EncounterOfficeVisit  EncounterType = "office_visit"
	EncounterConsultation EncounterType = "consultation"
	EncounterTelehealth   EncounterType = "telehealth"
	EncounterEmergency    EncounterType = "emergency"
	EncounterSurgery      EncounterType = "surgery"
	EncounterProcedure    EncounterType = "procedure"
)

// AllEncounterTypes lists the supported encounter types in canonical order.
var AllEncounterTypes = []EncounterType{
	EncounterOfficeVisit,
	EncounterConsultation,
	EncounterTelehealth,
	EncounterEmergency,
	EncounterSurgery,
	EncounterProcedure,
}

// IsEvaluationManagement reports whether the type is billed from the E/M families.
func (t EncounterType) IsEvaluationManagement() bool {
	switch t {
	case EncounterOfficeVisit, EncounterConsultation, EncounterTelehealth, EncounterEmergency:
		return true
	}
	return false
}

// Diagnosis is one presenting diagnosis. ICD10 may be empty when only the
// free-text term was captured.
type Diagnosis struct {
	Term  string `json:"term,omitempty" yaml:"term"`
	ICD10 string `json:"icd10,omitempty" yaml:"icd10"`
}

// Procedure is one performed procedure. Code is optional.
type Procedure struct {
	Description string `json:"description,omitempty" yaml:"description"`
	Code        string `json:"code,omitempty" yaml:"code"`
}

// EncounterInput is the read-only description of a clinical encounter handed
// to the engine. Callers must not mutate it while a run is in flight.
type EncounterInput struct {
	EncounterID    string        `json:"encounterId"`
	PatientID      string        `json:"patientId"`
	ProviderID     string        `json:"providerId"`
	PayerID        string        `json:"payerId"`
	PolicyStatus   string        `json:"policyStatus,omitempty"`
	ServiceDate    Date          `json:"serviceDate"`
	EncounterType  EncounterType `json:"encounterType"`
	PlaceOfService string        `json:"placeOfService"`
	ChiefComplaint string        `json:"chiefComplaint,omitempty"`
	Diagnoses      []Diagnosis   `json:"diagnoses,omitempty"`
	Procedures     []Procedure   `json:"proceduresPerformed,omitempty"`
	TimeSpent      *int          `json:"timeSpent,omitempty"`

	// Circumstances are asserted modifier circumstance tags such as
	// "bilateral" or "professional_component".
	Circumstances []string `json:"circumstances,omitempty"`
}

// HasProcedureCode reports whether any performed procedure carries a code.
func (in *EncounterInput) HasProcedureCode() bool {
	for _, p := range in.Procedures {
		if p.Code != "" {
			return true
		}
	}
	return false
}

// ICD10Codes returns the coded diagnoses in input order, skipping uncoded ones.
func (in *EncounterInput) ICD10Codes() []string {
	codes := make([]string, 0, len(in.Diagnoses))
	for _, d := range in.Diagnoses {
		if d.ICD10 != "" {
			codes = append(codes, d.ICD10)
		}
	}
	return codes
}

type ExamDetail string

const (
	ExamProblemFocused ExamDetail = "problem_focused"
	ExamExpanded       ExamDetail = "expanded"
	ExamDetailed       ExamDetail = "detailed"
	ExamComprehensive  ExamDetail = "comprehensive"
)

type AmountOfData string

const (
	DataMinimal   AmountOfData = "minimal"
	DataLimited   AmountOfData = "limited"
	DataModerate  AmountOfData = "moderate"
	DataExtensive AmountOfData = "extensive"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// DocumentationQuality captures how completely the clinician documented the
// encounter. It is supplied per evaluation and never stored by the engine.
type DocumentationQuality struct {
	HPI               bool         `json:"hpi"`
	ROS               bool         `json:"ros"`
	PFSH              bool         `json:"pfsh"`
	ExamPerformed     bool         `json:"examPerformed"`
	ExamDetail        ExamDetail   `json:"examDetail,omitempty"`
	NumberOfDiagnoses int          `json:"numberOfDiagnoses"`
	AmountOfData      AmountOfData `json:"amountOfData,omitempty"`
	RiskLevel         RiskLevel    `json:"riskLevel,omitempty"`
	TotalTime         int          `json:"totalTime,omitempty"`
	CompletenessScore int          `json:"completenessScore"`
}
