package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gyeh/claimengine/internal/model"
	"github.com/gyeh/claimengine/internal/normalize"
	"github.com/gyeh/claimengine/internal/refdata"
)

// EMFamily is the code range a visit is leveled within.
type EMFamily string

const (
	FamilyOfficeNew         EMFamily = "office_new"
	FamilyOfficeEstablished EMFamily = "office_established"
	FamilyEmergency         EMFamily = "emergency"
)

const emergencyPOS = "23"

// Complexity is the MDM complexity scale, ordered lowest first.
type Complexity int

const (
	ComplexityMinimal Complexity = iota
	ComplexityStraightforward
	ComplexityLow
	ComplexityModerate
	ComplexityHigh
)

var complexityNames = [...]string{"minimal", "straightforward", "low", "moderate", "high"}

func (c Complexity) String() string {
	if c < 0 || int(c) >= len(complexityNames) {
		return fmt.Sprintf("complexity(%d)", int(c))
	}
	return complexityNames[c]
}

type EMResult struct {
	Family          EMFamily
	NewPatient      bool
	LevelDetermined bool
	EMLevel         int
	EMCode          string
	MDMBasedCoding  bool
	// TimeMinutes is the documented time used for leveling, 0 if none.
	TimeMinutes int
	Complexity  Complexity
	Rationale   string
}

type emLevel struct {
	Level int
	Code  string
}

// timeBand covers [MinMinutes, next band's MinMinutes).
type timeBand struct {
	MinMinutes int
	emLevel
}

var timeBands = map[EMFamily][]timeBand{
	FamilyOfficeNew: {
		{1, emLevel{2, "99202"}},
		{30, emLevel{3, "99203"}},
		{45, emLevel{4, "99204"}},
		{60, emLevel{5, "99205"}},
	},
	FamilyOfficeEstablished: {
		{1, emLevel{1, "99211"}},
		{10, emLevel{2, "99212"}},
		{20, emLevel{3, "99213"}},
		{30, emLevel{4, "99214"}},
		{40, emLevel{5, "99215"}},
	},
	FamilyEmergency: {
		{1, emLevel{1, "99281"}},
		{15, emLevel{2, "99282"}},
		{30, emLevel{3, "99283"}},
		{45, emLevel{4, "99284"}},
		{60, emLevel{5, "99285"}},
	},
}

// mdmLevels is indexed by Complexity.
var mdmLevels = map[EMFamily][5]emLevel{
	FamilyOfficeNew: {
		{2, "99202"}, {2, "99202"}, {3, "99203"}, {4, "99204"}, {5, "99205"},
	},
	FamilyOfficeEstablished: {
		{1, "99211"}, {2, "99212"}, {3, "99213"}, {4, "99214"}, {5, "99215"},
	},
	FamilyEmergency: {
		{1, "99281"}, {2, "99282"}, {3, "99283"}, {4, "99284"}, {5, "99285"},
	},
}

var dataComplexity = map[model.AmountOfData]Complexity{
	model.DataMinimal:   ComplexityStraightforward,
	model.DataLimited:   ComplexityLow,
	model.DataModerate:  ComplexityModerate,
	model.DataExtensive: ComplexityHigh,
}

var riskComplexity = map[model.RiskLevel]Complexity{
	model.RiskLow:      ComplexityLow,
	model.RiskModerate: ComplexityModerate,
	model.RiskHigh:     ComplexityHigh,
}

func problemComplexity(diagnoses int) Complexity {
	switch {
	case diagnoses >= 4:
		return ComplexityHigh
	case diagnoses == 3:
		return ComplexityModerate
	case diagnoses == 2:
		return ComplexityLow
	case diagnoses == 1:
		return ComplexityStraightforward
	default:
		return ComplexityMinimal
	}
}

func familyFor(newPatient bool, pos string) EMFamily {
	switch {
	case pos == emergencyPOS:
		return FamilyEmergency
	case newPatient:
		return FamilyOfficeNew
	default:
		return FamilyOfficeEstablished
	}
}

// LevelByTime maps documented minutes to a code within the family.
func LevelByTime(f EMFamily, minutes int) (level int, code string, ok bool) {
	bands := timeBands[f]
	if minutes <= 0 || len(bands) == 0 {
		return 0, "", false
	}
	i := sort.Search(len(bands), func(i int) bool { return bands[i].MinMinutes > minutes }) - 1
	if i < 0 {
		return 0, "", false
	}
	return bands[i].Level, bands[i].Code, true
}

// MDMComplexity applies the two-of-three rule: the overall complexity is the
// median of the problem, data and risk elements. ok is false when the data
// or risk element is missing or unrecognized.
func MDMComplexity(doc model.DocumentationQuality) (Complexity, bool) {
	data, okData := dataComplexity[doc.AmountOfData]
	risk, okRisk := riskComplexity[doc.RiskLevel]
	if !okData || !okRisk {
		return ComplexityMinimal, false
	}
	elems := []Complexity{problemComplexity(doc.NumberOfDiagnoses), data, risk}
	sort.Slice(elems, func(i, j int) bool { return elems[i] < elems[j] })
	return elems[1], true
}

// EvaluateEMLevel picks the E/M code for the visit, by time when time is
// documented and by medical decision making otherwise.
func (e *Engine) EvaluateEMLevel(ctx context.Context, in *model.EncounterInput, doc model.DocumentationQuality) EMResult {
	newPatient, historyNote := e.isNewPatient(ctx, in)
	pos := normalize.PlaceOfService(in.PlaceOfService)
	res := EMResult{
		Family:     familyFor(newPatient, pos),
		NewPatient: newPatient,
	}
	patientKind := "established"
	if newPatient {
		patientKind = "new"
	}

	minutes := doc.TotalTime
	if in.TimeSpent != nil && *in.TimeSpent > 0 {
		minutes = *in.TimeSpent
	}
	if level, code, ok := LevelByTime(res.Family, minutes); ok {
		res.LevelDetermined = true
		res.EMLevel, res.EMCode = level, code
		res.TimeMinutes = minutes
		res.Rationale = fmt.Sprintf("%s patient, %d minutes documented -> %s%s", patientKind, minutes, code, historyNote)
		return res
	}

	res.MDMBasedCoding = true
	c, ok := MDMComplexity(doc)
	levels := mdmLevels[res.Family]
	if !ok {
		res.EMLevel, res.EMCode = levels[0].Level, levels[0].Code
		res.Rationale = fmt.Sprintf("%s patient, no time and incomplete MDM documentation (data %q, risk %q); defaulted to %s%s",
			patientKind, doc.AmountOfData, doc.RiskLevel, res.EMCode, historyNote)
		return res
	}
	res.LevelDetermined = true
	res.Complexity = c
	res.EMLevel, res.EMCode = levels[c].Level, levels[c].Code
	res.Rationale = fmt.Sprintf("%s patient, %s MDM (%d diagnoses, %s data, %s risk) -> %s%s",
		patientKind, c, doc.NumberOfDiagnoses, doc.AmountOfData, doc.RiskLevel, res.EMCode, historyNote)
	return res
}

// isNewPatient reports whether the patient has no prior encounter inside the
// lookback window. A history fault counts as established.
func (e *Engine) isNewPatient(ctx context.Context, in *model.EncounterInput) (bool, string) {
	to := in.ServiceDate.Time
	if to.IsZero() {
		to = e.opts.Now().UTC()
	}
	from := to.AddDate(-e.opts.LookbackYears, 0, 0)
	ids, err := e.ref.PriorEncounters(ctx, in.PatientID, from, to)
	if err != nil && !errors.Is(err, refdata.ErrNotFound) {
		e.log.Warn().Err(err).Str("stage", "em_level").Str("patient_id", in.PatientID).Msg("encounter history lookup failed")
		return false, "; history unavailable, treated as established"
	}
	for _, id := range ids {
		if id != in.EncounterID {
			return false, ""
		}
	}
	return true, fmt.Sprintf("; no visit since %s", from.Format(time.DateOnly))
}
