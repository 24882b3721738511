package engine

import "fmt"

const (
	prolongedUnitMinutes = 15
	maxProlongedUnits    = 16
)

type prolongedBase struct {
	baseMinutes int
	addOn       string
}

var prolongedBases = map[string]prolongedBase{
	"99205": {60, "99417"},
	"99215": {40, "99417"},
	"99223": {75, "99418"},
	"99233": {50, "99418"},
}

type ProlongedResult struct {
	Eligible     bool
	Applies      bool
	AddOnCode    string
	Units        int
	BaseMinutes  int
	ExtraMinutes int
	Rationale    string
}

func (p ProlongedResult) Outcome() string {
	switch {
	case p.Applies:
		return fmt.Sprintf("%s x%d", p.AddOnCode, p.Units)
	case p.Eligible:
		return "none"
	default:
		return "not_eligible"
	}
}

// ProlongedUnits is the number of 15-minute add-on units beyond the base
// time, capped at 16.
func ProlongedUnits(baseMinutes, totalMinutes int) int {
	extra := totalMinutes - baseMinutes
	if extra < prolongedUnitMinutes {
		return 0
	}
	return min(extra/prolongedUnitMinutes, maxProlongedUnits)
}

// DetectProlongedServices reports the add-on code and units for visits that
// ran past the base time of the billed E/M code. minutes is 0 when time was
// not documented.
func DetectProlongedServices(emCode string, minutes int) ProlongedResult {
	base, ok := prolongedBases[emCode]
	if !ok {
		return ProlongedResult{Rationale: fmt.Sprintf("%s has no prolonged-service add-on", emCode)}
	}
	res := ProlongedResult{Eligible: true, BaseMinutes: base.baseMinutes}
	if minutes <= 0 {
		res.Rationale = "time not documented"
		return res
	}
	res.ExtraMinutes = max(minutes-base.baseMinutes, 0)
	res.Units = ProlongedUnits(base.baseMinutes, minutes)
	if res.Units == 0 {
		res.Rationale = fmt.Sprintf("%d minutes beyond %s base of %d; under one unit", res.ExtraMinutes, emCode, base.baseMinutes)
		return res
	}
	res.Applies = true
	res.AddOnCode = base.addOn
	res.Rationale = fmt.Sprintf("%d minutes beyond %s base of %d -> %s x%d", res.ExtraMinutes, emCode, base.baseMinutes, base.addOn, res.Units)
	return res
}
