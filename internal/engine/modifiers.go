package engine

import (
	"fmt"
	"strings"
)

// Circumstance tags understood by DetermineModifiers.
const (
	CircumstanceEMWithProcedure       = "em_with_procedure"
	CircumstanceTelehealth            = "telehealth"
	CircumstanceProfessionalComponent = "professional_component"
	CircumstanceTechnicalComponent    = "technical_component"
	CircumstanceBilateral             = "bilateral"
	CircumstanceLeftSide              = "left_side"
	CircumstanceRightSide             = "right_side"
)

type modifierRule struct {
	circumstance string
	modifier     string
	rationale    string
}

// modifierTable is ordered; output modifiers follow this order.
var modifierTable = []modifierRule{
	{CircumstanceEMWithProcedure, "25", "significant, separately identifiable E/M service on the day of a procedure"},
	{CircumstanceTelehealth, "95", "synchronous telemedicine service"},
	{CircumstanceProfessionalComponent, "26", "professional component only"},
	{CircumstanceTechnicalComponent, "TC", "technical component only"},
	{CircumstanceBilateral, "50", "bilateral procedure"},
	{CircumstanceLeftSide, "LT", "left side of body"},
	{CircumstanceRightSide, "RT", "right side of body"},
}

type AppliedModifier struct {
	Code         string
	Circumstance string
	Rationale    string
}

// DetermineModifiers maps circumstance tags to CPT modifiers for the given
// code. Tags are matched case-insensitively; tags with no modifier are
// returned as ignored.
func DetermineModifiers(code string, circumstances []string) (applied []AppliedModifier, ignored []string) {
	present := make(map[string]bool, len(circumstances))
	for _, c := range circumstances {
		present[strings.ToLower(strings.TrimSpace(c))] = true
	}

	known := make(map[string]bool, len(modifierTable))
	for _, rule := range modifierTable {
		known[rule.circumstance] = true
		if present[rule.circumstance] {
			applied = append(applied, AppliedModifier{
				Code:         rule.modifier,
				Circumstance: rule.circumstance,
				Rationale:    fmt.Sprintf("%s on %s: %s", rule.modifier, code, rule.rationale),
			})
		}
	}

	seen := make(map[string]bool)
	for _, c := range circumstances {
		tag := strings.ToLower(strings.TrimSpace(c))
		if tag == "" || known[tag] || seen[tag] {
			continue
		}
		seen[tag] = true
		ignored = append(ignored, tag)
	}
	return applied, ignored
}

func modifierCodes(mods []AppliedModifier) []string {
	out := make([]string, 0, len(mods))
	for _, m := range mods {
		out = append(out, m.Code)
	}
	return out
}

func modifierOutcome(mods []AppliedModifier) string {
	if len(mods) == 0 {
		return "none"
	}
	return strings.Join(modifierCodes(mods), ",")
}

func modifierRationale(code string, mods []AppliedModifier, ignored []string) string {
	var parts []string
	for _, m := range mods {
		parts = append(parts, m.Rationale)
	}
	if len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("no modifiers apply to %s", code))
	}
	if len(ignored) > 0 {
		parts = append(parts, fmt.Sprintf("ignored unknown circumstances: %s", strings.Join(ignored, ", ")))
	}
	return strings.Join(parts, "; ")
}
