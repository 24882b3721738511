package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gyeh/claimengine/internal/refdata"
)

type NecessityResult struct {
	IsValid        bool
	RulesEvaluated int
	// MatchedRequired lists "diagnosis~pattern" pairs that satisfied a
	// required pattern.
	MatchedRequired []string
	ExcludedMatches []string
	FailureReason   string
	LCDReference    string
	// Unavailable is set when the rules lookup faulted and the code was
	// presumed valid.
	Unavailable bool
}

// Outcome is the decision outcome recorded for NODE_G.
func (n NecessityResult) Outcome() string {
	switch {
	case n.Unavailable:
		return "unavailable"
	case n.IsValid:
		return "valid"
	default:
		return "invalid"
	}
}

func (n NecessityResult) Rationale() string {
	switch {
	case n.Unavailable:
		return "coding rules unavailable; presumed valid"
	case !n.IsValid:
		return n.FailureReason
	case n.RulesEvaluated == 0:
		return "no active coding rule; presumed valid"
	}
	msg := fmt.Sprintf("%d rule(s) satisfied", n.RulesEvaluated)
	if len(n.MatchedRequired) > 0 {
		msg += ": " + strings.Join(n.MatchedRequired, ", ")
	}
	if n.LCDReference != "" {
		msg += " (" + n.LCDReference + ")"
	}
	return msg
}

// ValidateMedicalNecessity checks the diagnoses against every active coding
// rule for the procedure code. Any excluded match fails the check; when any
// rule has required patterns, at least one diagnosis must match one of them.
func (e *Engine) ValidateMedicalNecessity(ctx context.Context, code string, icd10s []string) NecessityResult {
	rules, err := e.ref.ActiveRules(ctx, code)
	if err != nil && !errors.Is(err, refdata.ErrNotFound) {
		e.log.Warn().Err(err).Str("stage", "necessity").Str("code", code).Msg("coding rules lookup failed")
		return NecessityResult{IsValid: true, Unavailable: true}
	}
	if len(rules) == 0 {
		return NecessityResult{IsValid: true}
	}

	res := NecessityResult{RulesEvaluated: len(rules)}
	var required []Pattern
	for _, rule := range rules {
		for _, p := range e.compileAll(code, rule.ExcludedPatterns) {
			for _, dx := range icd10s {
				if p.Match(dx) {
					res.ExcludedMatches = append(res.ExcludedMatches, fmt.Sprintf("%s~%s", dx, p))
				}
			}
		}
		required = append(required, e.compileAll(code, rule.RequiredPatterns)...)
	}

	if len(res.ExcludedMatches) > 0 {
		res.FailureReason = fmt.Sprintf("diagnosis excluded for %s: %s", code, strings.Join(res.ExcludedMatches, ", "))
		return res
	}
	if len(required) > 0 {
		for _, dx := range icd10s {
			for _, p := range required {
				if p.Match(dx) {
					res.MatchedRequired = append(res.MatchedRequired, fmt.Sprintf("%s~%s", dx, p))
					break
				}
			}
		}
		if len(res.MatchedRequired) == 0 {
			names := make([]string, len(required))
			for i, p := range required {
				names[i] = p.String()
			}
			res.FailureReason = fmt.Sprintf("no diagnosis supports %s; requires one of %s", code, strings.Join(names, ", "))
			return res
		}
	}

	res.IsValid = true
	res.LCDReference = lcdReference(rules)
	return res
}

func (e *Engine) compileAll(code string, raw []string) []Pattern {
	out := make([]Pattern, 0, len(raw))
	for _, s := range raw {
		p, err := CompilePattern(s)
		if err != nil {
			e.log.Warn().Err(err).Str("stage", "necessity").Str("code", code).Msg("skipping invalid diagnosis pattern")
			continue
		}
		out = append(out, p)
	}
	return out
}

func lcdReference(rules []refdata.CodingRule) string {
	for _, r := range rules {
		if r.ReferenceURL != "" {
			return r.ReferenceURL
		}
	}
	for _, r := range rules {
		if r.Source != "" {
			return r.Source
		}
	}
	return ""
}
