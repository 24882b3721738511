package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gyeh/claimengine/internal/model"
	"github.com/gyeh/claimengine/internal/normalize"
	"github.com/gyeh/claimengine/internal/refdata"
)

type ProcedureResolution struct {
	Found               bool
	CPTCode             string
	Description         string
	IsUnlistedProcedure bool
	// MatchedBy is "code" or "description" when Found.
	MatchedBy string
}

// LookupProcedureCPT resolves a performed procedure to an active catalog
// code. A supplied code is tried first; a miss falls through to a partial
// description search. Not finding anything is a normal outcome.
func (e *Engine) LookupProcedureCPT(ctx context.Context, description, suppliedCode string) ProcedureResolution {
	if code := normalize.ProcedureCode(suppliedCode); code != "" {
		p, err := e.ref.ProcedureByCode(ctx, code)
		switch {
		case err == nil && p != nil && p.Active():
			return ProcedureResolution{Found: true, CPTCode: p.Code, Description: p.ShortDescription, MatchedBy: "code"}
		case err != nil && !errors.Is(err, refdata.ErrNotFound):
			e.log.Warn().Err(err).Str("stage", "procedure").Str("code", code).Msg("catalog lookup failed")
		}
	}

	if strings.TrimSpace(description) != "" {
		matches, err := e.ref.SearchProcedures(ctx, description)
		if err != nil && !errors.Is(err, refdata.ErrNotFound) {
			e.log.Warn().Err(err).Str("stage", "procedure").Str("description", description).Msg("catalog search failed")
		}
		for _, p := range matches {
			if p.Active() {
				return ProcedureResolution{Found: true, CPTCode: normalize.ProcedureCode(p.Code), Description: p.ShortDescription, MatchedBy: "description"}
			}
		}
	}
	return ProcedureResolution{IsUnlistedProcedure: true}
}

type resolvedProcedures struct {
	found   []ProcedureResolution
	primary *ProcedureResolution
}

// resolveProcedures runs LookupProcedureCPT for every performed procedure and
// records the NODE_C decision.
func (e *Engine) resolveProcedures(ctx context.Context, r *run, procs []model.Procedure) resolvedProcedures {
	var out resolvedProcedures
	if len(procs) == 0 {
		r.decide(model.NodeProcedure, "not_applicable", "no procedures recorded")
		return out
	}

	var parts []string
	unlisted := 0
	for _, p := range procs {
		res := e.LookupProcedureCPT(ctx, p.Description, p.Code)
		label := p.Description
		if label == "" {
			label = p.Code
		}
		if res.IsUnlistedProcedure {
			unlisted++
			r.warn(model.WarnUnlistedProcedure, fmt.Sprintf("no catalog match for procedure %q", label))
			r.review()
			parts = append(parts, fmt.Sprintf("%q unlisted", label))
			continue
		}
		out.found = append(out.found, res)
		parts = append(parts, fmt.Sprintf("%q -> %s by %s", label, res.CPTCode, res.MatchedBy))
	}
	if len(out.found) > 0 {
		out.primary = &out.found[0]
	}

	outcome := "resolved"
	switch {
	case unlisted == len(procs):
		outcome = "unlisted"
	case unlisted > 0:
		outcome = "partially_resolved"
	}
	r.decide(model.NodeProcedure, outcome, strings.Join(parts, "; "))
	return out
}
