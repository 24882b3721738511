package refload

import (
	"fmt"
	"math"
	"strings"

	"github.com/gyeh/claimengine/internal/model"
	"github.com/gyeh/claimengine/internal/normalize"
)

// Row converters normalize one Parquet row into staging values in
// RefKind.StageColumns order. An error rejects the row.

func procedureValues(r *model.ProcedureCodeRow) ([]any, error) {
	code := normalize.ProcedureCode(r.Code)
	if code == "" {
		return nil, fmt.Errorf("empty procedure code")
	}
	short := strings.TrimSpace(r.ShortDescription)
	if short == "" {
		return nil, fmt.Errorf("code %s: empty short description", code)
	}
	status := normalize.Status(r.Status)
	if status == "" {
		status = "active"
	}
	var long *string
	if r.LongDescription != nil {
		if s := strings.TrimSpace(*r.LongDescription); s != "" {
			long = &s
		}
	}
	return []any{code, short, long, status}, nil
}

func feeValues(r *model.FeeScheduleRow) ([]any, error) {
	payer := strings.TrimSpace(r.PayerID)
	if payer == "" {
		return nil, fmt.Errorf("empty payer id")
	}
	code := normalize.ProcedureCode(r.Code)
	if code == "" {
		return nil, fmt.Errorf("payer %s: empty procedure code", payer)
	}
	if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) || r.Amount < 0 {
		return nil, fmt.Errorf("payer %s code %s: invalid amount %v", payer, code, r.Amount)
	}
	return []any{payer, code, normalize.DollarsToCents(r.Amount)}, nil
}

func rvuValues(r *model.RVURow) ([]any, error) {
	code := normalize.ProcedureCode(r.Code)
	if code == "" {
		return nil, fmt.Errorf("empty procedure code")
	}
	for _, v := range []float64{r.WorkRVU, r.PracticeRVU, r.MalpracticeRVU} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, fmt.Errorf("code %s: invalid rvu %v", code, v)
		}
	}
	return []any{code, r.WorkRVU, r.PracticeRVU, r.MalpracticeRVU}, nil
}
