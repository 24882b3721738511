package engine

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gyeh/claimengine/internal/model"
	"github.com/gyeh/claimengine/internal/normalize"
)

// EncounterFingerprint hashes the billing-relevant fields of an encounter so
// repeated submissions of the same encounter can be correlated in logs and
// audit events.
func EncounterFingerprint(in *model.EncounterInput) string {
	dx := normalizeDiagnoses(in.ICD10Codes())
	sort.Strings(dx)

	procs := make([]string, 0, len(in.Procedures))
	for _, p := range in.Procedures {
		procs = append(procs, normalize.ProcedureCode(p.Code)+":"+normalize.Name(p.Description))
	}
	sort.Strings(procs)

	circ := make([]string, 0, len(in.Circumstances))
	for _, c := range in.Circumstances {
		circ = append(circ, strings.ToLower(strings.TrimSpace(c)))
	}
	sort.Strings(circ)

	minutes := ""
	if in.TimeSpent != nil {
		minutes = strconv.Itoa(*in.TimeSpent)
	}

	return normalize.Fingerprint(map[string]string{
		"encounter_id":   in.EncounterID,
		"patient_id":     in.PatientID,
		"provider_id":    in.ProviderID,
		"payer_id":       in.PayerID,
		"service_date":   in.ServiceDate.String(),
		"encounter_type": string(in.EncounterType),
		"pos":            normalize.PlaceOfService(in.PlaceOfService),
		"diagnoses":      strings.Join(dx, ","),
		"procedures":     strings.Join(procs, ","),
		"circumstances":  strings.Join(circ, ","),
		"time_spent":     minutes,
	})
}
