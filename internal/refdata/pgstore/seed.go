package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimengine/internal/normalize"
	"github.com/gyeh/claimengine/internal/refdata/memstore"
	embedsql "github.com/gyeh/claimengine/internal/sql"
)

// SeedCounts reports how many records of each kind Seed wrote.
type SeedCounts struct {
	Patients    int
	Encounters  int
	Procedures  int
	Fees        int
	RVUs        int
	Multipliers int
	Rules       int
	SDOH        int
}

// Seed upserts a YAML snapshot into the ref schema in one transaction.
// Coding rules for every procedure code present in the snapshot are
// replaced rather than merged.
func (s *Store) Seed(ctx context.Context, log zerolog.Logger, snap memstore.Snapshot) (SeedCounts, error) {
	var c SeedCounts
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		for _, p := range snap.Patients {
			if _, err := tx.Exec(ctx, embedsql.UpsertPatient, p.PatientID, p.PayerID, p.InsuranceStatus); err != nil {
				return fmt.Errorf("seed patient %s: %w", p.PatientID, err)
			}
			c.Patients++
		}
		for _, e := range snap.Encounters {
			if _, err := tx.Exec(ctx, embedsql.UpsertEncounter, e.ID, e.PatientID, e.Date.Time); err != nil {
				return fmt.Errorf("seed encounter %s: %w", e.ID, err)
			}
			c.Encounters++
		}
		for i, p := range snap.Procedures {
			_, err := tx.Exec(ctx, `
				INSERT INTO ref.procedure_codes (code, short_description, long_description, status, catalog_position)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (code) DO UPDATE
				SET short_description = EXCLUDED.short_description,
				    long_description  = EXCLUDED.long_description,
				    status            = EXCLUDED.status,
				    catalog_position  = EXCLUDED.catalog_position,
				    updated_at        = now()`,
				normalize.ProcedureCode(p.Code), p.ShortDescription, p.LongDescription, normalize.Status(p.Status), i+1)
			if err != nil {
				return fmt.Errorf("seed procedure %s: %w", p.Code, err)
			}
			c.Procedures++
		}
		for _, f := range snap.FeeSchedules {
			_, err := tx.Exec(ctx, `
				INSERT INTO ref.fee_schedules (payer_id, code, amount_cents)
				VALUES ($1, $2, $3)
				ON CONFLICT (payer_id, code) DO UPDATE
				SET amount_cents = EXCLUDED.amount_cents, updated_at = now()`,
				f.PayerID, normalize.ProcedureCode(f.Code), normalize.DollarsToCents(f.Amount))
			if err != nil {
				return fmt.Errorf("seed fee %s/%s: %w", f.PayerID, f.Code, err)
			}
			c.Fees++
		}
		for _, r := range snap.RVUs {
			_, err := tx.Exec(ctx, `
				INSERT INTO ref.rvus (code, work_rvu, practice_rvu, malpractice_rvu)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (code) DO UPDATE
				SET work_rvu = EXCLUDED.work_rvu,
				    practice_rvu = EXCLUDED.practice_rvu,
				    malpractice_rvu = EXCLUDED.malpractice_rvu,
				    updated_at = now()`,
				normalize.ProcedureCode(r.Code), r.Work, r.Practice, r.Malpractice)
			if err != nil {
				return fmt.Errorf("seed rvu %s: %w", r.Code, err)
			}
			c.RVUs++
		}
		for _, m := range snap.PayerMultipliers {
			if _, err := tx.Exec(ctx, embedsql.UpsertPayerMultiplier, m.PayerID, m.Multiplier); err != nil {
				return fmt.Errorf("seed multiplier %s: %w", m.PayerID, err)
			}
			c.Multipliers++
		}

		replaced := make(map[string]bool)
		for _, r := range snap.CodingRules {
			code := normalize.ProcedureCode(r.ProcedureCode)
			if !replaced[code] {
				if _, err := tx.Exec(ctx, "DELETE FROM ref.coding_rules WHERE procedure_code = $1", code); err != nil {
					return fmt.Errorf("clear rules for %s: %w", code, err)
				}
				replaced[code] = true
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO ref.coding_rules (procedure_code, required_patterns, excluded_patterns, source, reference_url, active)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				code, nonNil(r.RequiredPatterns), nonNil(r.ExcludedPatterns), r.Source, r.ReferenceURL, r.Active)
			if err != nil {
				return fmt.Errorf("seed rule for %s: %w", code, err)
			}
			c.Rules++
		}

		for _, a := range snap.SDOH {
			if _, err := tx.Exec(ctx, embedsql.UpsertSDOHAssessment, a.PatientID, a.CCMEligible); err != nil {
				return fmt.Errorf("seed sdoh %s: %w", a.PatientID, err)
			}
			if _, err := tx.Exec(ctx, "DELETE FROM ref.sdoh_domains WHERE patient_id = $1", a.PatientID); err != nil {
				return fmt.Errorf("clear sdoh domains %s: %w", a.PatientID, err)
			}
			for _, d := range a.Domains {
				_, err := tx.Exec(ctx,
					"INSERT INTO ref.sdoh_domains (patient_id, domain, severity, z_code) VALUES ($1, $2, $3, $4)",
					a.PatientID, string(d.Domain), d.Severity, d.ZCode)
				if err != nil {
					return fmt.Errorf("seed sdoh domain %s/%s: %w", a.PatientID, d.Domain, err)
				}
			}
			c.SDOH++
		}
		return nil
	})
	if err != nil {
		return SeedCounts{}, err
	}

	log.Info().
		Int("patients", c.Patients).
		Int("encounters", c.Encounters).
		Int("procedures", c.Procedures).
		Int("fees", c.Fees).
		Int("rvus", c.RVUs).
		Int("multipliers", c.Multipliers).
		Int("rules", c.Rules).
		Int("sdoh", c.SDOH).
		Msg("reference snapshot seeded")
	return c, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
