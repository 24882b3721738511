// Package pgstore serves reference data from the Postgres ref schema.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gyeh/claimengine/internal/normalize"
	"github.com/gyeh/claimengine/internal/refdata"
	embedsql "github.com/gyeh/claimengine/internal/sql"
)

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Store struct {
	db DB
}

var _ refdata.Source = (*Store)(nil)

func New(db DB) *Store {
	return &Store{db: db}
}

// notFound maps pgx.ErrNoRows to refdata.ErrNotFound and wraps anything else.
func notFound(what string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return refdata.ErrNotFound
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (s *Store) PatientCoverage(ctx context.Context, patientID string) (*refdata.PatientCoverage, error) {
	var p refdata.PatientCoverage
	err := s.db.QueryRow(ctx,
		"SELECT patient_id, payer_id, insurance_status FROM ref.patients WHERE patient_id = $1",
		patientID,
	).Scan(&p.PatientID, &p.PayerID, &p.InsuranceStatus)
	if err != nil {
		return nil, notFound("lookup patient", err)
	}
	return &p, nil
}

func (s *Store) ProcedureByCode(ctx context.Context, code string) (*refdata.ProcedureCode, error) {
	var p refdata.ProcedureCode
	err := s.db.QueryRow(ctx,
		"SELECT code, short_description, long_description, status FROM ref.procedure_codes WHERE code = $1",
		normalize.ProcedureCode(code),
	).Scan(&p.Code, &p.ShortDescription, &p.LongDescription, &p.Status)
	if err != nil {
		return nil, notFound("lookup procedure code", err)
	}
	return &p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *Store) SearchProcedures(ctx context.Context, description string) ([]refdata.ProcedureCode, error) {
	q := normalize.Name(description)
	if q == "" {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, embedsql.SearchProcedures, likeEscaper.Replace(q))
	if err != nil {
		return nil, fmt.Errorf("search procedures: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (refdata.ProcedureCode, error) {
		var p refdata.ProcedureCode
		err := row.Scan(&p.Code, &p.ShortDescription, &p.LongDescription, &p.Status)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan procedures: %w", err)
	}
	return out, nil
}

func (s *Store) PriorEncounters(ctx context.Context, patientID string, from, to time.Time) ([]string, error) {
	rows, err := s.db.Query(ctx, embedsql.PriorEncounters, patientID, from, to)
	if err != nil {
		return nil, fmt.Errorf("prior encounters: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan encounters: %w", err)
	}
	return ids, nil
}

func (s *Store) ContractedRate(ctx context.Context, payerID, code string) (int64, error) {
	var cents int64
	err := s.db.QueryRow(ctx,
		"SELECT amount_cents FROM ref.fee_schedules WHERE payer_id = $1 AND code = $2",
		payerID, normalize.ProcedureCode(code),
	).Scan(&cents)
	if err != nil {
		return 0, notFound("lookup contracted rate", err)
	}
	return cents, nil
}

func (s *Store) RVUs(ctx context.Context, code string) (*refdata.RVU, error) {
	var r refdata.RVU
	err := s.db.QueryRow(ctx,
		"SELECT code, work_rvu, practice_rvu, malpractice_rvu FROM ref.rvus WHERE code = $1",
		normalize.ProcedureCode(code),
	).Scan(&r.Code, &r.Work, &r.Practice, &r.Malpractice)
	if err != nil {
		return nil, notFound("lookup rvu", err)
	}
	return &r, nil
}

func (s *Store) Multiplier(ctx context.Context, payerID string) (float64, error) {
	var m float64
	err := s.db.QueryRow(ctx,
		"SELECT multiplier FROM ref.payer_multipliers WHERE payer_id = $1",
		payerID,
	).Scan(&m)
	if err != nil {
		return 0, notFound("lookup payer multiplier", err)
	}
	return m, nil
}

func (s *Store) ActiveRules(ctx context.Context, procedureCode string) ([]refdata.CodingRule, error) {
	rows, err := s.db.Query(ctx, embedsql.ActiveRules, normalize.ProcedureCode(procedureCode))
	if err != nil {
		return nil, fmt.Errorf("active rules: %w", err)
	}
	rules, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (refdata.CodingRule, error) {
		var r refdata.CodingRule
		err := row.Scan(&r.ProcedureCode, &r.RequiredPatterns, &r.ExcludedPatterns, &r.Source, &r.ReferenceURL, &r.Active)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan rules: %w", err)
	}
	return rules, nil
}

func (s *Store) AssessSDOH(ctx context.Context, patientID string) (*refdata.SDOHAssessment, error) {
	a := refdata.SDOHAssessment{PatientID: patientID}
	err := s.db.QueryRow(ctx,
		"SELECT ccm_eligible FROM ref.sdoh_assessments WHERE patient_id = $1",
		patientID,
	).Scan(&a.CCMEligible)
	if err != nil {
		return nil, notFound("lookup sdoh assessment", err)
	}

	rows, err := s.db.Query(ctx, embedsql.SDOHDomains, patientID)
	if err != nil {
		return nil, fmt.Errorf("sdoh domains: %w", err)
	}
	a.Domains, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (refdata.DomainAssessment, error) {
		var d refdata.DomainAssessment
		var domain string
		err := row.Scan(&domain, &d.Severity, &d.ZCode)
		d.Domain = refdata.SDOHDomain(domain)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan sdoh domains: %w", err)
	}
	return &a, nil
}
