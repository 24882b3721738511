package sql

import (
	"embed"
)

// Migrations holds the DDL applied by db.ApplyMigrations in filename order.
//
//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/register_load_file.sql
var RegisterLoadFile string

//go:embed queries/lookup_load_file.sql
var LookupLoadFile string

//go:embed queries/update_load_status.sql
var UpdateLoadStatus string

//go:embed queries/upsert_procedure_codes.sql
var UpsertProcedureCodes string

//go:embed queries/upsert_fee_schedules.sql
var UpsertFeeSchedules string

//go:embed queries/upsert_rvus.sql
var UpsertRVUs string

//go:embed queries/search_procedures.sql
var SearchProcedures string

//go:embed queries/prior_encounters.sql
var PriorEncounters string

//go:embed queries/active_rules.sql
var ActiveRules string

//go:embed queries/sdoh_domains.sql
var SDOHDomains string

//go:embed queries/upsert_patient.sql
var UpsertPatient string

//go:embed queries/upsert_encounter.sql
var UpsertEncounter string

//go:embed queries/upsert_payer_multiplier.sql
var UpsertPayerMultiplier string

//go:embed queries/upsert_sdoh_assessment.sql
var UpsertSDOHAssessment string

// UpsertByKind maps a reference kind name to its staging-to-serving upsert.
// Each query takes ($1 ingest_batch_id, $2 load_file_id).
var UpsertByKind = map[string]string{
	"procedure_codes": UpsertProcedureCodes,
	"fee_schedule":    UpsertFeeSchedules,
	"rvu":             UpsertRVUs,
}
