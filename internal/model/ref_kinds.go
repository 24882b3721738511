package model

// RefKind describes one kind of reference file that can be loaded into the
// Postgres reference store.
type RefKind struct {
	Name           string   // e.g. "rvu"
	Table          string   // serving table in the ref schema, e.g. "rvus"
	ParquetColumns []string // columns the Parquet file must carry
	StageColumns   []string // data columns of the staging table, in COPY order
}

// AllRefKinds lists the loadable reference kinds in canonical order.
var AllRefKinds = []RefKind{
	{
		Name:           "procedure_codes",
		Table:          "procedure_codes",
		ParquetColumns: []string{"code", "short_description", "status"},
		StageColumns:   []string{"code", "short_description", "long_description", "status"},
	},
	{
		Name:           "fee_schedule",
		Table:          "fee_schedules",
		ParquetColumns: []string{"payer_id", "code", "amount"},
		StageColumns:   []string{"payer_id", "code", "amount_cents"},
	},
	{
		Name:           "rvu",
		Table:          "rvus",
		ParquetColumns: []string{"code", "work_rvu", "practice_rvu", "malpractice_rvu"},
		StageColumns:   []string{"code", "work_rvu", "practice_rvu", "malpractice_rvu"},
	},
}

// RefKindNames returns just the names of all reference kinds.
func RefKindNames() []string {
	names := make([]string, len(AllRefKinds))
	for i, k := range AllRefKinds {
		names[i] = k.Name
	}
	return names
}

// RefKindByName returns the RefKind for the given name, or ok=false.
func RefKindByName(name string) (RefKind, bool) {
	for _, k := range AllRefKinds {
		if k.Name == name {
			return k, true
		}
	}
	return RefKind{}, false
}

// StagingColumns returns the full COPY column list for the kind's staging table.
func (k RefKind) StagingColumns() []string {
	cols := []string{"ingest_batch_id", "source_row_number"}
	return append(cols, k.StageColumns...)
}
