package model

// ProcedureCodeRow mirrors the Parquet schema of a procedure catalog file.
type ProcedureCodeRow struct {
	Code             string  `parquet:"code"`
	ShortDescription string  `parquet:"short_description"`
	LongDescription  *string `parquet:"long_description,optional"`
	Status           string  `parquet:"status"`
}

// FeeScheduleRow mirrors the Parquet schema of a payer fee schedule file.
// Amount is in dollars as published; it is converted to cents on load.
type FeeScheduleRow struct {
	PayerID string  `parquet:"payer_id"`
	Code    string  `parquet:"code"`
	Amount  float64 `parquet:"amount"`
}

// RVURow mirrors the Parquet schema of a relative value unit file.
type RVURow struct {
	Code           string  `parquet:"code"`
	WorkRVU        float64 `parquet:"work_rvu"`
	PracticeRVU    float64 `parquet:"practice_rvu"`
	MalpracticeRVU float64 `parquet:"malpractice_rvu"`
}
