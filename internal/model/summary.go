package model

import "time"

// LoadSummary captures metrics from a single reference file load.
type LoadSummary struct {
	Kind             string
	FilePath         string
	FileSHA256       string
	LoadFileID       int64
	IngestBatchID    string
	AlreadyLoaded    bool
	RowsRead         int64
	RowsStaged       int64
	RowsRejected     int64
	RowsUpserted     int64
	DurationStage    time.Duration
	DurationUpsert   time.Duration
	DurationFinalize time.Duration
	DurationTotal    time.Duration
}

// BatchSummary captures outcome counts from a batch evaluation run.
type BatchSummary struct {
	Encounters   int
	Succeeded    int
	ManualReview int
	Failed       int
	Unreadable   int
	Skipped      int
	Duration     time.Duration
}
