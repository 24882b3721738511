// mkfixture writes reference Parquet files from a YAML snapshot so the
// loader can be exercised without real CMS files.
// Usage: go run ./cmd/mkfixture --snapshot testdata/reference.yaml --out testdata
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	goparquet "github.com/parquet-go/parquet-go"

	"github.com/gyeh/claimengine/internal/model"
	"github.com/gyeh/claimengine/internal/parquetread"
	"github.com/gyeh/claimengine/internal/refdata/memstore"
)

func main() {
	snapshot := flag.String("snapshot", "testdata/reference.yaml", "input YAML snapshot")
	out := flag.String("out", "testdata", "output directory")
	checkOnly := flag.Bool("check", false, "only read back existing files and print stats")
	flag.Parse()

	files := map[string]string{
		"procedure_codes": filepath.Join(*out, "procedure_codes.parquet"),
		"fee_schedule":    filepath.Join(*out, "fee_schedule.parquet"),
		"rvu":             filepath.Join(*out, "rvu.parquet"),
	}

	if *checkOnly {
		for _, kind := range model.AllRefKinds {
			path := files[kind.Name]
			schema, rows, err := parquetread.Inspect(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "inspect %s: %v\n", path, err)
				os.Exit(1)
			}
			status := "OK"
			if err := parquetread.ValidateSchema(schema, kind); err != nil {
				status = err.Error()
			}
			fmt.Printf("%-16s %6d rows  %s\n", kind.Name, rows, status)
		}
		return
	}

	snap, err := memstore.ReadSnapshot(*snapshot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read snapshot: %v\n", err)
		os.Exit(1)
	}

	procs := make([]model.ProcedureCodeRow, 0, len(snap.Procedures))
	for _, p := range snap.Procedures {
		row := model.ProcedureCodeRow{Code: p.Code, ShortDescription: p.ShortDescription, Status: p.Status}
		if p.LongDescription != "" {
			long := p.LongDescription
			row.LongDescription = &long
		}
		procs = append(procs, row)
	}
	fees := make([]model.FeeScheduleRow, 0, len(snap.FeeSchedules))
	for _, f := range snap.FeeSchedules {
		fees = append(fees, model.FeeScheduleRow{PayerID: f.PayerID, Code: f.Code, Amount: f.Amount})
	}
	rvus := make([]model.RVURow, 0, len(snap.RVUs))
	for _, r := range snap.RVUs {
		rvus = append(rvus, model.RVURow{Code: r.Code, WorkRVU: r.Work, PracticeRVU: r.Practice, MalpracticeRVU: r.Malpractice})
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
		os.Exit(1)
	}
	write(files["procedure_codes"], procs)
	write(files["fee_schedule"], fees)
	write(files["rvu"], rvus)
}

func write[T any](path string, rows []T) {
	outFile, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}
	defer outFile.Close()

	if err := writeRows(outFile, rows); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d rows to %s\n", len(rows), path)
}

func writeRows[T any](w io.Writer, rows []T) error {
	writer := goparquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		return err
	}
	return writer.Close()
}
