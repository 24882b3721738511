package refload_test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	goparquet "github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimengine/internal/db"
	"github.com/gyeh/claimengine/internal/model"
	"github.com/gyeh/claimengine/internal/refdata"
	"github.com/gyeh/claimengine/internal/refdata/pgstore"
	"github.com/gyeh/claimengine/internal/refload"
)

const (
	testPort     = 15434
	testDB       = "loadtest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Fprintln(os.Stderr, "SKIP: refload integration tests need embedded postgres")
		os.Exit(0)
	}

	pg := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30 * time.Second),
	)
	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := func() int {
		ctx := context.Background()
		dsn := fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable", testUser, testPassword, testPort, testDB)
		pool, err := db.NewPool(ctx, dsn, 4)
		if err != nil {
			fmt.Fprintf(os.Stderr, "connect: %v\n", err)
			return 1
		}
		defer pool.Close()
		if _, err := db.ApplyMigrations(ctx, pool, zerolog.Nop()); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			return 1
		}
		testPool = pool
		return m.Run()
	}()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}
	os.Exit(code)
}

func writeParquet[T any](t *testing.T, name string, rows []T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := goparquet.WriteFile(path, rows); err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	return path
}

func kind(t *testing.T, name string) model.RefKind {
	t.Helper()
	k, ok := model.RefKindByName(name)
	if !ok {
		t.Fatalf("unknown kind %s", name)
	}
	return k
}

func countRows(t *testing.T, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := testPool.QueryRow(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestRun_FeeSchedule(t *testing.T) {
	ctx := context.Background()
	path := writeParquet(t, "fees.parquet", []model.FeeScheduleRow{
		{PayerID: "CIGNA", Code: "99213", Amount: 80},
		{PayerID: "CIGNA", Code: "99214", Amount: 120.25},
		{PayerID: "", Code: "99215", Amount: 150},
		{PayerID: "CIGNA", Code: "99213", Amount: 85.10},
	})

	summary, err := refload.Run(ctx, testPool, zerolog.Nop(), refload.Options{Kind: kind(t, "fee_schedule"), FilePath: path})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	t.Run("summary_metrics", func(t *testing.T) {
		if summary.RowsRead != 4 || summary.RowsStaged != 3 || summary.RowsRejected != 1 {
			t.Errorf("unexpected summary %+v", summary)
		}
		if summary.RowsUpserted != 2 {
			t.Errorf("RowsUpserted: got %d, want 2", summary.RowsUpserted)
		}
	})

	t.Run("last_row_wins", func(t *testing.T) {
		cents, err := pgstore.New(testPool).ContractedRate(ctx, "CIGNA", "99213")
		if err != nil || cents != 8510 {
			t.Errorf("ContractedRate: %d, %v", cents, err)
		}
	})

	t.Run("staging_cleaned", func(t *testing.T) {
		if n := countRows(t, "SELECT count(*) FROM ingest.stage_fee_schedules"); n != 0 {
			t.Errorf("staging rows left: %d", n)
		}
	})

	t.Run("load_file_marked_loaded", func(t *testing.T) {
		var status string
		var rows int64
		err := testPool.QueryRow(ctx,
			"SELECT status, row_count FROM ingest.load_files WHERE load_file_id = $1",
			summary.LoadFileID).Scan(&status, &rows)
		if err != nil {
			t.Fatalf("query load file: %v", err)
		}
		if status != "loaded" || rows != 3 {
			t.Errorf("load file: status=%s rows=%d", status, rows)
		}
	})

	t.Run("reload_skipped", func(t *testing.T) {
		again, err := refload.Run(ctx, testPool, zerolog.Nop(), refload.Options{Kind: kind(t, "fee_schedule"), FilePath: path})
		if err != nil {
			t.Fatalf("second Run: %v", err)
		}
		if !again.AlreadyLoaded || again.LoadFileID != summary.LoadFileID {
			t.Errorf("expected skip, got %+v", again)
		}
	})

	t.Run("force_reload", func(t *testing.T) {
		forced, err := refload.Run(ctx, testPool, zerolog.Nop(), refload.Options{Kind: kind(t, "fee_schedule"), FilePath: path, Force: true})
		if err != nil {
			t.Fatalf("forced Run: %v", err)
		}
		if forced.AlreadyLoaded || forced.RowsUpserted != 2 {
			t.Errorf("expected reload, got %+v", forced)
		}
	})
}

func TestRun_ProceduresAndRVUs(t *testing.T) {
	ctx := context.Background()
	long := "Arthroscopy, knee, surgical; with meniscectomy"
	procs := writeParquet(t, "procs.parquet", []model.ProcedureCodeRow{
		{Code: "29881", ShortDescription: "Knee arthroscopy with meniscectomy", LongDescription: &long, Status: "ACTIVE"},
		{Code: "99499", ShortDescription: "Unlisted evaluation and management service", Status: "active"},
	})
	rvus := writeParquet(t, "rvus.parquet", []model.RVURow{
		{Code: "20610", WorkRVU: 0.79, PracticeRVU: 0.9, MalpracticeRVU: 0.1},
	})

	if _, err := refload.Run(ctx, testPool, zerolog.Nop(), refload.Options{Kind: kind(t, "procedure_codes"), FilePath: procs}); err != nil {
		t.Fatalf("Run procedures: %v", err)
	}
	if _, err := refload.Run(ctx, testPool, zerolog.Nop(), refload.Options{Kind: kind(t, "rvu"), FilePath: rvus, KeepStaging: true}); err != nil {
		t.Fatalf("Run rvus: %v", err)
	}

	store := pgstore.New(testPool)
	p, err := store.ProcedureByCode(ctx, "29881")
	if err != nil || !p.Active() || p.LongDescription != long {
		t.Errorf("ProcedureByCode: %+v, %v", p, err)
	}
	matches, err := store.SearchProcedures(ctx, "unlisted evaluation")
	if err != nil || len(matches) != 1 || matches[0].Code != "99499" {
		t.Errorf("SearchProcedures: %+v, %v", matches, err)
	}
	r, err := store.RVUs(ctx, "20610")
	if err != nil || r.Work != 0.79 {
		t.Errorf("RVUs: %+v, %v", r, err)
	}
	if n := countRows(t, "SELECT count(*) FROM ingest.stage_rvus"); n != 1 {
		t.Errorf("expected staging kept, got %d rows", n)
	}
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	path := writeParquet(t, "dry.parquet", []model.RVURow{{Code: "36415", WorkRVU: 0.17}})

	summary, err := refload.Run(ctx, testPool, zerolog.Nop(), refload.Options{Kind: kind(t, "rvu"), FilePath: path, DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.RowsRead != 1 || summary.LoadFileID != 0 || summary.FileSHA256 == "" {
		t.Errorf("unexpected summary %+v", summary)
	}
	if n := countRows(t, "SELECT count(*) FROM ingest.load_files WHERE source_file_sha256 = $1", summary.FileSHA256); n != 0 {
		t.Errorf("dry run registered load file")
	}
	if _, err := pgstore.New(testPool).RVUs(ctx, "36415"); !errors.Is(err, refdata.ErrNotFound) {
		t.Errorf("dry run wrote rvus: %v", err)
	}
}

func TestRun_SchemaMismatchFailsPreflight(t *testing.T) {
	path := writeParquet(t, "wrong.parquet", []model.RVURow{{Code: "99213", WorkRVU: 1}})
	_, err := refload.Run(context.Background(), testPool, zerolog.Nop(), refload.Options{Kind: kind(t, "fee_schedule"), FilePath: path})
	var pe *refload.PipelineError
	if !errors.As(err, &pe) || pe.Phase != "preflight" {
		t.Fatalf("expected preflight PipelineError, got %v", err)
	}
}
