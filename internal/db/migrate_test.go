package db

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

type recordingExecer struct {
	stmts  []string
	failOn string
}

func (r *recordingExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if r.failOn != "" && strings.Contains(sql, r.failOn) {
		return pgconn.CommandTag{}, errors.New("syntax error")
	}
	r.stmts = append(r.stmts, sql)
	return pgconn.CommandTag{}, nil
}

func TestApplyMigrationsFS_Order(t *testing.T) {
	fsys := fstest.MapFS{
		"m/002_tables.sql":  {Data: []byte("CREATE TABLE b")},
		"m/001_schemas.sql": {Data: []byte("CREATE SCHEMA a")},
		"m/README.md":       {Data: []byte("not sql")},
	}
	ex := &recordingExecer{}
	applied, err := ApplyMigrationsFS(context.Background(), ex, zerolog.Nop(), fsys, "m")
	if err != nil {
		t.Fatalf("ApplyMigrationsFS: %v", err)
	}
	if !reflect.DeepEqual(applied, []string{"001_schemas.sql", "002_tables.sql"}) {
		t.Errorf("applied = %v", applied)
	}
	if ex.stmts[0] != "CREATE SCHEMA a" {
		t.Errorf("first statement = %q", ex.stmts[0])
	}
}

func TestApplyMigrationsFS_StopsOnError(t *testing.T) {
	fsys := fstest.MapFS{
		"m/001_ok.sql":  {Data: []byte("CREATE SCHEMA a")},
		"m/002_bad.sql": {Data: []byte("CREATE BROKEN")},
		"m/003_ok.sql":  {Data: []byte("CREATE SCHEMA c")},
	}
	ex := &recordingExecer{failOn: "BROKEN"}
	applied, err := ApplyMigrationsFS(context.Background(), ex, zerolog.Nop(), fsys, "m")
	if err == nil || !strings.Contains(err.Error(), "002_bad.sql") {
		t.Fatalf("expected error naming the migration, got %v", err)
	}
	if len(applied) != 1 {
		t.Errorf("expected one applied migration before failure, got %v", applied)
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	ex := &recordingExecer{}
	applied, err := ApplyMigrations(context.Background(), ex, zerolog.Nop())
	if err != nil {
		t.Fatalf("ApplyMigrations: %v", err)
	}
	if len(applied) < 4 || applied[0] != "001_schemas.sql" {
		t.Errorf("unexpected embedded migrations: %v", applied)
	}
}
