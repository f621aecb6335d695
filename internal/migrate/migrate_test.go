package migrate

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return db
}

func TestRun_appliesEmbeddedSchema(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	applied, err := Run(ctx, db)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(applied) == 0 || applied[0].Version != "0001" {
		t.Fatalf("applied = %v; want 0001 first", applied)
	}

	for _, table := range []string{"datasets", "observations", tableName} {
		var n int
		err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
		if err != nil {
			t.Fatalf("lookup %s: %v", table, err)
		}
		if n != 1 {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestRun_idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := Run(ctx, db); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	applied, err := Run(ctx, db)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("second Run applied %v; want none", applied)
	}
}

func TestRun_ordersByVersionAndSkipsOtherFiles(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"sql/0002_second.sql": {Data: []byte(`CREATE TABLE b (id INTEGER);`)},
		"sql/0001_first.sql":  {Data: []byte(`CREATE TABLE a (id INTEGER);`)},
		"sql/README.md":       {Data: []byte(`not a migration`)},
		"sql/1_bad.sql":       {Data: []byte(`SELECT nope`)},
	}

	applied, err := run(context.Background(), db, fsys)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(applied) != 2 {
		t.Fatalf("applied %d migrations; want 2", len(applied))
	}
	if applied[0].String() != "0001_first.sql" || applied[1].String() != "0002_second.sql" {
		t.Errorf("applied = %v; want [0001_first.sql 0002_second.sql]", applied)
	}
}

func TestRun_failedMigrationIsNotRecorded(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fsys := fstest.MapFS{
		"sql/0001_ok.sql":     {Data: []byte(`CREATE TABLE a (id INTEGER);`)},
		"sql/0002_broken.sql": {Data: []byte(`CREATE TABLE (`)},
	}

	applied, err := run(ctx, db, fsys)
	if err == nil {
		t.Fatal("run() = nil; want error")
	}
	if len(applied) != 1 {
		t.Errorf("applied = %v; want only 0001", applied)
	}

	var versions []string
	if err := db.SelectContext(ctx, &versions, `SELECT version FROM `+tableName+` ORDER BY version`); err != nil {
		t.Fatalf("select versions: %v", err)
	}
	if len(versions) != 1 || versions[0] != "0001" {
		t.Errorf("recorded versions = %v; want [0001]", versions)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		in          string
		wantVersion string
		wantName    string
		wantOK      bool
	}{
		{in: "0001_schema.sql", wantVersion: "0001", wantName: "schema", wantOK: true},
		{in: "0042_add_index.sql", wantVersion: "0042", wantName: "add_index", wantOK: true},
		{in: "001_short.sql"},
		{in: "0001_schema.txt"},
		{in: "schema.sql"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.in)
			if ok != tt.wantOK || version != tt.wantVersion || name != tt.wantName {
				t.Errorf("parseMigrationFilename(%q) = (%q, %q, %v); want (%q, %q, %v)",
					tt.in, version, name, ok, tt.wantVersion, tt.wantName, tt.wantOK)
			}
		})
	}
}
