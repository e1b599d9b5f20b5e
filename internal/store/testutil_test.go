//go:build integration

package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	_ "github.com/lib/pq"
)

const testDatabaseURLEnv = "PICKENGINE_TEST_DATABASE_URL"

var (
	sharedDB *sql.DB
	dbOnce   sync.Once
	dbErr    error
)

// testDB returns a shared *sql.DB pointed at a disposable Postgres instance,
// with the schema applied once per test binary run. Set
// PICKENGINE_TEST_DATABASE_URL to point at a real database; tests skip if it
// is unset, mirroring the teacher's own reliance on a locally running
// Postgres for its integration suite.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv(testDatabaseURLEnv)
	if dsn == "" {
		t.Skipf("%s not set; skipping integration test", testDatabaseURLEnv)
	}

	dbOnce.Do(func() {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			dbErr = fmt.Errorf("open test database: %w", err)
			return
		}
		if err := db.Ping(); err != nil {
			dbErr = fmt.Errorf("ping test database: %w", err)
			return
		}
		schemaPath := filepath.Join(projectRoot(), "db", "schema.sql")
		schema, err := os.ReadFile(schemaPath)
		if err != nil {
			dbErr = fmt.Errorf("read schema: %w", err)
			return
		}
		if _, err := db.Exec(string(schema)); err != nil {
			dbErr = fmt.Errorf("apply schema: %w", err)
			return
		}
		sharedDB = db
	})
	if dbErr != nil {
		t.Fatalf("test database setup: %v", dbErr)
	}
	return sharedDB
}

// truncateAll clears every table between tests so each test starts clean
// without tearing down the shared connection pool.
func truncateAll(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`TRUNCATE TABLE
		pipeline_runs, settlements, closing_lines, picks, model_artifacts,
		feature_snapshots, market_consensus, odds_snapshots, events_normalized,
		events_raw, team_aliases, teams, leagues RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func projectRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}
