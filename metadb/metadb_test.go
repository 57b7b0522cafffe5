package metadb

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	featherflow "github.com/datastx/Feather-Flow-sub003"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()

	db, err := Open(ctx, filepath.Join(t.TempDir(), "meta.duckdb"))
	assert.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	return db
}

func TestMigrateCreatesTables(t *testing.T) {
	db := openTestDB(t)

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM information_schema.tables WHERE table_name = 'models'`).Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "meta.duckdb")

	db, err := Open(ctx, path)
	assert.NoError(t, err)
	db.Close()

	db2, err := Open(ctx, path)
	assert.NoError(t, err)
	defer db2.Close()

	var version int
	err = db2.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version)
	assert.NoError(t, err)
	assert.Equal(t, 2, version)
}

func insertProject(t *testing.T, db *sql.DB) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(`INSERT INTO projects (name, root_path) VALUES (?, ?) RETURNING project_id`, "featherflow_demo", "/repo").Scan(&id)
	assert.NoError(t, err)

	return id
}

func TestBeginAndCompletePopulation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	projectID := insertProject(t, db)

	runID, err := BeginPopulation(ctx, db, projectID, "run", "+fct_orders")
	assert.NoError(t, err)
	assert.True(t, runID > 0)

	var status string
	err = db.QueryRow(`SELECT status FROM compilation_runs WHERE run_id = ?`, runID).Scan(&status)
	assert.NoError(t, err)
	assert.Equal(t, string(featherflow.RunStatusRunning), status)

	assert.NoError(t, CompletePopulation(ctx, db, runID, featherflow.RunStatusSuccess))

	err = db.QueryRow(`SELECT status FROM compilation_runs WHERE run_id = ?`, runID).Scan(&status)
	assert.NoError(t, err)
	assert.Equal(t, string(featherflow.RunStatusSuccess), status)
}

func TestBeginPopulationClearsPriorEntities(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	projectID := insertProject(t, db)

	_, err := db.Exec(`INSERT INTO models (project_id, name, path) VALUES (?, ?, ?)`, projectID, "stg_orders", "models/stg_orders.sql")
	assert.NoError(t, err)

	_, err = BeginPopulation(ctx, db, projectID, "run", "")
	assert.NoError(t, err)

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM models WHERE project_id = ?`, projectID).Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestPopulateModelInsertsColumns(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	projectID := insertProject(t, db)

	modelID, err := PopulateModel(ctx, db, projectID, ModelRecord{
		Name:        "stg_orders",
		Path:        "models/stg_orders.sql",
		SQLChecksum: "abc123",
		Columns: []ModelColumn{
			{Name: "id", InferredType: "integer"},
			{Name: "amount", InferredType: "decimal"},
		},
	})
	assert.NoError(t, err)
	assert.True(t, modelID > 0)

	var columnCount int
	err = db.QueryRow(`SELECT COUNT(*) FROM model_columns WHERE model_id = ?`, modelID).Scan(&columnCount)
	assert.NoError(t, err)
	assert.Equal(t, 2, columnCount)
}

func TestDiscoverRulesParsesHeaders(t *testing.T) {
	dir := t.TempDir()

	content := "-- rule: no_null_ids\n-- severity: error\n-- description: ids must never be null\nSELECT model_name AS entity_name, 'null id found' AS message FROM schema_mismatches WHERE column_name = 'id'\n"
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "no_null_ids.sql"), []byte(content), 0o644))

	assert.NoError(t, os.WriteFile(filepath.Join(dir, "untitled.sql"), []byte("SELECT 1 AS message"), 0o644))

	rules, err := DiscoverRules(dir, "warning")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(rules))

	assert.Equal(t, "no_null_ids", rules[0].Name)
	assert.Equal(t, "error", rules[0].Severity)
	assert.Equal(t, "ids must never be null", rules[0].Description)

	assert.Equal(t, "untitled", rules[1].Name)
	assert.Equal(t, "warning", rules[1].Severity)
}

func TestDiscoverRulesMissingDirReturnsNil(t *testing.T) {
	rules, err := DiscoverRules(filepath.Join(t.TempDir(), "missing"), "warning")
	assert.NoError(t, err)
	assert.Equal(t, 0, len(rules))
}

func TestRunRuleProducesViolationPerRow(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	projectID := insertProject(t, db)
	runID, err := BeginPopulation(ctx, db, projectID, "run", "")
	assert.NoError(t, err)

	_, err = PopulateModel(ctx, db, projectID, ModelRecord{Name: "stg_orders", Path: "models/stg_orders.sql"})
	assert.NoError(t, err)

	_, err = db.Exec(`INSERT INTO schema_mismatches (run_id, model_id, column_name, mismatch_type) VALUES (?, 1, 'id', 'missing')`, runID)
	assert.NoError(t, err)

	rule := Rule{
		Name: "no_missing_ids",
		SQL: `SELECT m.name AS entity_name, 'column id is missing' AS message, sm.mismatch_type AS mismatch_type
			FROM schema_mismatches sm JOIN models m ON m.model_id = sm.model_id
			WHERE sm.column_name = 'id'`,
		Severity: "error",
	}

	violations, err := RunRule(ctx, db, rule)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(violations))
	assert.Equal(t, "stg_orders", violations[0].EntityName)
	assert.Equal(t, "column id is missing", violations[0].Message)
	assert.Contains(t, violations[0].ContextJSON, "mismatch_type")

	assert.NoError(t, InsertRuleViolation(ctx, db, runID, violations[0]))

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM rule_violations WHERE run_id = ?`, runID).Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunRuleSQLErrorPropagates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := RunRule(ctx, db, Rule{Name: "broken", SQL: "SELECT * FROM not_a_table"})
	assert.Error(t, err)
}
