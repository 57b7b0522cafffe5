package metadb

import (
	"context"
	"database/sql"
	"fmt"

	featherflow "github.com/datastx/Feather-Flow-sub003"
)

// entityTables lists, in child-before-parent order, every table whose
// rows are scoped to a project and must be cleared before a
// population re-inserts them.
var entityTables = []string{
	"model_columns",
	"model_dependencies",
	"model_external_dependencies",
	"column_lineage",
	"source_columns",
	"source_tables",
	"source_tags",
	"sources",
	"function_args",
	"function_return_columns",
	"functions",
	"seed_column_types",
	"seeds",
	"singular_tests",
	"tests",
	"models",
}

// BeginPopulation inserts a running compilation_runs row for projectID,
// then deletes every entity row (models/sources/functions/seeds/tests
// and their children) belonging to that project so a fresh population
// can re-insert them. Entity deletion and the run-row insert happen in
// one transaction. Use BeginRun instead for a run that doesn't
// repopulate the project's entities (a macro or operation).
func BeginPopulation(ctx context.Context, db *sql.DB, projectID int64, runType, selector string) (runID int64, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin population: %w", err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO compilation_runs (project_id, run_type, node_selector, started_at, status)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP, ?) RETURNING run_id`,
		projectID, runType, selector, featherflow.RunStatusRunning).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert compilation run: %w", err)
	}

	if err = deleteProjectEntities(ctx, tx, projectID); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit begin_population: %w", err)
	}

	return runID, nil
}

// BeginRun inserts a running compilation_runs row for projectID without
// touching any entity table, for run types (macro, operation) that
// don't recompile the model graph.
func BeginRun(ctx context.Context, db *sql.DB, projectID int64, runType, selector string) (runID int64, err error) {
	err = db.QueryRowContext(ctx,
		`INSERT INTO compilation_runs (project_id, run_type, node_selector, started_at, status)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP, ?) RETURNING run_id`,
		projectID, runType, selector, featherflow.RunStatusRunning).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	return runID, nil
}

func deleteProjectEntities(ctx context.Context, tx *sql.Tx, projectID int64) error {
	for _, table := range []string{"model_columns", "model_dependencies", "model_external_dependencies"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			`DELETE FROM %s WHERE model_id IN (SELECT model_id FROM models WHERE project_id = ?)`, table),
			projectID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM column_lineage WHERE target_model_id IN (SELECT model_id FROM models WHERE project_id = ?)`,
		projectID); err != nil {
		return fmt.Errorf("failed to clear column_lineage: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM source_columns WHERE source_table_id IN (
			SELECT source_table_id FROM source_tables WHERE source_id IN (
				SELECT source_id FROM sources WHERE project_id = ?))`, projectID); err != nil {
		return fmt.Errorf("failed to clear source_columns: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM source_tables WHERE source_id IN (SELECT source_id FROM sources WHERE project_id = ?)`,
		projectID); err != nil {
		return fmt.Errorf("failed to clear source_tables: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM source_tags WHERE source_id IN (SELECT source_id FROM sources WHERE project_id = ?)`,
		projectID); err != nil {
		return fmt.Errorf("failed to clear source_tags: %w", err)
	}

	for _, stmt := range []struct {
		table string
		where string
	}{
		{"sources", "project_id = ?"},
		{"function_args", "function_id IN (SELECT function_id FROM functions WHERE project_id = ?)"},
		{"function_return_columns", "function_id IN (SELECT function_id FROM functions WHERE project_id = ?)"},
		{"functions", "project_id = ?"},
		{"seed_column_types", "seed_id IN (SELECT seed_id FROM seeds WHERE project_id = ?)"},
		{"seeds", "project_id = ?"},
		{"singular_tests", "test_id IN (SELECT test_id FROM tests WHERE project_id = ?)"},
		{"tests", "project_id = ?"},
		{"models", "project_id = ?"},
	} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s`, stmt.table, stmt.where), projectID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", stmt.table, err)
		}
	}

	return nil
}

// CompletePopulation updates the run's completed timestamp and
// terminal status.
func CompletePopulation(ctx context.Context, db *sql.DB, runID int64, status featherflow.RunStatus) error {
	_, err := db.ExecContext(ctx,
		`UPDATE compilation_runs SET completed_at = CURRENT_TIMESTAMP, status = ? WHERE run_id = ?`,
		status, runID)
	if err != nil {
		return fmt.Errorf("failed to complete population for run %d: %w", runID, err)
	}

	return nil
}

// ModelColumn is one column row to populate alongside a model.
type ModelColumn struct {
	Name                    string
	DeclaredType            string
	DeclaredNullable        bool
	InferredType            string
	NullabilityInferred     string
	Description             string
	Classification          string
	EffectiveClassification string
}

// ModelRecord is the data needed to populate one model's row plus its
// dependency edges and column rows.
type ModelRecord struct {
	Name                 string
	Path                 string
	RawSQL               string
	CompiledSQL          string
	CompiledPath         string
	SQLChecksum          string
	Materialization      string
	SchemaName           string
	Version              string
	BaseName             string
	IsDeprecated         bool
	DependsOnModelIDs    []int64
	ExternalDependencies []string
	Columns              []ModelColumn
}

// PopulateModel inserts one model's row, its dependency edges, its
// external-dependency rows, and its column rows, all within a single
// transaction, per §4.11's "transactional at the granularity of one
// model" requirement.
func PopulateModel(ctx context.Context, db *sql.DB, projectID int64, record ModelRecord) (modelID int64, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin model population: %w", err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO models (project_id, name, path, raw_sql, compiled_sql, compiled_path, sql_checksum,
			materialization, schema_name, version, base_name, is_deprecated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING model_id`,
		projectID, record.Name, record.Path, record.RawSQL, record.CompiledSQL, record.CompiledPath,
		record.SQLChecksum, record.Materialization, record.SchemaName, record.Version, record.BaseName,
		boolToInt(record.IsDeprecated)).Scan(&modelID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert model %s: %w", record.Name, err)
	}

	for _, dependsOnID := range record.DependsOnModelIDs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO model_dependencies (model_id, depends_on_model_id) VALUES (?, ?)`,
			modelID, dependsOnID); err != nil {
			return 0, fmt.Errorf("failed to insert dependency for %s: %w", record.Name, err)
		}
	}

	for _, table := range record.ExternalDependencies {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO model_external_dependencies (model_id, table_name) VALUES (?, ?)`,
			modelID, table); err != nil {
			return 0, fmt.Errorf("failed to insert external dependency for %s: %w", record.Name, err)
		}
	}

	for i, col := range record.Columns {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO model_columns (model_id, name, declared_type, declared_nullable, inferred_type,
				nullability_inferred, description, classification, effective_classification, ordinal)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			modelID, col.Name, col.DeclaredType, boolToInt(col.DeclaredNullable), col.InferredType,
			col.NullabilityInferred, col.Description, col.Classification, col.EffectiveClassification, i); err != nil {
			return 0, fmt.Errorf("failed to insert column %s for %s: %w", col.Name, record.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit model population for %s: %w", record.Name, err)
	}

	return modelID, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
