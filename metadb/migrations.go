// Package metadb stores and populates the embedded meta database (§4.11):
// one row per project/model/source/seed/test/function, per-run state and
// diagnostics, and the rules-engine violation log. The database driver is
// marcboeker/go-duckdb, the embedded analytical engine named by §4.11.
package metadb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
)

// migration is one numbered, idempotent DDL batch.
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial schema",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER NOT NULL,
				applied_at TEXT NOT NULL
			)`,
			`CREATE SEQUENCE IF NOT EXISTS seq_projects START 1`,
			`CREATE TABLE IF NOT EXISTS projects (
				project_id INTEGER PRIMARY KEY DEFAULT nextval('seq_projects'),
				name TEXT NOT NULL,
				version TEXT,
				root_path TEXT NOT NULL,
				schema_name TEXT,
				materialization TEXT,
				dialect TEXT,
				db_path TEXT,
				db_name TEXT,
				target_path TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS project_hooks (
				project_id INTEGER NOT NULL REFERENCES projects(project_id),
				kind TEXT NOT NULL,
				ordinal INTEGER NOT NULL,
				statement TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS project_vars (
				project_id INTEGER NOT NULL REFERENCES projects(project_id),
				name TEXT NOT NULL,
				value_json TEXT
			)`,
			`CREATE SEQUENCE IF NOT EXISTS seq_models START 1`,
			`CREATE TABLE IF NOT EXISTS models (
				model_id INTEGER PRIMARY KEY DEFAULT nextval('seq_models'),
				project_id INTEGER NOT NULL REFERENCES projects(project_id),
				name TEXT NOT NULL,
				path TEXT NOT NULL,
				raw_sql TEXT,
				compiled_sql TEXT,
				compiled_path TEXT,
				sql_checksum TEXT,
				materialization TEXT,
				schema_name TEXT,
				version TEXT,
				base_name TEXT,
				is_deprecated INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE TABLE IF NOT EXISTS model_columns (
				model_id INTEGER NOT NULL REFERENCES models(model_id),
				name TEXT NOT NULL,
				declared_type TEXT,
				declared_nullable INTEGER,
				inferred_type TEXT,
				nullability_inferred TEXT,
				description TEXT,
				classification TEXT,
				effective_classification TEXT,
				ordinal INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS model_dependencies (
				model_id INTEGER NOT NULL REFERENCES models(model_id),
				depends_on_model_id INTEGER NOT NULL REFERENCES models(model_id)
			)`,
			`CREATE TABLE IF NOT EXISTS model_external_dependencies (
				model_id INTEGER NOT NULL REFERENCES models(model_id),
				table_name TEXT NOT NULL
			)`,
			`CREATE SEQUENCE IF NOT EXISTS seq_sources START 1`,
			`CREATE TABLE IF NOT EXISTS sources (
				source_id INTEGER PRIMARY KEY DEFAULT nextval('seq_sources'),
				project_id INTEGER NOT NULL REFERENCES projects(project_id),
				name TEXT NOT NULL,
				description TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS source_tags (
				source_id INTEGER NOT NULL REFERENCES sources(source_id),
				tag TEXT NOT NULL
			)`,
			`CREATE SEQUENCE IF NOT EXISTS seq_source_tables START 1`,
			`CREATE TABLE IF NOT EXISTS source_tables (
				source_table_id INTEGER PRIMARY KEY DEFAULT nextval('seq_source_tables'),
				source_id INTEGER NOT NULL REFERENCES sources(source_id),
				name TEXT NOT NULL,
				identifier TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS source_columns (
				source_table_id INTEGER NOT NULL REFERENCES source_tables(source_table_id),
				name TEXT NOT NULL,
				declared_type TEXT,
				declared_nullable INTEGER,
				ordinal INTEGER NOT NULL
			)`,
			`CREATE SEQUENCE IF NOT EXISTS seq_functions START 1`,
			`CREATE TABLE IF NOT EXISTS functions (
				function_id INTEGER PRIMARY KEY DEFAULT nextval('seq_functions'),
				project_id INTEGER NOT NULL REFERENCES projects(project_id),
				name TEXT NOT NULL,
				dialect TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS function_args (
				function_id INTEGER NOT NULL REFERENCES functions(function_id),
				ordinal INTEGER NOT NULL,
				type TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS function_return_columns (
				function_id INTEGER NOT NULL REFERENCES functions(function_id),
				name TEXT NOT NULL,
				type TEXT,
				ordinal INTEGER NOT NULL
			)`,
			`CREATE SEQUENCE IF NOT EXISTS seq_seeds START 1`,
			`CREATE TABLE IF NOT EXISTS seeds (
				seed_id INTEGER PRIMARY KEY DEFAULT nextval('seq_seeds'),
				project_id INTEGER NOT NULL REFERENCES projects(project_id),
				name TEXT NOT NULL,
				path TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS seed_column_types (
				seed_id INTEGER NOT NULL REFERENCES seeds(seed_id),
				name TEXT NOT NULL,
				type TEXT,
				ordinal INTEGER NOT NULL
			)`,
			`CREATE SEQUENCE IF NOT EXISTS seq_tests START 1`,
			`CREATE TABLE IF NOT EXISTS tests (
				test_id INTEGER PRIMARY KEY DEFAULT nextval('seq_tests'),
				project_id INTEGER NOT NULL REFERENCES projects(project_id),
				model_id INTEGER REFERENCES models(model_id),
				name TEXT NOT NULL,
				kind TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS singular_tests (
				test_id INTEGER NOT NULL REFERENCES tests(test_id),
				sql TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS column_lineage (
				target_model_id INTEGER NOT NULL REFERENCES models(model_id),
				target_column TEXT NOT NULL,
				source_model_id INTEGER REFERENCES models(model_id),
				source_table TEXT,
				source_column TEXT NOT NULL,
				lineage_kind TEXT NOT NULL,
				is_direct INTEGER NOT NULL
			)`,
			`CREATE SEQUENCE IF NOT EXISTS seq_compilation_runs START 1`,
			`CREATE TABLE IF NOT EXISTS compilation_runs (
				run_id INTEGER PRIMARY KEY DEFAULT nextval('seq_compilation_runs'),
				project_id INTEGER NOT NULL REFERENCES projects(project_id),
				run_type TEXT NOT NULL,
				node_selector TEXT,
				started_at TEXT NOT NULL,
				completed_at TEXT,
				status TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS model_run_state (
				model_id INTEGER NOT NULL REFERENCES models(model_id),
				run_id INTEGER NOT NULL REFERENCES compilation_runs(run_id),
				status TEXT NOT NULL,
				row_count INTEGER,
				sql_checksum TEXT,
				schema_checksum TEXT,
				duration_ms INTEGER,
				started_at TEXT,
				completed_at TEXT
			)`,
			`CREATE VIEW IF NOT EXISTS model_latest_state AS
				SELECT mrs.*
				FROM model_run_state mrs
				JOIN (
					SELECT model_id, MAX(run_id) AS run_id
					FROM model_run_state
					GROUP BY model_id
				) latest ON latest.model_id = mrs.model_id AND latest.run_id = mrs.run_id`,
			`CREATE TABLE IF NOT EXISTS model_run_input_checksums (
				model_id INTEGER NOT NULL REFERENCES models(model_id),
				run_id INTEGER NOT NULL REFERENCES compilation_runs(run_id),
				upstream_model_id INTEGER NOT NULL REFERENCES models(model_id),
				checksum TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS model_run_config (
				model_id INTEGER NOT NULL REFERENCES models(model_id),
				run_id INTEGER NOT NULL REFERENCES compilation_runs(run_id),
				kind TEXT,
				schema_name TEXT,
				unique_key TEXT,
				incremental_strategy TEXT,
				on_schema_change TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS diagnostics (
				run_id INTEGER NOT NULL REFERENCES compilation_runs(run_id),
				code TEXT NOT NULL,
				severity TEXT NOT NULL,
				message TEXT NOT NULL,
				model_id INTEGER REFERENCES models(model_id),
				column_name TEXT,
				hint TEXT,
				pass_name TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS schema_mismatches (
				run_id INTEGER NOT NULL REFERENCES compilation_runs(run_id),
				model_id INTEGER NOT NULL REFERENCES models(model_id),
				column_name TEXT NOT NULL,
				mismatch_type TEXT NOT NULL,
				declared_value TEXT,
				inferred_value TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS rule_violations (
				run_id INTEGER NOT NULL REFERENCES compilation_runs(run_id),
				rule_name TEXT NOT NULL,
				rule_path TEXT NOT NULL,
				severity TEXT NOT NULL,
				entity_name TEXT,
				message TEXT NOT NULL,
				context_json TEXT
			)`,
		},
	},
	{
		version: 2,
		name:    "exposures and source freshness",
		stmts: []string{
			`CREATE SEQUENCE IF NOT EXISTS seq_exposures START 1`,
			`CREATE TABLE IF NOT EXISTS exposures (
				exposure_id INTEGER PRIMARY KEY DEFAULT nextval('seq_exposures'),
				project_id INTEGER NOT NULL REFERENCES projects(project_id),
				name TEXT NOT NULL,
				type TEXT,
				owner TEXT,
				maturity TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS exposure_dependencies (
				exposure_id INTEGER NOT NULL REFERENCES exposures(exposure_id),
				model_name TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS source_freshness (
				run_id INTEGER NOT NULL REFERENCES compilation_runs(run_id),
				source_name TEXT NOT NULL,
				table_name TEXT NOT NULL,
				loaded_at TEXT,
				age_seconds REAL,
				status TEXT NOT NULL,
				checked_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS generic_tests (
				test_id INTEGER NOT NULL REFERENCES tests(test_id),
				kind TEXT NOT NULL,
				column_name TEXT NOT NULL,
				params_json TEXT,
				sql TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS test_runs (
				run_id INTEGER NOT NULL REFERENCES compilation_runs(run_id),
				test_id INTEGER NOT NULL REFERENCES tests(test_id),
				status TEXT NOT NULL,
				failing_rows INTEGER,
				message TEXT
			)`,
		},
	},
}

// Migrate applies every migration whose version exceeds the highest
// version recorded in schema_version, in order, recording each as it
// completes. Each batch is idempotent (CREATE ... IF NOT EXISTS), so
// re-running an already-applied migration is harmless.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to ensure schema_version table: %w", err)
	}

	current, err := currentVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d (%s): %w", m.version, m.name, err)
		}

		for _, stmt := range m.stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version, applied_at) VALUES (?, CURRENT_TIMESTAMP)`, m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
	}

	return nil
}

func currentVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version sql.NullInt64

	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema_version: %w", err)
	}

	return int(version.Int64), nil
}

// Open opens the DuckDB-backed meta database at path and applies any
// pending migrations.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open meta database %s: %w", path, err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
