package metadb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	featherflow "github.com/datastx/Feather-Flow-sub003"
)

// EnsureProject looks up a projects row by name and root path, updating
// its recorded configuration if one exists, or inserting a new one
// otherwise. It is the first call any CLI command makes before driving
// the orchestrator, which needs a projectID to scope every other table.
func EnsureProject(ctx context.Context, db *sql.DB, cfg *featherflow.Config, rootPath string) (projectID int64, err error) {
	var existing sql.NullInt64

	err = db.QueryRowContext(ctx,
		`SELECT project_id FROM projects WHERE name = ? AND root_path = ?`,
		cfg.Name, rootPath).Scan(&existing)

	switch {
	case err == sql.ErrNoRows:
		insertErr := db.QueryRowContext(ctx,
			`INSERT INTO projects (name, version, root_path, schema_name, materialization, dialect, db_path, db_name, target_path)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING project_id`,
			cfg.Name, cfg.Version, rootPath, defaultSchemaName(cfg), cfg.Materialization,
			cfg.Dialect, cfg.Database.Path, cfg.Database.Name, cfg.TargetPath).Scan(&projectID)
		if insertErr != nil {
			return 0, fmt.Errorf("failed to insert project %s: %w", cfg.Name, insertErr)
		}
	case err != nil:
		return 0, fmt.Errorf("failed to look up project %s: %w", cfg.Name, err)
	default:
		projectID = existing.Int64

		if _, updateErr := db.ExecContext(ctx,
			`UPDATE projects SET version = ?, schema_name = ?, materialization = ?, dialect = ?,
				db_path = ?, db_name = ?, target_path = ? WHERE project_id = ?`,
			cfg.Version, defaultSchemaName(cfg), cfg.Materialization, cfg.Dialect,
			cfg.Database.Path, cfg.Database.Name, cfg.TargetPath, projectID); updateErr != nil {
			return 0, fmt.Errorf("failed to update project %s: %w", cfg.Name, updateErr)
		}
	}

	if err := replaceProjectHooks(ctx, db, projectID, cfg); err != nil {
		return 0, err
	}

	if err := replaceProjectVars(ctx, db, projectID, cfg); err != nil {
		return 0, err
	}

	return projectID, nil
}

func defaultSchemaName(cfg *featherflow.Config) string {
	return cfg.Database.Name
}

func replaceProjectHooks(ctx context.Context, db *sql.DB, projectID int64, cfg *featherflow.Config) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM project_hooks WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to clear project_hooks: %w", err)
	}

	insert := func(kind string, statements []string) error {
		for i, stmt := range statements {
			if _, err := db.ExecContext(ctx,
				`INSERT INTO project_hooks (project_id, kind, ordinal, statement) VALUES (?, ?, ?, ?)`,
				projectID, kind, i, stmt); err != nil {
				return fmt.Errorf("failed to insert %s hook %d: %w", kind, i, err)
			}
		}

		return nil
	}

	if err := insert("on_run_start", cfg.OnRunStart); err != nil {
		return err
	}

	return insert("on_run_end", cfg.OnRunEnd)
}

func replaceProjectVars(ctx context.Context, db *sql.DB, projectID int64, cfg *featherflow.Config) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM project_vars WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to clear project_vars: %w", err)
	}

	for name, value := range cfg.Vars {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode var %s: %w", name, err)
		}

		if _, err := db.ExecContext(ctx,
			`INSERT INTO project_vars (project_id, name, value_json) VALUES (?, ?, ?)`,
			projectID, name, string(data)); err != nil {
			return fmt.Errorf("failed to insert var %s: %w", name, err)
		}
	}

	return nil
}

// ExposureRecord is one discovered exposure ready to populate.
type ExposureRecord struct {
	Name      string
	Type      string
	Owner     string
	Maturity  string
	DependsOn []string
}

// PopulateExposures replaces every exposures row for projectID with
// records, alongside their model-name dependency edges.
func PopulateExposures(ctx context.Context, db *sql.DB, projectID int64, records []ExposureRecord) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin exposure population: %w", err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM exposure_dependencies WHERE exposure_id IN (SELECT exposure_id FROM exposures WHERE project_id = ?)`,
		projectID); err != nil {
		return fmt.Errorf("failed to clear exposure_dependencies: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM exposures WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to clear exposures: %w", err)
	}

	for _, rec := range records {
		var exposureID int64

		err = tx.QueryRowContext(ctx,
			`INSERT INTO exposures (project_id, name, type, owner, maturity) VALUES (?, ?, ?, ?, ?) RETURNING exposure_id`,
			projectID, rec.Name, rec.Type, rec.Owner, rec.Maturity).Scan(&exposureID)
		if err != nil {
			return fmt.Errorf("failed to insert exposure %s: %w", rec.Name, err)
		}

		for _, dep := range rec.DependsOn {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO exposure_dependencies (exposure_id, model_name) VALUES (?, ?)`,
				exposureID, dep); err != nil {
				return fmt.Errorf("failed to insert dependency %s for exposure %s: %w", dep, rec.Name, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit exposure population: %w", err)
	}

	return nil
}

// FreshnessResult is one source's freshness check outcome.
type FreshnessResult struct {
	SourceName string
	TableName  string
	LoadedAt   *string
	AgeSeconds *float64
	Status     string
}

// InsertFreshnessResult records one freshness check against runID.
func InsertFreshnessResult(ctx context.Context, db *sql.DB, runID int64, r FreshnessResult) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO source_freshness (run_id, source_name, table_name, loaded_at, age_seconds, status, checked_at)
		 VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		runID, r.SourceName, r.TableName, r.LoadedAt, r.AgeSeconds, r.Status)
	if err != nil {
		return fmt.Errorf("failed to insert freshness result for %s: %w", r.SourceName, err)
	}

	return nil
}
