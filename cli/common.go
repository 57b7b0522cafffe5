package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb"

	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/metadb"
)

// loadConfig resolves the project root (the current directory) and
// loads featherflow.yml from ctx.Config.
func loadConfig(ctx *Context) (*featherflow.Config, string, error) {
	rootPath, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg, err := featherflow.LoadConfig(ctx.Config)
	if err != nil {
		return nil, "", err
	}

	return cfg, rootPath, nil
}

// driverFor maps a connection's configured type to its database/sql
// driver name. duckdb is the default project-database executor;
// postgres/mysql are wired as alternate targets.
func driverFor(dbType string) string {
	switch dbType {
	case "postgres", "postgresql":
		return "pgx"
	case "mysql":
		return "mysql"
	default:
		return "duckdb"
	}
}

// openTarget opens the database connection models materialize into:
// the default database, or targetName's entry in cfg.Targets when set.
func openTarget(cfg *featherflow.Config, targetName string) (*sql.DB, error) {
	dbType, path := cfg.Database.Type, cfg.Database.Path

	if targetName != "" {
		t, ok := cfg.Targets[targetName]
		if !ok {
			return nil, fmt.Errorf("unknown target %q", targetName)
		}

		dbType, path = t.Type, t.Path
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open(driverFor(dbType), path)
	if err != nil {
		return nil, fmt.Errorf("failed to open target database: %w", err)
	}

	return db, nil
}

// openMeta opens (creating and migrating if needed) the embedded meta
// database at <target_path>/meta.duckdb.
func openMeta(ctx context.Context, cfg *featherflow.Config) (*sql.DB, error) {
	path := filepath.Join(cfg.TargetPath, "meta.duckdb")

	if err := os.MkdirAll(cfg.TargetPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create target directory: %w", err)
	}

	db, err := metadb.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open meta database: %w", err)
	}

	return db, nil
}

// writeRunResultsJSON mirrors the meta DB's last-invocation state into
// target/run_results.json, the auxiliary plain-JSON export.
func writeRunResultsJSON(cfg *featherflow.Config, data []byte) error {
	path := filepath.Join(cfg.TargetPath, "run_results.json")

	if err := os.MkdirAll(cfg.TargetPath, 0o755); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
