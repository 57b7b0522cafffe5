package orchestrator

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/datastx/Feather-Flow-sub003/sqltype"
)

// Executor runs materialization DDL/DML against the target database.
// SQLExecutor below is the default, DuckDB-backed implementation; any
// database/sql driver can satisfy this interface, which is the core's
// only contact point with a concrete database (§1's "database driver"
// external collaborator).
type Executor interface {
	Execute(ctx context.Context, sql string) error
	CreateSchemaIfNotExists(ctx context.Context, schema string) error
	CreateTableAs(ctx context.Context, schema, table, selectSQL string) error
	CreateViewAs(ctx context.Context, schema, table, selectSQL string) error
	GetTableSchema(ctx context.Context, schema, table string) (sqltype.RelationSchema, error)
	RowCount(ctx context.Context, schema, table string) (int64, error)
}

// SQLExecutor adapts a *sql.DB to Executor. qualify() folds a non-empty
// schema into the table name as schema__table rather than a real
// namespace, so the same executor works unmodified against targets
// (e.g. MySQL) that lack DuckDB's native schema catalog.
type SQLExecutor struct {
	DB *sql.DB
}

func qualify(schema, table string) string {
	if schema == "" {
		return table
	}

	return schema + "__" + table
}

// Execute implements Executor.
func (e SQLExecutor) Execute(ctx context.Context, query string) error {
	if _, err := e.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}

	return nil
}

// CreateSchemaIfNotExists is a no-op: the qualify() naming convention
// flattens schemas into the table name, so there is no catalog object
// to create.
func (e SQLExecutor) CreateSchemaIfNotExists(ctx context.Context, schema string) error {
	return nil
}

// CreateTableAs materializes a model as a table, replacing any prior
// table of the same name.
func (e SQLExecutor) CreateTableAs(ctx context.Context, schema, table, selectSQL string) error {
	name := qualify(schema, table)

	if _, err := e.DB.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, name)); err != nil {
		return fmt.Errorf("drop table %s failed: %w", name, err)
	}

	if _, err := e.DB.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %s AS %s`, name, selectSQL)); err != nil {
		return fmt.Errorf("create table %s failed: %w", name, err)
	}

	return nil
}

// CreateViewAs materializes a model as a view, replacing any prior view
// of the same name.
func (e SQLExecutor) CreateViewAs(ctx context.Context, schema, table, selectSQL string) error {
	name := qualify(schema, table)

	if _, err := e.DB.ExecContext(ctx, fmt.Sprintf(`DROP VIEW IF EXISTS %s`, name)); err != nil {
		return fmt.Errorf("drop view %s failed: %w", name, err)
	}

	if _, err := e.DB.ExecContext(ctx, fmt.Sprintf(`CREATE VIEW %s AS %s`, name, selectSQL)); err != nil {
		return fmt.Errorf("create view %s failed: %w", name, err)
	}

	return nil
}

// GetTableSchema introspects a materialized table's columns via
// PRAGMA table_info, for drift checks against a model's inferred
// schema after a real execution.
func (e SQLExecutor) GetTableSchema(ctx context.Context, schema, table string) (sqltype.RelationSchema, error) {
	name := qualify(schema, table)

	rows, err := e.DB.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, name))
	if err != nil {
		return sqltype.RelationSchema{}, fmt.Errorf("table_info(%s) failed: %w", name, err)
	}
	defer rows.Close()

	var columns []sqltype.TypedColumn

	for rows.Next() {
		var (
			cid        int
			colName    string
			colType    string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)

		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultVal, &pk); err != nil {
			return sqltype.RelationSchema{}, fmt.Errorf("scan table_info(%s): %w", name, err)
		}

		nullability := sqltype.Nullable
		if notNull != 0 {
			nullability = sqltype.NotNull
		}

		columns = append(columns, sqltype.TypedColumn{
			Name:        colName,
			Type:        sqltype.ParseTypeString(colType),
			Nullability: nullability,
		})
	}

	if err := rows.Err(); err != nil {
		return sqltype.RelationSchema{}, fmt.Errorf("table_info(%s) iteration: %w", name, err)
	}

	return sqltype.RelationSchema{Columns: columns}, nil
}

// RowCount implements Executor.
func (e SQLExecutor) RowCount(ctx context.Context, schema, table string) (int64, error) {
	name := qualify(schema, table)

	var count int64

	err := e.DB.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, name)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("row count for %s failed: %w", name, err)
	}

	return count, nil
}

// MaterializeModel dispatches a compiled model's final SQL to exec
// according to its materialization kind, then reads back its row
// count. An ephemeral model is not executed: MaterializeModel returns a
// nil row count for it, and downstream models are not rewritten to
// inline it.
func MaterializeModel(ctx context.Context, exec Executor, schema string, c CompiledModel) (*int64, error) {
	if err := exec.CreateSchemaIfNotExists(ctx, schema); err != nil {
		return nil, err
	}

	table := string(c.Model.Name)

	switch c.Model.Materialization {
	case "table", "incremental":
		if err := exec.CreateTableAs(ctx, schema, table, c.FinalSQL); err != nil {
			return nil, err
		}
	case "ephemeral":
		return nil, nil
	default: // "view" and unset default to view, per the model's declared default
		if err := exec.CreateViewAs(ctx, schema, table, c.FinalSQL); err != nil {
			return nil, err
		}
	}

	count, err := exec.RowCount(ctx, schema, table)
	if err != nil {
		return nil, err
	}

	return &count, nil
}
