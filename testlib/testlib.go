// Package testlib compiles a model's column-level generic tests
// (not_null, unique, accepted_values, relationships) into SQL
// assertion queries and runs them against the target database. A test
// passes when its query returns zero rows; every returned row is a
// failing record.
package testlib

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub003"
)

// CompiledTest is one column-level generic test, rendered to a SQL
// query that selects every failing row.
type CompiledTest struct {
	Name      string
	ModelName string
	Column    string
	Kind      string
	SQL       string
	Params    featherflow.GenericTest
}

// testName mirrors the originating tool's generated singular-test name
// convention: kind_model_column.
func testName(kind, model, column string) string {
	return fmt.Sprintf("%s_%s_%s", kind, model, column)
}

// Compile renders every column's generic tests for one model into
// CompiledTest queries against qualifiedTable (schema-qualified
// reference to the materialized model).
func Compile(modelName, qualifiedTable string, columns []featherflow.ColumnSchema, resolveRelation func(modelName string) (string, error)) ([]CompiledTest, error) {
	var out []CompiledTest

	for _, col := range columns {
		for _, t := range col.Tests {
			compiled, err := compileOne(modelName, qualifiedTable, col.Name, t, resolveRelation)
			if err != nil {
				return nil, err
			}

			out = append(out, compiled)
		}
	}

	return out, nil
}

func compileOne(modelName, qualifiedTable, column string, t featherflow.GenericTest, resolveRelation func(string) (string, error)) (CompiledTest, error) {
	kind := strings.ToLower(t.Kind)

	var sql string

	switch kind {
	case "not_null":
		sql = fmt.Sprintf(`SELECT * FROM %s WHERE %s IS NULL`, qualifiedTable, column)
	case "unique":
		sql = fmt.Sprintf(
			`SELECT %s FROM %s GROUP BY %s HAVING COUNT(*) > 1`,
			column, qualifiedTable, column)
	case "accepted_values":
		if len(t.Values) == 0 {
			return CompiledTest{}, fmt.Errorf("accepted_values test on %s.%s: no values declared", modelName, column)
		}

		quoted := make([]string, len(t.Values))
		for i, v := range t.Values {
			quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
		}

		sql = fmt.Sprintf(
			`SELECT * FROM %s WHERE %s IS NOT NULL AND %s NOT IN (%s)`,
			qualifiedTable, column, column, strings.Join(quoted, ", "))
	case "relationships":
		if t.To == "" || t.Field == "" {
			return CompiledTest{}, fmt.Errorf("relationships test on %s.%s: to and field are required", modelName, column)
		}

		referencedTable, err := resolveRelation(t.To)
		if err != nil {
			return CompiledTest{}, fmt.Errorf("relationships test on %s.%s: %w", modelName, column, err)
		}

		sql = fmt.Sprintf(
			`SELECT child.* FROM %s child LEFT JOIN %s parent ON child.%s = parent.%s WHERE child.%s IS NOT NULL AND parent.%s IS NULL`,
			qualifiedTable, referencedTable, column, t.Field, column, t.Field)
	default:
		return CompiledTest{}, fmt.Errorf("unknown generic test kind %q on %s.%s", t.Kind, modelName, column)
	}

	return CompiledTest{
		Name:      testName(kind, modelName, column),
		ModelName: modelName,
		Column:    column,
		Kind:      kind,
		SQL:       sql,
		Params:    t,
	}, nil
}

// Result is the outcome of running one CompiledTest.
type Result struct {
	Test        CompiledTest
	FailingRows int64
	Passed      bool
}

// Run executes test against db and counts its failing rows.
func Run(ctx context.Context, db *sql.DB, test CompiledTest) (Result, error) {
	rows, err := db.QueryContext(ctx, test.SQL)
	if err != nil {
		return Result{}, fmt.Errorf("test %s failed: %w", test.Name, err)
	}
	defer rows.Close()

	var count int64
	for rows.Next() {
		count++
	}

	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("test %s: row iteration failed: %w", test.Name, err)
	}

	return Result{Test: test, FailingRows: count, Passed: count == 0}, nil
}

// RunAll runs every test in tests against db, stopping at the first
// failure only when failFast is set.
func RunAll(ctx context.Context, db *sql.DB, tests []CompiledTest, failFast bool) ([]Result, error) {
	results := make([]Result, 0, len(tests))

	for _, t := range tests {
		r, err := Run(ctx, db, t)
		if err != nil {
			return results, err
		}

		results = append(results, r)

		if failFast && !r.Passed {
			break
		}
	}

	return results, nil
}
