package metadb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/datastx/Feather-Flow-sub003/testlib"
)

// PopulateGenericTest inserts one compiled generic test's tests row and
// its generic_tests detail row, returning the new test_id.
func PopulateGenericTest(ctx context.Context, db *sql.DB, projectID int64, modelID int64, test testlib.CompiledTest) (testID int64, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin generic test population: %w", err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO tests (project_id, model_id, name, kind) VALUES (?, ?, ?, ?) RETURNING test_id`,
		projectID, modelID, test.Name, "generic").Scan(&testID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert test %s: %w", test.Name, err)
	}

	paramsJSON, err := json.Marshal(test.Params)
	if err != nil {
		return 0, fmt.Errorf("failed to encode test params for %s: %w", test.Name, err)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO generic_tests (test_id, kind, column_name, params_json, sql) VALUES (?, ?, ?, ?, ?)`,
		testID, test.Kind, test.Column, string(paramsJSON), test.SQL); err != nil {
		return 0, fmt.Errorf("failed to insert generic_tests row for %s: %w", test.Name, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit generic test population for %s: %w", test.Name, err)
	}

	return testID, nil
}

// RecordTestRun persists one test's pass/fail outcome for a run.
func RecordTestRun(ctx context.Context, db *sql.DB, runID, testID int64, result testlib.Result) error {
	status := "pass"
	if !result.Passed {
		status = "fail"
	}

	message := ""
	if !result.Passed {
		message = fmt.Sprintf("%d failing row(s)", result.FailingRows)
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO test_runs (run_id, test_id, status, failing_rows, message) VALUES (?, ?, ?, ?, ?)`,
		runID, testID, status, result.FailingRows, message)
	if err != nil {
		return fmt.Errorf("failed to record test run for test %d: %w", testID, err)
	}

	return nil
}
