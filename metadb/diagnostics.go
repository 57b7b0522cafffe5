package metadb

import (
	"context"
	"database/sql"
	"fmt"
)

// Diagnostic is one analysis-pass finding, ready to insert into the
// diagnostics table.
type Diagnostic struct {
	Code     string
	Severity string
	Message  string
	ModelID  sql.NullInt64
	Column   string
	Hint     string
	PassName string
}

// InsertDiagnostic writes one diagnostic for runID.
func InsertDiagnostic(ctx context.Context, db *sql.DB, runID int64, d Diagnostic) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO diagnostics (run_id, code, severity, message, model_id, column_name, hint, pass_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, d.Code, d.Severity, d.Message, d.ModelID, d.Column, d.Hint, d.PassName)
	if err != nil {
		return fmt.Errorf("failed to insert diagnostic %s: %w", d.Code, err)
	}

	return nil
}
