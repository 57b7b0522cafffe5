package orchestrator

import (
	"context"
	"database/sql"
	"fmt"

	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/analysis"
	"github.com/datastx/Feather-Flow-sub003/metadb"
)

// PersistCompileReport writes a compile invocation's models, their
// dependency edges, their columns, and every surviving diagnostic into
// the meta database, within one compilation_runs row.
func PersistCompileReport(ctx context.Context, db *sql.DB, projectID int64, runType, selector string, report *CompileReport) (runID int64, err error) {
	runID, err = metadb.BeginPopulation(ctx, db, projectID, runType, selector)
	if err != nil {
		return 0, err
	}

	modelIDs := make(map[string]int64, len(report.Compiled))

	for _, name := range report.Order {
		compiled, ok := report.Compiled[name]
		if !ok {
			continue
		}

		record := metadb.ModelRecord{
			Name:            name,
			Path:            compiled.Model.Path,
			RawSQL:          compiled.Model.RawSQL,
			CompiledSQL:     compiled.FinalSQL,
			Materialization: featherflow.Materialization(compiled.Model.Materialization).MetaDBValue(),
			Version:         compiled.Model.Version,
			BaseName:        compiled.Model.BaseName,
		}

		for _, dep := range report.Graph.Dependencies(name) {
			if depID, ok := modelIDs[dep]; ok {
				record.DependsOnModelIDs = append(record.DependsOnModelIDs, depID)
			}
		}

		for _, col := range compiled.Schema.Columns {
			record.Columns = append(record.Columns, metadb.ModelColumn{
				Name:         col.Name,
				InferredType: col.Type.String(),
			})
		}

		modelID, err := metadb.PopulateModel(ctx, db, projectID, record)
		if err != nil {
			metadb.CompletePopulation(ctx, db, runID, featherflow.RunStatusError)
			return 0, fmt.Errorf("populate model %s: %w", name, err)
		}

		modelIDs[name] = modelID
	}

	if err := insertDiagnostics(ctx, db, runID, report.Diagnostics, modelIDs); err != nil {
		metadb.CompletePopulation(ctx, db, runID, featherflow.RunStatusError)
		return 0, err
	}

	status := featherflow.RunStatusSuccess
	if report.HasErrorDiagnostics() || len(report.CompileErrors()) > 0 {
		status = featherflow.RunStatusError
	}

	if err := metadb.CompletePopulation(ctx, db, runID, status); err != nil {
		return 0, err
	}

	return runID, nil
}

func insertDiagnostics(ctx context.Context, db *sql.DB, runID int64, diagnostics []analysis.Diagnostic, modelIDs map[string]int64) error {
	for _, d := range diagnostics {
		var modelID sql.NullInt64
		if id, ok := modelIDs[d.Model]; ok {
			modelID = sql.NullInt64{Int64: id, Valid: true}
		}

		err := metadb.InsertDiagnostic(ctx, db, runID, metadb.Diagnostic{
			Code:     d.Code,
			Severity: string(d.Severity),
			Message:  d.Message,
			ModelID:  modelID,
			Column:   d.Column,
			Hint:     d.Hint,
			PassName: d.PassName,
		})
		if err != nil {
			return err
		}
	}

	return nil
}
