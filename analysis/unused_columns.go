package analysis

import (
	featherflow "github.com/datastx/Feather-Flow-sub003"
)

// UnusedColumnsPass flags output columns of a non-leaf model that no
// downstream model references, directly or indirectly (code A020).
//
// A column counts as referenced if any lineage edge owned by a
// downstream model names it as a SourceColumn against this model —
// copy/rename/transform edges from a direct SELECT reference, and
// inspect edges from a WHERE/JOIN/ORDER BY reference. Models with no
// recorded dependents (leaves of the DAG, typically exposures or
// external consumers) are never flagged: there is nothing downstream
// to observe their usage.
type UnusedColumnsPass struct{}

func (UnusedColumnsPass) Name() string { return "unused_columns" }

func (p UnusedColumnsPass) RunOnProject(models map[string]ModelEntry, ctx *AnalysisContext) []Diagnostic {
	var diags []Diagnostic

	for _, name := range ctx.ModelOrder {
		entry, ok := models[name]
		if !ok {
			continue
		}

		dependents := ctx.Dependents[name]
		if len(dependents) == 0 {
			continue
		}

		referenced := make(map[string]bool)

		for _, downstream := range dependents {
			for _, edge := range ctx.Lineage[downstream] {
				if edge.SourceTable == name {
					referenced[edge.SourceColumn] = true
				}
			}
		}

		for _, col := range entry.Plan.Schema().Columns {
			if referenced[col.Name] {
				continue
			}

			diags = append(diags, Diagnostic{
				Code: "A020", Severity: featherflow.SeverityInfo,
				Message: "column " + col.Name + " is produced by " + name + " but no downstream model references it",
				Model:   name,
				Column:  col.Name,
			})
		}
	}

	return diags
}
