package analysis

import (
	featherflow "github.com/datastx/Feather-Flow-sub003"
)

// ClassificationPropagationPass walks the DAG in topological order and
// propagates each column's data-sensitivity classification downstream
// through direct lineage edges (copy/rename only — a transform can
// either raise or lower sensitivity, so it does not propagate a
// classification on its own). A model's declared classification is
// never lowered by propagation; it only ever rises to the max of its
// own declaration and whatever reaches it from upstream. The pass
// flags a column whose declared classification is lower than what
// propagation would assign, since that under-classifies a column that
// carries more sensitive upstream data than its YAML records.
type ClassificationPropagationPass struct{}

func (ClassificationPropagationPass) Name() string { return "classification_propagation" }

func (p ClassificationPropagationPass) RunOnProject(models map[string]ModelEntry, ctx *AnalysisContext) []Diagnostic {
	effective := make(map[string]map[string]featherflow.Classification, len(ctx.ModelOrder))

	var diags []Diagnostic

	for _, name := range ctx.ModelOrder {
		if _, ok := models[name]; !ok {
			continue
		}

		columns := make(map[string]featherflow.Classification)

		if declared, ok := ctx.DeclaredSchemas[name]; ok {
			for _, c := range declared.Columns {
				columns[c.Name] = c.Classification
			}
		}

		propagated := make(map[string]featherflow.Classification)

		for _, edge := range ctx.Lineage[name] {
			if !edge.IsDirect() {
				continue
			}

			upstream, ok := effective[edge.SourceTable]
			if !ok {
				continue
			}

			srcClass, ok := upstream[edge.SourceColumn]
			if !ok {
				continue
			}

			if cur, exists := propagated[edge.TargetColumn]; !exists || srcClass > cur {
				propagated[edge.TargetColumn] = srcClass
			}
		}

		merged := make(map[string]featherflow.Classification, len(columns)+len(propagated))

		for col, declaredClass := range columns {
			merged[col] = declaredClass
		}

		for col, propagatedClass := range propagated {
			merged[col] = merged[col].Max(propagatedClass)

			if declaredClass, ok := columns[col]; ok && declaredClass < propagatedClass {
				diags = append(diags, Diagnostic{
					Code: "A070", Severity: featherflow.SeverityWarning,
					Message: "column " + col + " is declared " + declaredClass.String() + " but derives from a " + propagatedClass.String() + " upstream column",
					Model:   name,
					Column:  col,
					Hint:    "raise the declared classification or confirm the transform actually reduces sensitivity",
				})
			}
		}

		effective[name] = merged
	}

	return diags
}
