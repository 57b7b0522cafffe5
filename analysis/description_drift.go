package analysis

import (
	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/relir"
)

// DescriptionDriftPass flags columns whose documentation has drifted
// from an upstream source (codes A050, A051, A052).
type DescriptionDriftPass struct{}

func (DescriptionDriftPass) Name() string { return "description_drift" }

func (p DescriptionDriftPass) RunOnModel(modelName string, plan relir.RelOp, ctx *AnalysisContext) []Diagnostic {
	declared, ok := ctx.DeclaredSchemas[modelName]
	if !ok {
		return nil
	}

	descriptionOf := make(map[string]string, len(declared.Columns))
	for _, c := range declared.Columns {
		descriptionOf[c.Name] = c.Description
	}

	var diags []Diagnostic

	for _, edge := range ctx.Lineage[modelName] {
		downDesc, hasDown := descriptionOf[edge.TargetColumn]

		upstream, ok := ctx.DeclaredSchemas[edge.SourceTable]
		if !ok {
			continue
		}

		var upDesc string

		var upHasDesc bool

		for _, c := range upstream.Columns {
			if c.Name == edge.SourceColumn {
				upDesc = c.Description
				upHasDesc = upDesc != ""

				break
			}
		}

		if !upHasDesc {
			continue
		}

		if !edge.IsDirect() {
			if !hasDown || downDesc == "" {
				diags = append(diags, Diagnostic{
					Code: "A052", Severity: featherflow.SeverityWarning,
					Message: "column " + edge.TargetColumn + " is derived from " + edge.SourceTable + "." + edge.SourceColumn + ", which is documented, but has no description of its own",
					Column:  edge.TargetColumn,
				})
			}

			continue
		}

		if !hasDown || downDesc == "" {
			diags = append(diags, Diagnostic{
				Code: "A050", Severity: featherflow.SeverityWarning,
				Message: "column " + edge.TargetColumn + " copies " + edge.SourceTable + "." + edge.SourceColumn + " but does not carry over its description",
				Column:  edge.TargetColumn,
			})

			continue
		}

		if downDesc != upDesc {
			diags = append(diags, Diagnostic{
				Code: "A051", Severity: featherflow.SeverityInfo,
				Message: "column " + edge.TargetColumn + " description differs from its source " + edge.SourceTable + "." + edge.SourceColumn,
				Column:  edge.TargetColumn,
			})
		}
	}

	return diags
}
