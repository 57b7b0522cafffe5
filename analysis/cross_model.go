package analysis

import (
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/relir"
	"github.com/datastx/Feather-Flow-sub003/sqltype"
)

// CrossModelConsistencyPass compares each model's declared YAML schema
// against its inferred plan schema, column by column and case
// insensitively, emitting one diagnostic per mismatch (codes
// AE-schema-extra, AE-schema-missing, AE-schema-type,
// AE-schema-nullability).
type CrossModelConsistencyPass struct{}

func (CrossModelConsistencyPass) Name() string { return "cross_model_consistency" }

func (p CrossModelConsistencyPass) RunOnModel(modelName string, plan relir.RelOp, ctx *AnalysisContext) []Diagnostic {
	declared, ok := ctx.DeclaredSchemas[modelName]
	if !ok {
		return nil
	}

	inferred := plan.Schema()

	var diags []Diagnostic

	declaredByName := make(map[string]DeclaredColumn, len(declared.Columns))
	for _, c := range declared.Columns {
		declaredByName[strings.ToLower(c.Name)] = c
	}

	inferredByName := make(map[string]sqltype.TypedColumn, len(inferred.Columns))
	for _, c := range inferred.Columns {
		inferredByName[strings.ToLower(c.Name)] = c
	}

	for lower, inf := range inferredByName {
		if _, ok := declaredByName[lower]; !ok {
			diags = append(diags, Diagnostic{
				Code: "AE-schema-extra", Severity: featherflow.SeverityWarning,
				Message: "column " + inf.Name + " is produced by the model but not declared in its schema",
				Column:  inf.Name,
			})
		}
	}

	for lower, decl := range declaredByName {
		inf, ok := inferredByName[lower]
		if !ok {
			diags = append(diags, Diagnostic{
				Code: "AE-schema-missing", Severity: featherflow.SeverityError,
				Message: "declared column " + decl.Name + " is not produced by the model",
				Column:  decl.Name,
			})

			continue
		}

		declType := sqltype.ParseTypeString(decl.Type)
		if !declType.Equal(inf.Type) && !declType.IsCompatibleWith(inf.Type) {
			diags = append(diags, Diagnostic{
				Code: "AE-schema-type", Severity: featherflow.SeverityWarning,
				Message: "column " + decl.Name + " declared as " + declType.String() + " but inferred as " + inf.Type.String(),
				Column:  decl.Name,
			})
		}

		declNullable := decl.Nullable
		infNullable := inf.Nullability != sqltype.NotNull

		if declNullable != infNullable {
			hint := "guard the SQL (COALESCE/WHERE IS NOT NULL) so the column matches its declared nullability"
			if declNullable && !infNullable {
				hint = "tighten the YAML: the SQL never produces a null value for this column"
			}

			diags = append(diags, Diagnostic{
				Code: "AE-schema-nullability", Severity: featherflow.SeverityWarning,
				Message: "column " + decl.Name + " nullability mismatch: declared nullable=" + boolString(declNullable) + ", inferred nullable=" + boolString(infNullable),
				Column:  decl.Name,
				Hint:    hint,
			})
		}
	}

	return diags
}

func boolString(b bool) string {
	if b {
		return "true"
	}

	return "false"
}
