package orchestrator

import (
	"fmt"

	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/analysis"
)

// contractCodes are the cross-model-consistency codes that represent an
// actual schema mismatch rather than an informational note about an
// undeclared column.
var contractCodes = map[string]bool{
	"AE-schema-type":        true,
	"AE-schema-missing":     true,
	"AE-schema-nullability": true,
}

// EnforceContracts escalates cross-model-consistency diagnostics to
// error severity wherever the offending model's declared schema is
// marked Enforced, and fails that model's CompiledModel so the
// orchestrator skips executing it. Models without an enforced schema,
// or diagnostics that aren't schema mismatches, are returned unchanged.
func EnforceContracts(compiled map[string]CompiledModel, declared map[string]featherflow.ModelSchema, diagnostics []analysis.Diagnostic) []analysis.Diagnostic {
	out := make([]analysis.Diagnostic, len(diagnostics))
	copy(out, diagnostics)

	for i, d := range out {
		if !contractCodes[d.Code] {
			continue
		}

		schema, ok := declared[d.Model]
		if !ok || !schema.Enforced {
			continue
		}

		out[i].Severity = featherflow.SeverityError

		c, ok := compiled[d.Model]
		if !ok || c.Err != nil {
			continue
		}

		c.Err = fmt.Errorf("contract violation on %s: %s", d.Column, d.Message)
		compiled[d.Model] = c
	}

	return out
}
