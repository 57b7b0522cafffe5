package orchestrator

import (
	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/analysis"
	"github.com/datastx/Feather-Flow-sub003/dag"
	"github.com/datastx/Feather-Flow-sub003/lineage"
	"github.com/datastx/Feather-Flow-sub003/relir"
)

// BuildAnalysisContext assembles an analysis.AnalysisContext from a
// compiled model set, the dependency graph, and each model's declared
// schema (from its sidecar YAML, when present). Models whose compile
// stage failed are omitted: a pass can't reason about a plan that was
// never produced.
func BuildAnalysisContext(graph *dag.Graph, compiled map[string]CompiledModel, declared map[string]featherflow.ModelSchema) *analysis.AnalysisContext {
	order := graph.TopologicalOrder()

	ctx := &analysis.AnalysisContext{
		ModelOrder:      order,
		Plans:           make(map[string]relir.RelOp, len(compiled)),
		DeclaredSchemas: make(map[string]analysis.DeclaredSchema, len(declared)),
		Lineage:         make(map[string][]lineage.LineageEdge, len(compiled)),
		Dependents:      make(map[string][]string, len(order)),
	}

	for name, result := range compiled {
		if result.Err != nil || result.Plan == nil {
			continue
		}

		ctx.Plans[name] = result.Plan
		ctx.Lineage[name] = lineage.Extract(result.Plan)
	}

	for name, schema := range declared {
		columns := make([]analysis.DeclaredColumn, 0, len(schema.Columns))

		for _, col := range schema.Columns {
			columns = append(columns, analysis.DeclaredColumn{
				Name:           col.Name,
				Type:           col.Type,
				Nullable:       col.Nullable,
				Description:    col.Description,
				Classification: featherflow.ParseClassification(col.Classification),
			})
		}

		ctx.DeclaredSchemas[name] = analysis.DeclaredSchema{Columns: columns}
	}

	for _, name := range order {
		ctx.Dependents[name] = graph.Dependents(name)
	}

	return ctx
}
