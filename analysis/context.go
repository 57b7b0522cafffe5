// Package analysis implements the analysis context, pass manager, and
// individual passes (§4.8, §4.9): cross-model schema consistency,
// description drift, join-key analysis, unused-column detection, and
// classification propagation.
package analysis

import (
	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/lineage"
	"github.com/datastx/Feather-Flow-sub003/relir"
	"github.com/datastx/Feather-Flow-sub003/sqltype"
)

// DeclaredColumn is one YAML-declared column on a model.
type DeclaredColumn struct {
	Name           string
	Type           string
	Nullable       bool
	Description    string
	Classification featherflow.Classification
}

// DeclaredSchema is a model's YAML-declared schema, when it has one.
type DeclaredSchema struct {
	Columns []DeclaredColumn
}

// ModelPlan pairs a model's name with its lowered plan; the inferred
// output schema is Plan.Schema().
type ModelPlan struct {
	Name string
	Plan relir.RelOp
}

// AnalysisContext is the immutable, per-invocation handle every pass
// consults. It is built once per compile/run invocation and never
// mutated afterward.
type AnalysisContext struct {
	// ModelOrder is the topological compile order of every known model.
	ModelOrder []string

	// Plans maps model name to its lowered plan.
	Plans map[string]relir.RelOp

	// DeclaredSchemas maps model name to its YAML schema, when declared.
	DeclaredSchemas map[string]DeclaredSchema

	// Lineage maps model name to the lineage edges feeding it.
	Lineage map[string][]lineage.LineageEdge

	// Dependents maps model name to its direct downstream model names.
	Dependents map[string][]string
}

// KnownModels returns the set of model names the context covers.
func (c *AnalysisContext) KnownModels() map[string]bool {
	known := make(map[string]bool, len(c.ModelOrder))
	for _, name := range c.ModelOrder {
		known[name] = true
	}

	return known
}

// InferredSchema returns the output schema of name's plan, if known.
func (c *AnalysisContext) InferredSchema(name string) (sqltype.RelationSchema, bool) {
	plan, ok := c.Plans[name]
	if !ok {
		return sqltype.RelationSchema{}, false
	}

	return plan.Schema(), true
}
