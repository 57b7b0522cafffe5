package analysis

import (
	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/relir"
)

// Diagnostic is one finding emitted by a pass.
type Diagnostic struct {
	Code     string
	Severity featherflow.Severity
	Message  string
	Model    string
	Column   string
	Hint     string
	PassName string
}

// PlanPass runs once per model, given that model's name and lowered
// plan, against the shared context. Implementations must be pure: they
// may not mutate the context or the plan.
type PlanPass interface {
	Name() string
	RunOnModel(modelName string, plan relir.RelOp, ctx *AnalysisContext) []Diagnostic
}

// ModelEntry is one model's plan plus the diagnostics its per-model
// passes produced, as DagPlanPass sees the whole project at once. The
// inferred schema is Plan.Schema().
type ModelEntry struct {
	Plan      relir.RelOp
	Mismatches []Diagnostic
}

// DagPlanPass runs once per invocation over every model's plan at once,
// for analyses that need project-wide visibility (classification
// propagation, unused columns).
type DagPlanPass interface {
	Name() string
	RunOnProject(models map[string]ModelEntry, ctx *AnalysisContext) []Diagnostic
}
