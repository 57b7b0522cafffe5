package orchestrator

import "github.com/datastx/Feather-Flow-sub003/analysis"

// DefaultAnalysisManager returns the manager running every built-in
// pass: the three model-local passes plus the two DAG-wide passes.
func DefaultAnalysisManager() *analysis.Manager {
	return analysis.NewManager(
		[]analysis.PlanPass{
			analysis.CrossModelConsistencyPass{},
			analysis.DescriptionDriftPass{},
			analysis.JoinKeyPass{},
		},
		[]analysis.DagPlanPass{
			analysis.UnusedColumnsPass{},
			analysis.ClassificationPropagationPass{},
		},
	)
}
