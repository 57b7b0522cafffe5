package orchestrator

import (
	"context"
	"fmt"

	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/analysis"
	"github.com/datastx/Feather-Flow-sub003/dag"
	"github.com/datastx/Feather-Flow-sub003/project"
	"github.com/datastx/Feather-Flow-sub003/state"
)

// CompileReport is the full output of one compile invocation.
type CompileReport struct {
	Project     *project.Project
	Graph       *dag.Graph
	Order       []string
	Compiled    map[string]CompiledModel
	Diagnostics []analysis.Diagnostic
}

// Compile runs project discovery through analysis, without executing
// any model. It is the shared first half of `compile`, `run`,
// `analyze`, and `build`.
func Compile(ctx context.Context, rootPath string, cfg *featherflow.Config, severityOverrides analysis.SeverityOverrides, nameFilter map[string]bool) (*CompileReport, error) {
	proj, err := project.Discover(rootPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}

	graph, err := BuildGraph(proj.Models)
	if err != nil {
		return nil, fmt.Errorf("dependency graph failed: %w", err)
	}

	order := graph.TopologicalOrder()

	compiler := NewCompiler(cfg, featherflow.Dialect(cfg.Dialect), proj.Models)
	compiled := compiler.CompileAll(ctx, order)

	ctxAnalysis := BuildAnalysisContext(graph, compiled, cfg.Schema)
	diagnostics := DefaultAnalysisManager().Run(ctxAnalysis, nameFilter, severityOverrides)
	diagnostics = EnforceContracts(compiled, cfg.Schema, diagnostics)

	return &CompileReport{
		Project:     proj,
		Graph:       graph,
		Order:       order,
		Compiled:    compiled,
		Diagnostics: diagnostics,
	}, nil
}

// CompileErrors returns the compile-stage error for every model that
// failed to render, parse, qualify, or plan.
func (r *CompileReport) CompileErrors() map[string]error {
	errs := make(map[string]error)

	for name, c := range r.Compiled {
		if c.Err != nil {
			errs[name] = c.Err
		}
	}

	return errs
}

// HasErrorDiagnostics reports whether any diagnostic at error severity
// survived (used to decide the process exit code).
func (r *CompileReport) HasErrorDiagnostics() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == featherflow.SeverityError {
			return true
		}
	}

	return false
}

// RunReport is the full output of `featherflow run`: the compile
// report plus per-model execution results and the updated run-state
// file.
type RunReport struct {
	Compile *CompileReport
	Results map[string]RunResult
	State   *state.RunStateFile
}

// Run compiles the project, runs on_run_start, then executes every
// compilable model in dependency order using exec to materialize it,
// then runs on_run_end. selected restricts execution to that subset
// (still honoring dependency order among them); pass nil to run every
// model. Models that failed to compile are never executed. on_run_end
// still runs when model execution fails, matching §5's "always runs"
// semantics, but not when on_run_start itself fails.
func Run(ctx context.Context, rootPath string, cfg *featherflow.Config, selected []string, threads int, failFast bool, hookExec HookExecutor, exec func(ctx context.Context, name string, sql string) (*int64, error)) (*RunReport, error) {
	report, err := Compile(ctx, rootPath, cfg, cfg.Analysis.SeverityOverrides, nil)
	if err != nil {
		return nil, err
	}

	if hookExec != nil {
		if err := RunHooks(ctx, "on_run_start", cfg.OnRunStart, hookExec); err != nil {
			return &RunReport{Compile: report}, err
		}
	}

	runNodes := selected
	if runNodes == nil {
		runNodes = report.Order
	}

	runnable := make([]string, 0, len(runNodes))
	for _, name := range runNodes {
		if c, ok := report.Compiled[name]; ok && c.Err == nil {
			runnable = append(runnable, name)
		}
	}

	results := ExecuteGraph(ctx, report.Graph, runnable, threads, failFast, func(taskCtx context.Context, name string) (*int64, error) {
		return exec(taskCtx, name, report.Compiled[name].FinalSQL)
	})

	runState := state.NewRunStateFile(state.ConfigHash(cfg.Name, cfg.Database.Path, cfg.Database.Name), report.Order)
	for name, result := range results {
		if result.Status == featherflow.RunStatusSuccess {
			runState.MarkCompleted(name, result.DurationMs)
		} else if result.Err != nil {
			runState.MarkFailed(name, result.Err.Error())
		}
	}

	var hookErr error
	if hookExec != nil {
		hookErr = RunHooks(ctx, "on_run_end", cfg.OnRunEnd, hookExec)
	}

	return &RunReport{Compile: report, Results: results, State: runState}, hookErr
}
