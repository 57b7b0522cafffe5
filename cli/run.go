package cli

import (
	"context"
	"fmt"
	"path/filepath"

	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/metadb"
	"github.com/datastx/Feather-Flow-sub003/orchestrator"
	"github.com/datastx/Feather-Flow-sub003/state"
)

// RunCmd compiles then executes the selected models in dependency
// order.
type RunCmd struct {
	Selectors   []string `arg:"" optional:"" name:"selector" help:"Model selector expressions"`
	FullRefresh bool     `help:"Ignore prior run state and rebuild everything"`
	FailFast    bool     `help:"Stop dispatching new models after the first failure"`
	NoCache     bool     `help:"Recompile every model even if its checksum is unchanged"`
	Threads     int      `help:"Maximum concurrent model executions" default:"4"`
	Resume      bool     `help:"Resume from the last run-state file"`
	RetryFailed bool     `help:"Resume, restricted to models that previously failed"`
}

// Run executes the run command.
func (cmd *RunCmd) Run(appCtx *Context) error {
	ctx := context.Background()

	cfg, rootPath, err := loadConfig(appCtx)
	if err != nil {
		return err
	}

	metaDB, err := openMeta(ctx, cfg)
	if err != nil {
		return err
	}
	defer metaDB.Close()

	targetDB, err := openTarget(cfg, appCtx.Target)
	if err != nil {
		return err
	}
	defer targetDB.Close()

	projectID, err := metadb.EnsureProject(ctx, metaDB, cfg, rootPath)
	if err != nil {
		return err
	}

	nameFilter, err := resolveSelectors(ctx, metaDB, projectID, cfg, rootPath, cmd.Selectors)
	if err != nil {
		return err
	}

	report, err := orchestrator.Compile(ctx, rootPath, cfg, cfg.Analysis.SeverityOverrides, nameFilter)
	if err != nil {
		return err
	}

	for _, d := range report.Diagnostics {
		logDiagnostic(appCtx, d)
	}

	runNodes := cmd.resumePlan(cfg, report.Order)

	exec := orchestrator.SQLExecutor{DB: targetDB}

	hookExec := func(ctx context.Context, sql string) error {
		return exec.Execute(ctx, sql)
	}

	runReport, runErr := orchestrator.Run(ctx, rootPath, cfg, runNodes, cmd.Threads, cmd.FailFast, hookExec,
		func(ctx context.Context, name string, sql string) (*int64, error) {
			c := report.Compiled[name]
			c.FinalSQL = sql

			count, err := orchestrator.MaterializeModel(ctx, exec, cfg.Database.Name, c)
			if err != nil {
				appCtx.Log.Error().Str("model", name).Err(err).Msg("model execution failed")

				return nil, err
			}

			appCtx.Log.Info().Str("model", name).Msg("model materialized")

			return count, nil
		})
	if runErr != nil {
		appCtx.Log.Error().Err(runErr).Msg("run hooks failed")

		return withExitCode(runErr, 1)
	}

	statePath := filepath.Join(cfg.TargetPath, "state.json")
	if err := state.Save(statePath, runReport.State); err != nil {
		appCtx.Log.Warn().Err(err).Msg("failed to persist run-state file")
	}

	runID, err := orchestrator.PersistCompileReport(ctx, metaDB, projectID, "run", selectorLabel(cmd.Selectors), report)
	if err != nil {
		return err
	}

	failed := false

	for name, result := range runReport.Results {
		appCtx.Log.Info().Str("model", name).Str("status", string(result.Status)).Int64("duration_ms", result.DurationMs).Msg("model run finished")

		if result.Status == featherflow.RunStatusError {
			failed = true
		}
	}

	appCtx.Log.Debug().Int64("run_id", runID).Msg("run recorded")

	checkFreshness(ctx, appCtx, metaDB, targetDB, runID, cfg)

	if failed || len(report.CompileErrors()) > 0 {
		return withExitCode(fmt.Errorf("run failed"), 1)
	}

	return nil
}

func (cmd *RunCmd) resumePlan(cfg *featherflow.Config, allModels []string) []string {
	mode := state.ModeFull

	switch {
	case cmd.RetryFailed:
		mode = state.ModeRetryFailed
	case cmd.Resume:
		mode = state.ModeResume
	case cmd.FullRefresh:
		mode = state.ModeFull
	}

	if mode == state.ModeFull {
		return allModels
	}

	prior, err := state.Load(filepath.Join(cfg.TargetPath, "state.json"))
	if err != nil {
		return allModels
	}

	return state.ResumePlan(mode, prior, allModels)
}
