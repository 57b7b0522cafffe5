package cli

import (
	"context"
	"fmt"

	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/metadb"
	"github.com/datastx/Feather-Flow-sub003/orchestrator"
	"github.com/datastx/Feather-Flow-sub003/testlib"
)

// TestCmd compiles the selected models, then compiles and runs every
// declared column-level generic test against their materialized
// tables.
type TestCmd struct {
	Selectors     []string `arg:"" optional:"" name:"selector" help:"Model selector expressions"`
	FailFast      bool     `help:"Stop after the first failing test"`
	StoreFailures bool     `help:"Persist failing rows (row count only, in this build)"`
}

// Run executes the test command.
func (cmd *TestCmd) Run(appCtx *Context) error {
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

	runID, err := orchestrator.PersistCompileReport(ctx, metaDB, projectID, "test", selectorLabel(cmd.Selectors), report)
	if err != nil {
		return err
	}

	resolveRelation := func(modelName string) (string, error) {
		if _, ok := report.Compiled[modelName]; !ok {
			return "", fmt.Errorf("relationships test references unknown model %q", modelName)
		}

		return qualifiedTableName(cfg, modelName), nil
	}

	allPassed := true

	for _, name := range report.Order {
		compiled, ok := report.Compiled[name]
		if !ok || compiled.Err != nil {
			continue
		}

		schema, hasSchema := cfg.Schema[name]
		if !hasSchema {
			continue
		}

		compiledTests, err := testlib.Compile(name, qualifiedTableName(cfg, name), schema.Columns, resolveRelation)
		if err != nil {
			return err
		}

		if len(compiledTests) == 0 {
			continue
		}

		results, err := testlib.RunAll(ctx, targetDB, compiledTests, cmd.FailFast)
		if err != nil {
			return err
		}

		var modelID int64
		_ = metaDB.QueryRowContext(ctx,
			`SELECT model_id FROM models WHERE project_id = ? AND name = ? ORDER BY model_id DESC LIMIT 1`,
			projectID, name).Scan(&modelID)

		for _, result := range results {
			testID, err := metadb.PopulateGenericTest(ctx, metaDB, projectID, modelID, result.Test)
			if err != nil {
				appCtx.Log.Warn().Err(err).Str("test", result.Test.Name).Msg("failed to record generic test definition")
				continue
			}

			if err := metadb.RecordTestRun(ctx, metaDB, runID, testID, result); err != nil {
				appCtx.Log.Warn().Err(err).Str("test", result.Test.Name).Msg("failed to record generic test run")
			}

			level := appCtx.Log.Info()
			if !result.Passed {
				level = appCtx.Log.Error()
				allPassed = false
			}

			level.Str("test", result.Test.Name).Str("model", name).Int64("failing_rows", result.FailingRows).Msg("test finished")

			if cmd.FailFast && !result.Passed {
				break
			}
		}

		if cmd.FailFast && !allPassed {
			break
		}
	}

	if !allPassed {
		return withExitCode(fmt.Errorf("test failures"), 2)
	}

	return nil
}

func qualifiedTableName(cfg *featherflow.Config, modelName string) string {
	if cfg.Database.Name == "" {
		return modelName
	}

	return cfg.Database.Name + "__" + modelName
}
