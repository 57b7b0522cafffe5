package cli

import (
	"context"
	"database/sql"
	"fmt"

	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/analysis"
	"github.com/datastx/Feather-Flow-sub003/metadb"
	"github.com/datastx/Feather-Flow-sub003/orchestrator"
	"github.com/datastx/Feather-Flow-sub003/project"
	"github.com/datastx/Feather-Flow-sub003/selector"
)

// CompileCmd renders, parses, qualifies, plans, and populates the meta
// database for the selected models, without executing anything.
type CompileCmd struct {
	Selectors []string `arg:"" optional:"" name:"selector" help:"Model selector expressions"`
}

// Run executes the compile command.
func (cmd *CompileCmd) Run(appCtx *Context) error {
	_, err := runCompile(context.Background(), appCtx, cmd.Selectors)
	return err
}

// runCompile is the shared implementation behind compile/run/analyze/build.
func runCompile(ctx context.Context, appCtx *Context, selectors []string) (*orchestrator.CompileReport, error) {
	cfg, rootPath, err := loadConfig(appCtx)
	if err != nil {
		return nil, err
	}

	metaDB, err := openMeta(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer metaDB.Close()

	projectID, err := metadb.EnsureProject(ctx, metaDB, cfg, rootPath)
	if err != nil {
		return nil, err
	}

	nameFilter, err := resolveSelectors(ctx, metaDB, projectID, cfg, rootPath, selectors)
	if err != nil {
		return nil, err
	}

	report, err := orchestrator.Compile(ctx, rootPath, cfg, cfg.Analysis.SeverityOverrides, nameFilter)
	if err != nil {
		return nil, err
	}

	appCtx.Log.Info().Int("models", len(report.Order)).Int("diagnostics", len(report.Diagnostics)).Msg("compiled project")

	if err := metadb.PopulateExposures(ctx, metaDB, projectID, toExposureRecords(report.Project.Exposures)); err != nil {
		appCtx.Log.Warn().Err(err).Msg("failed to record exposures")
	}

	runID, err := orchestrator.PersistCompileReport(ctx, metaDB, projectID, "compile", selectorLabel(selectors), report)
	if err != nil {
		return report, err
	}

	appCtx.Log.Debug().Int64("run_id", runID).Msg("compile run recorded")

	for _, d := range report.Diagnostics {
		logDiagnostic(appCtx, d)
	}

	for name, cerr := range report.CompileErrors() {
		appCtx.Log.Error().Str("model", name).Err(cerr).Msg("model failed to compile")
	}

	if len(report.CompileErrors()) > 0 || report.HasErrorDiagnostics() {
		return report, withExitCode(fmt.Errorf("compile failed"), 1)
	}

	return report, nil
}

func toExposureRecords(exposures []project.Exposure) []metadb.ExposureRecord {
	out := make([]metadb.ExposureRecord, 0, len(exposures))

	for _, e := range exposures {
		out = append(out, metadb.ExposureRecord{
			Name:      e.Name,
			Type:      e.Type,
			Owner:     e.Owner,
			Maturity:  e.Maturity,
			DependsOn: e.DependsOn,
		})
	}

	return out
}

func logDiagnostic(appCtx *Context, d analysis.Diagnostic) {
	event := appCtx.Log.Info()

	switch d.Severity {
	case featherflow.SeverityError:
		event = appCtx.Log.Error()
	case featherflow.SeverityWarning:
		event = appCtx.Log.Warn()
	}

	event.Str("code", d.Code).Str("model", d.Model).Str("column", d.Column).Msg(d.Message)
}

func selectorLabel(selectors []string) string {
	if len(selectors) == 0 {
		return "*"
	}

	out := selectors[0]
	for _, s := range selectors[1:] {
		out += " " + s
	}

	return out
}

// resolveSelectors evaluates selector expressions against the
// discovered project and the meta database's prior-run manifest,
// returning the matched model-name set, or nil (meaning "every model")
// when no selectors were given.
func resolveSelectors(ctx context.Context, metaDB *sql.DB, projectID int64, cfg *featherflow.Config, rootPath string, selectors []string) (map[string]bool, error) {
	if len(selectors) == 0 {
		return nil, nil
	}

	proj, err := project.Discover(rootPath, cfg)
	if err != nil {
		return nil, err
	}

	graph, err := orchestrator.BuildGraph(proj.Models)
	if err != nil {
		return nil, err
	}

	index := orchestrator.BuildSelectorIndex(proj.Models)
	exposures := orchestrator.BuildExposureIndex(proj.Exposures)

	manifest, err := metadb.LoadManifest(ctx, metaDB, projectID)
	if err != nil {
		return nil, err
	}

	matched, err := selector.Select(graph, index, manifest, exposures, selectors)
	if err != nil {
		return nil, err
	}

	out := make(map[string]bool, len(matched))
	for _, name := range matched {
		out[name] = true
	}

	return out, nil
}
