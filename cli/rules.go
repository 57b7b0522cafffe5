package cli

import (
	"context"
	"fmt"

	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/metadb"
)

// RulesCmd discovers and runs every custom SQL-query rule declared
// under rules.paths, recording violations against a new "rules" run.
type RulesCmd struct{}

// Run executes the rules command.
func (cmd *RulesCmd) Run(appCtx *Context) error {
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

	runID, err := metadb.BeginRun(ctx, metaDB, projectID, "rules", "*")
	if err != nil {
		return err
	}

	defaultSeverity := cfg.Rules.Severity
	if defaultSeverity == "" {
		defaultSeverity = string(featherflow.SeverityWarning)
	}

	var rules []metadb.Rule

	for _, dir := range cfg.Rules.Paths {
		found, err := metadb.DiscoverRules(dir, defaultSeverity)
		if err != nil {
			return err
		}

		rules = append(rules, found...)
	}

	errorCount := 0

	for _, rule := range rules {
		violations, err := metadb.RunRule(ctx, targetDB, rule)
		if err != nil {
			appCtx.Log.Error().Str("rule", rule.Name).Err(err).Msg("rule failed")
			errorCount++

			continue
		}

		severity := rule.Severity
		if cfg.Rules.SeverityExpr != "" {
			if evaluated, err := metadb.EvaluateSeverityExpr(cfg.Rules.SeverityExpr, rule.Name, len(violations)); err == nil {
				severity = evaluated
			} else {
				appCtx.Log.Warn().Str("rule", rule.Name).Err(err).Msg("severity expression failed, using declared severity")
			}
		}

		for _, v := range violations {
			v.Severity = severity

			if err := metadb.InsertRuleViolation(ctx, metaDB, runID, v); err != nil {
				appCtx.Log.Warn().Str("rule", rule.Name).Err(err).Msg("failed to record rule violation")
			}

			level := appCtx.Log.Warn()
			if severity == string(featherflow.SeverityError) {
				level = appCtx.Log.Error()
				errorCount++
			}

			level.Str("rule", rule.Name).Str("entity", v.EntityName).Msg(v.Message)
		}
	}

	status := featherflow.RunStatusSuccess
	if errorCount > 0 {
		status = featherflow.RunStatusError
	}

	if err := metadb.CompletePopulation(ctx, metaDB, runID, status); err != nil {
		return err
	}

	if errorCount > 0 && cfg.Rules.OnFailure != "warn" {
		return withExitCode(fmt.Errorf("%d rule violation(s) at error severity", errorCount), 1)
	}

	return nil
}
