package cli

import (
	"context"
	"database/sql"
	"time"

	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/metadb"
	"github.com/datastx/Feather-Flow-sub003/orchestrator"
)

// checkFreshness runs every declared source-freshness threshold check
// after a run and records the results against runID. Failures here are
// logged, not fatal: a stale source is a warning/error signal, not a
// reason to fail the run that just materialized downstream models.
func checkFreshness(ctx context.Context, appCtx *Context, metaDB, targetDB *sql.DB, runID int64, cfg *featherflow.Config) {
	checks, err := orchestrator.CheckAllFreshness(ctx, targetDB, cfg.Database.Name, cfg, time.Now())
	if err != nil {
		appCtx.Log.Warn().Err(err).Msg("freshness check failed")
		return
	}

	for _, check := range checks {
		var loadedAt *string
		if check.LoadedAt != nil {
			ts := check.LoadedAt.Format(time.RFC3339)
			loadedAt = &ts
		}

		var age *float64
		if check.LoadedAt != nil {
			seconds := check.Age.Seconds()
			age = &seconds
		}

		result := metadb.FreshnessResult{
			SourceName: check.SourceName,
			TableName:  check.TableName,
			LoadedAt:   loadedAt,
			AgeSeconds: age,
			Status:     string(check.Status),
		}

		if err := metadb.InsertFreshnessResult(ctx, metaDB, runID, result); err != nil {
			appCtx.Log.Warn().Str("source", check.SourceName).Err(err).Msg("failed to record freshness result")
			continue
		}

		event := appCtx.Log.Info()

		switch check.Status {
		case orchestrator.FreshnessWarn:
			event = appCtx.Log.Warn()
		case orchestrator.FreshnessError:
			event = appCtx.Log.Error()
		}

		event.Str("source", check.SourceName).Str("status", string(check.Status)).Msg("freshness check")
	}
}
