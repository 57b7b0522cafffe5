package orchestrator

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	featherflow "github.com/datastx/Feather-Flow-sub003"
)

// FreshnessStatus is the outcome of comparing a source's most recent
// loaded_at value against its configured thresholds.
type FreshnessStatus string

const (
	FreshnessPass  FreshnessStatus = "pass"
	FreshnessWarn  FreshnessStatus = "warn"
	FreshnessError FreshnessStatus = "error"
)

// FreshnessCheck is one external table's freshness check result.
type FreshnessCheck struct {
	SourceName string
	TableName  string
	LoadedAt   *time.Time
	Age        time.Duration
	Status     FreshnessStatus
}

// CheckSourceFreshness reads MAX(loaded_at_field) from schema.table on
// db and compares its age against cfg's warn/error thresholds, both
// parsed as Go durations (e.g. "24h", "2h30m"). A table with no rows,
// or a null loaded_at column, reports FreshnessError: freshness can't
// be established from an empty source.
func CheckSourceFreshness(ctx context.Context, db *sql.DB, schema, sourceName, tableName string, cfg featherflow.FreshnessConfig, now time.Time) (FreshnessCheck, error) {
	name := qualify(schema, tableName)

	var loadedAt sql.NullTime

	query := fmt.Sprintf(`SELECT MAX(%s) FROM %s`, cfg.LoadedAtField, name)

	if err := db.QueryRowContext(ctx, query).Scan(&loadedAt); err != nil {
		return FreshnessCheck{}, fmt.Errorf("freshness check for %s failed: %w", sourceName, err)
	}

	check := FreshnessCheck{SourceName: sourceName, TableName: tableName}

	if !loadedAt.Valid {
		check.Status = FreshnessError

		return check, nil
	}

	loaded := loadedAt.Time
	check.LoadedAt = &loaded
	check.Age = now.Sub(loaded)

	errAfter, err := time.ParseDuration(cfg.ErrorAfter)
	if err != nil && cfg.ErrorAfter != "" {
		return FreshnessCheck{}, fmt.Errorf("freshness error_after %q for %s: %w", cfg.ErrorAfter, sourceName, err)
	}

	warnAfter, err := time.ParseDuration(cfg.WarnAfter)
	if err != nil && cfg.WarnAfter != "" {
		return FreshnessCheck{}, fmt.Errorf("freshness warn_after %q for %s: %w", cfg.WarnAfter, sourceName, err)
	}

	switch {
	case cfg.ErrorAfter != "" && check.Age > errAfter:
		check.Status = FreshnessError
	case cfg.WarnAfter != "" && check.Age > warnAfter:
		check.Status = FreshnessWarn
	default:
		check.Status = FreshnessPass
	}

	return check, nil
}

// CheckAllFreshness runs CheckSourceFreshness for every external table
// in cfg that declares a Freshness block.
func CheckAllFreshness(ctx context.Context, db *sql.DB, schema string, cfg *featherflow.Config, now time.Time) ([]FreshnessCheck, error) {
	var results []FreshnessCheck

	for name, table := range cfg.ExternalTables {
		if table.Freshness == nil {
			continue
		}

		check, err := CheckSourceFreshness(ctx, db, schema, name, name, *table.Freshness, now)
		if err != nil {
			return nil, err
		}

		results = append(results, check)
	}

	return results, nil
}
