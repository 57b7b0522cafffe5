package orchestrator

import (
	"context"
	"fmt"
)

// HookExecutor runs one on_run_start/on_run_end statement against the
// target database. It is the same shape as Executor.Execute, kept separate
// so a caller can point hooks at a different connection than model
// materialization if it ever needs to.
type HookExecutor func(ctx context.Context, sql string) error

// RunHooks executes each statement in order, stopping at the first
// failure and wrapping it with its position so a broken on_run_start
// entry is easy to find in featherflow.yml.
func RunHooks(ctx context.Context, stage string, statements []string, exec HookExecutor) error {
	for i, stmt := range statements {
		if err := exec(ctx, stmt); err != nil {
			return fmt.Errorf("%s[%d]: %w", stage, i, err)
		}
	}

	return nil
}
