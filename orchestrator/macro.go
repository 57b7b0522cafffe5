package orchestrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub003"
	"github.com/datastx/Feather-Flow-sub003/metadb"
)

// MacroArgs maps a macro's named parameters to their rendered values.
type MacroArgs = map[string]string

// ErrMacroFailed wraps any error raised while running a macro or
// operation outside the model DAG, so callers (the CLI's exit-code
// mapping) can recognize it distinctly from a model-run failure.
var ErrMacroFailed = errors.New("macro failed")

// RunMacro replaces each {{ name }} placeholder in sqlTemplate with
// args[name], executes the result against the target, and records the
// attempt as its own compilation_runs row (run_type="macro") so it
// shows up in run history alongside normal compiles and runs.
func RunMacro(ctx context.Context, metaDB *sql.DB, projectID int64, exec Executor, name, sqlTemplate string, args MacroArgs) error {
	runID, err := metadb.BeginRun(ctx, metaDB, projectID, "macro", name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMacroFailed, err)
	}

	rendered := sqlTemplate
	for k, v := range args {
		rendered = strings.ReplaceAll(rendered, "{{ "+k+" }}", v)
	}

	runErr := exec.Execute(ctx, rendered)

	status := featherflow.RunStatusSuccess
	if runErr != nil {
		status = featherflow.RunStatusError
	}

	if err := metadb.CompletePopulation(ctx, metaDB, runID, status); err != nil {
		return fmt.Errorf("%w: %v", ErrMacroFailed, err)
	}

	if runErr != nil {
		return fmt.Errorf("%w: macro %s: %v", ErrMacroFailed, name, runErr)
	}

	return nil
}
