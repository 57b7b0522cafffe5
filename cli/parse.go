package cli

import (
	"fmt"
	"os"

	"github.com/datastx/Feather-Flow-sub003/dialectparser"
)

// ParseCmd parses a single SQL file and prints a summary of its
// statements, without resolving it against the project catalog.
type ParseCmd struct {
	File string `arg:"" help:"Path to a .sql file"`
}

// Run executes the parse command.
func (cmd *ParseCmd) Run(appCtx *Context) error {
	raw, err := os.ReadFile(cmd.File)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cmd.File, err)
	}

	stmts, err := dialectparser.Parse(string(raw))
	if err != nil {
		return withExitCode(fmt.Errorf("parse failed: %w", err), 1)
	}

	for i, stmt := range stmts {
		switch s := stmt.(type) {
		case *dialectparser.SelectStatement:
			fmt.Printf("statement %d: select, %d CTE(s)\n", i, len(s.CTEs))
		default:
			fmt.Printf("statement %d: %T\n", i, stmt)
		}
	}

	return nil
}
