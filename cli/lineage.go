package cli

import (
	"context"
	"fmt"

	"github.com/datastx/Feather-Flow-sub003/lineage"
)

// LineageCmd compiles the selected models and prints their column-level
// lineage edges.
type LineageCmd struct {
	Selectors []string `arg:"" optional:"" name:"selector" help:"Model selector expressions"`
}

// Run executes the lineage command.
func (cmd *LineageCmd) Run(appCtx *Context) error {
	ctx := context.Background()

	report, err := runCompile(ctx, appCtx, cmd.Selectors)
	if err != nil {
		return err
	}

	for _, name := range report.Order {
		compiled, ok := report.Compiled[name]
		if !ok || compiled.Plan == nil {
			continue
		}

		for _, edge := range lineage.Extract(compiled.Plan) {
			if edge.TargetColumn == "" {
				fmt.Printf("%s <- inspects %s.%s\n", name, edge.SourceTable, edge.SourceColumn)
				continue
			}

			fmt.Printf("%s.%s <- %s.%s (%s)\n", name, edge.TargetColumn, edge.SourceTable, edge.SourceColumn, edge.Kind)
		}
	}

	return nil
}
