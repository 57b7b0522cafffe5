package cli

import (
	"context"
	"fmt"

	"github.com/datastx/Feather-Flow-sub003/metadb"
	"github.com/datastx/Feather-Flow-sub003/orchestrator"
	"github.com/datastx/Feather-Flow-sub003/project"
)

// LsCmd lists discovered models, applying selector expressions when
// given, without compiling anything.
type LsCmd struct {
	Selectors []string `arg:"" optional:"" name:"selector" help:"Model selector expressions"`
}

// Run executes the ls command.
func (cmd *LsCmd) Run(appCtx *Context) error {
	ctx := context.Background()

	cfg, rootPath, err := loadConfig(appCtx)
	if err != nil {
		return err
	}

	proj, err := project.Discover(rootPath, cfg)
	if err != nil {
		return err
	}

	graph, err := orchestrator.BuildGraph(proj.Models)
	if err != nil {
		return err
	}

	names := graph.TopologicalOrder()

	var matched map[string]bool

	if len(cmd.Selectors) > 0 {
		metaDB, err := openMeta(ctx, cfg)
		if err != nil {
			return err
		}
		defer metaDB.Close()

		projectID, err := metadb.EnsureProject(ctx, metaDB, cfg, rootPath)
		if err != nil {
			return err
		}

		matched, err = resolveSelectors(ctx, metaDB, projectID, cfg, rootPath, cmd.Selectors)
		if err != nil {
			return err
		}
	}

	byName := make(map[string]project.Model, len(proj.Models))
	for _, m := range proj.Models {
		byName[string(m.Name)] = m
	}

	for _, name := range names {
		if matched != nil && !matched[name] {
			continue
		}

		m := byName[name]
		fmt.Printf("%s\t%s\t%s\n", name, m.Kind, m.Materialization)
	}

	return nil
}
