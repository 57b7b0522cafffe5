package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/datastx/Feather-Flow-sub003/metadb"
	"github.com/datastx/Feather-Flow-sub003/orchestrator"
)

// MacroCmd runs a named, parameterized SQL snippet outside the model
// DAG: a .sql file under one of macro_paths, with {{ key }}
// placeholders substituted from --set key=value pairs.
type MacroCmd struct {
	Name string   `arg:"" help:"Macro name (its file base name under macro_paths)"`
	Set  []string `help:"key=value pairs substituted into the macro's {{ key }} placeholders" short:"s"`
}

// Run executes the macro command.
func (cmd *MacroCmd) Run(appCtx *Context) error {
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

	sqlTemplate, err := findMacro(rootPath, cfg.MacroPaths, cmd.Name)
	if err != nil {
		return withExitCode(err, 4)
	}

	args, err := parseSetArgs(cmd.Set)
	if err != nil {
		return withExitCode(err, 4)
	}

	exec := orchestrator.SQLExecutor{DB: targetDB}

	if err := orchestrator.RunMacro(ctx, metaDB, projectID, exec, cmd.Name, sqlTemplate, args); err != nil {
		if errors.Is(err, orchestrator.ErrMacroFailed) {
			return withExitCode(err, 4)
		}

		return err
	}

	appCtx.Log.Info().Str("macro", cmd.Name).Msg("macro finished")

	return nil
}

func findMacro(rootPath string, macroPaths []string, name string) (string, error) {
	for _, dir := range macroPaths {
		path := filepath.Join(rootPath, dir, name+".sql")

		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), nil
		}

		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to read macro %s: %w", name, err)
		}
	}

	return "", fmt.Errorf("%w: macro %q not found in any macro_paths directory", orchestrator.ErrMacroFailed, name)
}

func parseSetArgs(pairs []string) (orchestrator.MacroArgs, error) {
	args := make(orchestrator.MacroArgs, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set value %q, expected key=value", pair)
		}

		args[key] = value
	}

	return args, nil
}
