package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	featherflow "github.com/datastx/Feather-Flow-sub003"
)

// InitCmd scaffolds a new project in the current directory: the
// standard model/seed/macro/test/function directories, plus a default
// featherflow.yml.
type InitCmd struct {
	Name string `arg:"" optional:"" help:"Project name" default:"my_project"`
}

// Run executes the init command.
func (cmd *InitCmd) Run(appCtx *Context) error {
	rootPath, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(rootPath, "featherflow.yml")
	if fileExists(configPath) {
		return fmt.Errorf("featherflow.yml already exists in %s", rootPath)
	}

	cfg := featherflow.DefaultConfig()
	cfg.Name = cmd.Name

	dirs := append([]string{}, cfg.ModelPaths...)
	dirs = append(dirs, cfg.SourcePaths...)
	dirs = append(dirs, cfg.MacroPaths...)
	dirs = append(dirs, cfg.TestPaths...)
	dirs = append(dirs, cfg.FunctionPaths...)

	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(rootPath, dir), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode featherflow.yml: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write featherflow.yml: %w", err)
	}

	appCtx.Log.Info().Str("name", cmd.Name).Msg("project initialized")

	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
