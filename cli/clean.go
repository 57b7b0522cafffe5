package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub003"
)

// CleanCmd removes every directory listed in clean_targets, refusing
// any target that resolves outside the project root.
type CleanCmd struct{}

// Run executes the clean command.
func (cmd *CleanCmd) Run(appCtx *Context) error {
	cfg, rootPath, err := loadConfig(appCtx)
	if err != nil {
		return err
	}

	for _, target := range cfg.CleanTargets {
		full := filepath.Join(rootPath, target)

		rel, err := filepath.Rel(rootPath, full)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("%w: %s", featherflow.ErrPathOutsideProjectRoot, target)
		}

		if err := os.RemoveAll(full); err != nil {
			return fmt.Errorf("failed to remove %s: %w", target, err)
		}

		appCtx.Log.Info().Str("path", target).Msg("removed")
	}

	return nil
}
