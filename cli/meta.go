package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/datastx/Feather-Flow-sub003/metadb"
)

// MetaCmd groups the ad hoc inspection commands for the embedded meta
// database.
type MetaCmd struct {
	Query  MetaQueryCmd  `cmd:"" help:"Run a read-only SQL query against the meta database"`
	Tables MetaTablesCmd `cmd:"" help:"List meta database tables"`
	Export MetaExportCmd `cmd:"" help:"Export every meta database table as JSON"`
}

// MetaQueryCmd runs an arbitrary SQL statement and prints its rows.
type MetaQueryCmd struct {
	SQL string `arg:"" help:"SQL statement to run"`
}

// Run executes the meta query command.
func (cmd *MetaQueryCmd) Run(appCtx *Context) error {
	ctx := context.Background()

	cfg, _, err := loadConfig(appCtx)
	if err != nil {
		return err
	}

	metaDB, err := openMeta(ctx, cfg)
	if err != nil {
		return err
	}
	defer metaDB.Close()

	rows, err := metadb.Query(ctx, metaDB, cmd.SQL)
	if err != nil {
		return withExitCode(err, 1)
	}

	return printJSON(rows)
}

// MetaTablesCmd lists every table in the meta database.
type MetaTablesCmd struct{}

// Run executes the meta tables command.
func (cmd *MetaTablesCmd) Run(appCtx *Context) error {
	ctx := context.Background()

	cfg, _, err := loadConfig(appCtx)
	if err != nil {
		return err
	}

	metaDB, err := openMeta(ctx, cfg)
	if err != nil {
		return err
	}
	defer metaDB.Close()

	names, err := metadb.Tables(ctx, metaDB)
	if err != nil {
		return withExitCode(err, 1)
	}

	for _, name := range names {
		fmt.Println(name)
	}

	return nil
}

// MetaExportCmd dumps every table in the meta database as JSON, to
// stdout or to a file.
type MetaExportCmd struct {
	Output string `short:"o" help:"Write to this path instead of stdout"`
}

// Run executes the meta export command.
func (cmd *MetaExportCmd) Run(appCtx *Context) error {
	ctx := context.Background()

	cfg, _, err := loadConfig(appCtx)
	if err != nil {
		return err
	}

	metaDB, err := openMeta(ctx, cfg)
	if err != nil {
		return err
	}
	defer metaDB.Close()

	dump, err := metadb.Export(ctx, metaDB)
	if err != nil {
		return withExitCode(err, 1)
	}

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode meta export: %w", err)
	}

	if cmd.Output == "" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(cmd.Output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", cmd.Output, err)
	}

	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	fmt.Println(string(data))

	return nil
}
