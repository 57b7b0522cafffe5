package cli

import "context"

// AnalyzeCmd runs discovery, render, qualify, plan, and every analysis
// pass without executing any model. It is an alias for validate.
type AnalyzeCmd struct {
	Selectors []string `arg:"" optional:"" name:"selector" help:"Model selector expressions"`
}

// Run executes the analyze command.
func (cmd *AnalyzeCmd) Run(appCtx *Context) error {
	_, err := runCompile(context.Background(), appCtx, cmd.Selectors)
	return err
}

// ValidateCmd is analyze under its other name.
type ValidateCmd struct {
	Selectors []string `arg:"" optional:"" name:"selector" help:"Model selector expressions"`
}

// Run executes the validate command.
func (cmd *ValidateCmd) Run(appCtx *Context) error {
	_, err := runCompile(context.Background(), appCtx, cmd.Selectors)
	return err
}
