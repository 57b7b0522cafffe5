package cli

import "fmt"

// FmtCmd formats model SQL files. Not implemented in this build: SQL
// layout rules are out of scope, but the command is registered so
// `featherflow fmt` fails informatively rather than with "unknown
// command".
type FmtCmd struct {
	Selectors []string `arg:"" optional:"" name:"selector" help:"Model selector expressions"`
	Check     bool     `help:"Exit non-zero if any file would be reformatted, without writing"`
}

// Run executes the fmt command.
func (cmd *FmtCmd) Run(appCtx *Context) error {
	return fmt.Errorf("fmt is not implemented in this build")
}
