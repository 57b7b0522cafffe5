package cli

// CLI is the top-level command-line interface parsed by kong.
var CLI struct {
	Config  string `help:"Configuration file path" default:"featherflow.yml"`
	Target  string `help:"Named target to run against, overriding the default database"`
	Verbose bool   `help:"Enable verbose output" short:"v"`
	Quiet   bool   `help:"Suppress non-error output" short:"q"`

	Init     InitCmd     `cmd:"" help:"Scaffold a new project"`
	Compile  CompileCmd  `cmd:"" help:"Render, parse, qualify, and plan the selected models"`
	Run      RunCmd      `cmd:"" help:"Compile and execute the selected models"`
	Test     TestCmd     `cmd:"" help:"Run declared generic tests against materialized models"`
	Build    BuildCmd    `cmd:"" help:"Run then test; exit code is the max of the two"`
	Analyze  AnalyzeCmd  `cmd:"" help:"Run the analysis pipeline without executing anything"`
	Validate ValidateCmd `cmd:"" help:"Alias for analyze"`
	Lineage  LineageCmd  `cmd:"" help:"Print column-level lineage for the selected models"`
	Meta     MetaCmd     `cmd:"" help:"Inspect the embedded meta database"`
	Ls       LsCmd       `cmd:"" help:"List discovered models"`
	Parse    ParseCmd    `cmd:"" help:"Parse a single SQL file"`
	Fmt      FmtCmd      `cmd:"" help:"Format model SQL files"`
	Clean    CleanCmd    `cmd:"" help:"Remove clean_targets directories"`
	Rules    RulesCmd    `cmd:"" help:"Run custom SQL-query rules against the target database"`
	Macro    MacroCmd    `cmd:"" help:"Run a named operational macro outside the model DAG"`
}

// NewContext builds the shared application Context from the parsed
// global flags.
func NewContext() *Context {
	return &Context{
		Config:  CLI.Config,
		Target:  CLI.Target,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
		Log:     NewLogger(CLI.Verbose, CLI.Quiet),
	}
}
