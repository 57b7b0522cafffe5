package cli

// BuildCmd sequences run then test, per featherflow.yml's seed/source
// population already folded into compile/run. Its exit code is the
// max of the two phase exits.
type BuildCmd struct {
	Selectors []string `arg:"" optional:"" name:"selector" help:"Model selector expressions"`
	FailFast  bool     `help:"Stop dispatching new models after the first failure"`
	Threads   int      `help:"Maximum concurrent model executions" default:"4"`
}

// Run executes the build command.
func (cmd *BuildCmd) Run(appCtx *Context) error {
	runCmd := &RunCmd{Selectors: cmd.Selectors, FailFast: cmd.FailFast, Threads: cmd.Threads}
	runErr := runCmd.Run(appCtx)

	testCmd := &TestCmd{Selectors: cmd.Selectors, FailFast: cmd.FailFast}
	testErr := testCmd.Run(appCtx)

	runCode := ExitCodeOf(runErr)
	testCode := ExitCodeOf(testErr)

	if runCode >= testCode {
		return runErr
	}

	return testErr
}
