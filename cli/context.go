// Package cli implements the featherflow command-line dispatcher:
// project discovery through compile/run/test/build, plus meta-database
// and ancillary commands. Each command mirrors the semantics fixed by
// the core orchestrator package; this package only wires flags, I/O,
// and exit codes around it.
package cli

import (
	"os"

	"github.com/rs/zerolog"
)

// Context is the state shared by every subcommand, populated from the
// top-level CLI flags before Run is dispatched.
type Context struct {
	Config  string
	Target  string
	Verbose bool
	Quiet   bool
	Log     zerolog.Logger
}

// NewLogger builds the process-wide structured logger, its level set
// by the verbosity flags: --quiet drops to error-only, --verbose drops
// to debug, otherwise info.
func NewLogger(verbose, quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel

	switch {
	case quiet:
		level = zerolog.ErrorLevel
	case verbose:
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()
}
