package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/datastx/Feather-Flow-sub003/cli"
)

func main() {
	kongCtx := kong.Parse(&cli.CLI,
		kong.Name("featherflow"),
		kong.Description("SQL transformation build tool"),
		kong.UsageOnError(),
	)

	appCtx := cli.NewContext()

	err := kongCtx.Run(appCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCodeOf(err))
	}
}
