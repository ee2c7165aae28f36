package main

import (
	"fmt"
	"os"

	errUtils "github.com/sripwoud/cza/errors"
	"github.com/sripwoud/cza/internal/cli"
)

// version, commit, and date are set via ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := cli.Execute(version, commit, date); err != nil {
		fmt.Fprintln(os.Stderr, errUtils.Format(err, cli.ColorEnabled()))
		os.Exit(errUtils.GetExitCode(err))
	}
}
