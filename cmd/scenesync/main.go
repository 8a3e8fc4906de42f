// Command scenesync joins a scene synchronization session from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/scenesync/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
