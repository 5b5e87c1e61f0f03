// Command quench plans slow quench simulation workflows.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/quench/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
