// Command rrrw copies files and block devices chunk by chunk, syncing every
// chunk before it is counted.
package main

import (
	"os"

	"github.com/lucrnz/rrrw/internal/cli"
)

func main() {
	// Interrupts are not intercepted: a killed copy leaves the destination
	// with every chunk reported so far and possibly part of the next one.
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
