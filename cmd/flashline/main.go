// Command flashline is the CLI client for a flashlined instance. It submits
// messages, follows the live event stream, inspects buffered history, and
// triggers exports over the daemon's HTTP API.
package main

import (
	"fmt"
	"os"
)

// Populated at build time via -ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "flashline: %v\n", err)
		os.Exit(1)
	}
}
