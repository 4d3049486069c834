// Command pollwatch reports added and modified files by periodic polling.
package main

import (
	"fmt"
	"os"

	"github.com/raoulx24/pollwatch/cmd/pollwatch/cmd"
)

// Version information (set by ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cmd.SetVersionInfo(Version, BuildTime, GitCommit)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
