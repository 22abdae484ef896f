// Command registryctl talks to a model version registry server.
package main

import (
	"fmt"
	"os"

	"model-version-registry/internal/cli"
)

// Build information injected via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	cli.SetVersion(fmt.Sprintf("%s (commit: %s)", version, commit))
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
