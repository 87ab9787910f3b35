// Command guru answers questions about a folder of documents.
package main

import (
	"os"

	"github.com/custodia-labs/guru-cli/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBuilder(Build)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
