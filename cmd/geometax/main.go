// Command geometax is the command-line interface: local batch extraction,
// job submission, annotation lookup, reference data management, and schema
// migrations.
package main

import (
	"os"

	"github.com/turtacn/geometax/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
