// reelctl is the operator and developer CLI for the reelgauge platform.
package main

import (
	"os"

	"github.com/reelgauge/reelgauge/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
