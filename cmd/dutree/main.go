// Command dutree shows where disk space goes.
package main

import (
	"os"

	"github.com/idelchi/dutree/internal/cli"
)

// Set by the build.
var version = "unknown - unofficial & generated by unknown"

func main() {
	if err := cli.New(version).Execute(); err != nil {
		os.Exit(1)
	}
}
