// netlens CLI - capture proxy and live view for application network traffic.
package main

import (
	"fmt"
	"os"

	"github.com/netlens/netlens/pkg/cli"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	if err := cli.Execute(Version); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
