// Command scrawl opens a drawing overlay in the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/tessro/scrawl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "✏️  Error: %v\n", err)
		os.Exit(1)
	}
}
