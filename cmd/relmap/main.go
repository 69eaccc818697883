// Command relmap compiles object queries over a YAML type model into SQL.
package main

import (
	"fmt"
	"os"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/relmap/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "relmap:", err)
		os.Exit(1)
	}
}
