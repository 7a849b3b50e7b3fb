// Command sqlsplitter operates on SQL dump files: splitting, merging,
// sampling, sharding, converting, redacting, diffing, and inspecting them
// without ever connecting to a live database.
package main

import (
	"fmt"
	"os"

	"github.com/sqlsplitter/sqlsplitter/internal/cliutil"
)

func main() {
	root := newRootCommand()
	err := root.Execute()
	code := cliutil.ExitCode(err)
	if err != nil && code != cliutil.ExitSuccess {
		fmt.Fprintln(os.Stderr, "sqlsplitter:", err)
	}
	os.Exit(code)
}
