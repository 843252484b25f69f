// Command repoup shows the commits waiting upstream of a source install
// and pulls, rebuilds and relaunches it on request.
package main

import (
	"fmt"
	"os"

	"repoup/internal/debug"
)

func main() {
	code := execute(defaultDeps(), os.Args[1:])
	debug.Close()
	os.Exit(code)
}

func execute(d deps, args []string) int {
	root := newRootCmd(d)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		if !isSilent(err) {
			fmt.Fprintf(d.stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}
