// Command mountd runs the mount daemon: it serves the HTTP surface (§6.2)
// backed by a remote block store and root-pointer coordinator. Bootstrap
// follows the teacher's cmd/registry/main.go cobra Execute()-from-main
// pattern.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
