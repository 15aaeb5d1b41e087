// Command mount is the client for a workspace tracked against a mount
// daemon (§6.3, §6.4): init, add, pull, push and stat against a hidden
// state directory inside the current working directory.
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
