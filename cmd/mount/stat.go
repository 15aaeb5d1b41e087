package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mountfs/mount/workspace"
)

var statVerbose bool

func init() {
	StatCmd.Flags().BoolVarP(&statVerbose, "verbose", "v", false, "also print each root's codec and hash function")
}

// StatCmd prints the workspace's pending change log, grounded on the
// original client's ops/stat.rs: every non-Base entry, or a message if
// there is nothing pending.
var StatCmd = &cobra.Command{
	Use:   "stat",
	Short: "show pending local changes",
	Long:  "`stat` prints the workspace's pending, not-yet-pushed changes.",
	Run: func(cmd *cobra.Command, args []string) {
		ws, err := workspace.Open(workspacePath)
		if err != nil {
			fail(err)
		}

		fmt.Printf("root:     %s\n", ws.State.Root)
		fmt.Printf("previous: %s\n", ws.PreviousRoot)
		if statVerbose {
			fmt.Printf("root:     %s\n", ws.State.Root.Describe())
			fmt.Printf("previous: %s\n", ws.PreviousRoot.Describe())
		}

		if !ws.ChangeLog.HasChanges() {
			fmt.Println("no changes")
			return
		}

		for _, path := range ws.ChangeLog.SortedPaths() {
			entry := ws.ChangeLog[path]
			if entry.Kind == workspace.ChangeBase {
				continue
			}
			fmt.Printf("%s: %s\n", path, entry.Kind)
		}
	},
}
