package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mountfs/mount/blockstore"
	"github.com/mountfs/mount/internal/dcontext"
	"github.com/mountfs/mount/mount"
	"github.com/mountfs/mount/workspace"
)

// PushCmd advances the remote's root pointer to the workspace's locally
// staged root, mirroring the original client's ops/push.rs: no-op if
// nothing has changed since the last push, otherwise call the root-sync
// endpoint and collapse the change log (Removed entries drop out entirely,
// everything else resets to Base).
var PushCmd = &cobra.Command{
	Use:   "push",
	Short: "push the workspace's staged root to the remote",
	Long:  "`push` advances the remote's root pointer to the workspace's locally staged root.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := dcontext.Background()

		ws, err := workspace.Open(workspacePath)
		if err != nil {
			fail(err)
		}

		if ws.State.Root.Equal(ws.PreviousRoot) {
			fmt.Println("no changes to push")
			return
		}

		store := blockstore.New(ws.Config.RemoteURL, ws.Config.Token)
		m, err := mount.Pull(ctx, ws.State.Root, store)
		if err != nil {
			fail(err)
		}

		if err := m.SetPrevious(ctx, ws.PreviousRoot); err != nil {
			fail(err)
		}
		if err := m.Push(ctx); err != nil {
			fail(err)
		}

		rootClient := workspace.NewRootClient(ws.Config.RemoteURL, ws.Config.Token)
		if err := rootClient.PushRoot(ctx, m.Root(), ws.PreviousRoot); err != nil {
			fail(err)
		}

		collapsed := workspace.NewChangeLog()
		for path, entry := range ws.ChangeLog {
			if entry.Kind == workspace.ChangeRemoved {
				continue
			}
			collapsed[path] = workspace.Entry{Hash: entry.Hash, Kind: workspace.ChangeBase}
		}

		ws.PreviousRoot = m.Root()
		ws.State = workspace.State{Root: m.Root(), Manifest: m.Manifest()}
		ws.ChangeLog = collapsed
		if err := ws.Save(); err != nil {
			fail(err)
		}

		fmt.Printf("pushed %s\n", m.Root())
	},
}
