package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mountfs/mount/block"
	"github.com/mountfs/mount/blockstore"
	"github.com/mountfs/mount/internal/dcontext"
	"github.com/mountfs/mount/mount"
	"github.com/mountfs/mount/workspace"
)

var (
	initRemote  string
	initToken   string
	initKeyPath string
)

func init() {
	InitCmd.Flags().StringVar(&initRemote, "remote", "", "base URL of the mount daemon (required)")
	InitCmd.Flags().StringVar(&initToken, "token", "", "bearer token for the remote")
	InitCmd.Flags().StringVar(&initKeyPath, "key-path", "", "path to request-signing key material")
	// nolint:errcheck
	InitCmd.MarkFlagRequired("remote")
}

// InitCmd creates a new workspace and a fresh mount on the remote, mirroring
// the original client's ops/init.rs: build an empty mount, push it, then
// advance the remote's root pointer from the default identifier.
var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "initialize a new workspace",
	Long:  "`init` creates a hidden state directory and a fresh mount on the remote.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := dcontext.Background()

		ws, err := workspace.Init(workspacePath, initRemote, initToken, initKeyPath)
		if err != nil {
			fail(err)
		}

		store := blockstore.New(ws.Config.RemoteURL, ws.Config.Token)
		m, err := mount.Init(ctx, store)
		if err != nil {
			fail(err)
		}
		if err := m.Push(ctx); err != nil {
			fail(err)
		}

		rootClient := workspace.NewRootClient(ws.Config.RemoteURL, ws.Config.Token)
		if err := rootClient.PushRoot(ctx, m.Root(), block.Default()); err != nil {
			fail(err)
		}

		ws.State = workspace.State{Root: m.Root(), Manifest: m.Manifest()}
		ws.PreviousRoot = m.Root()
		if err := ws.Save(); err != nil {
			fail(err)
		}

		fmt.Printf("initialized workspace at %s, root %s\n", workspacePath, m.Root())
	},
}
