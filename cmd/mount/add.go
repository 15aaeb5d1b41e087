package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mountfs/mount/blockstore"
	"github.com/mountfs/mount/internal/dcontext"
	"github.com/mountfs/mount/mount"
	"github.com/mountfs/mount/workspace"
)

// AddCmd diffs the working directory against the change log and folds every
// pending change into the mount, mirroring the original client's
// ops/add.rs: diff, apply each pending entry (Added or re-Modified get
// mount.Add, Modified gets mount.Add, Removed gets mount.Rm), push the
// resulting blocks to the store, and persist the updated state. The change
// log itself keeps its Added/Modified/Removed tags — only push collapses
// them to Base.
var AddCmd = &cobra.Command{
	Use:   "add",
	Short: "stage local changes into the mount",
	Long:  "`add` diffs the working directory and folds pending changes into the mount.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := dcontext.Background()

		ws, err := workspace.Open(workspacePath)
		if err != nil {
			fail(err)
		}

		updated, err := workspace.Diff(workspacePath, ws.ChangeLog)
		if err != nil {
			fail(err)
		}

		store := blockstore.New(ws.Config.RemoteURL, ws.Config.Token)
		m, err := mount.Pull(ctx, ws.State.Root, store)
		if err != nil {
			fail(err)
		}
		startRoot := m.Root()

		for _, rel := range updated.SortedPaths() {
			entry := updated[rel]
			if err := applyEntry(ctx, m, workspacePath, rel, &entry); err != nil {
				fail(err)
			}
			updated[rel] = entry
		}

		if m.Root().Equal(startRoot) {
			fmt.Println("no changes to add")
			return
		}

		if err := m.Push(ctx); err != nil {
			fail(err)
		}

		ws.State = workspace.State{Root: m.Root(), Manifest: m.Manifest()}
		ws.ChangeLog = updated
		if err := ws.Save(); err != nil {
			fail(err)
		}

		fmt.Printf("added, new root %s\n", m.Root())
	},
}

// applyEntry folds one pending change-log entry into m, mutating entry in
// place to mark it processed. Unpending entries (Base, already-processed
// Added/Modified/Removed) are left untouched.
func applyEntry(ctx context.Context, m *mount.Mount, root, rel string, entry *workspace.Entry) error {
	mountPath := "/" + rel

	switch entry.Kind {
	case workspace.ChangeAdded:
		if !entry.Modified {
			return nil
		}
		if err := applyFile(ctx, m, root, rel, mountPath); err != nil {
			return err
		}
		entry.Modified = false

	case workspace.ChangeModified:
		if entry.Processed {
			return nil
		}
		if err := applyFile(ctx, m, root, rel, mountPath); err != nil {
			return err
		}
		entry.Processed = true

	case workspace.ChangeRemoved:
		if entry.Processed {
			return nil
		}
		// Convention files (.schema, .obj/.<name>.json) were never added to
		// the mount as data entries in their own right, so there is nothing
		// to unlink; removing one simply stops tracking it.
		_, isSchema := workspace.IsSchemaFile(rel)
		_, isObject := workspace.IsObjectFile(rel)
		if !isSchema && !isObject {
			if err := m.Rm(ctx, mountPath); err != nil {
				return err
			}
		}
		entry.Processed = true
	}
	return nil
}

// applyFile dispatches a changed path to the right mount operation per the
// workspace's special file conventions (§6.3): a ".schema" file installs a
// schema, a ".obj/.<name>.json" file tags the named sibling, anything else
// is added as a data payload.
func applyFile(ctx context.Context, m *mount.Mount, root, rel, mountPath string) error {
	if schemaMountPath, ok := workspace.IsSchemaFile(rel); ok {
		schema, err := workspace.ParseSchemaFile(filepath.Join(root, rel))
		if err != nil {
			return err
		}
		return m.SetSchema(ctx, schemaMountPath, schema)
	}

	if objMountPath, ok := workspace.IsObjectFile(rel); ok {
		props, err := workspace.ParseObjectFile(filepath.Join(root, rel))
		if err != nil {
			return err
		}
		return m.Tag(ctx, objMountPath, props)
	}

	data, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		return err
	}
	return m.Add(ctx, mountPath, data, false)
}
