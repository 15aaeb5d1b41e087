package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"lukechampine.com/blake3"

	"github.com/mountfs/mount/blockstore"
	"github.com/mountfs/mount/internal/dcontext"
	"github.com/mountfs/mount/model"
	"github.com/mountfs/mount/mount"
	"github.com/mountfs/mount/workspace"
)

// PullCmd fetches the remote's current root and materialises it into the
// working directory, mirroring the original client's ops/pull.rs: schema
// files are written alongside data files and their .obj metadata, and any
// local file absent from the pulled tree is removed.
var PullCmd = &cobra.Command{
	Use:   "pull",
	Short: "pull the remote's current state into the workspace",
	Long:  "`pull` fetches the remote's current root and writes it into the working directory.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := dcontext.Background()

		ws, err := workspace.Open(workspacePath)
		if err != nil {
			fail(err)
		}

		rootClient := workspace.NewRootClient(ws.Config.RemoteURL, ws.Config.Token)
		head, err := rootClient.PullRoot(ctx)
		if err != nil {
			fail(err)
		}

		store := blockstore.New(ws.Config.RemoteURL, ws.Config.Token)
		m, err := mount.Pull(ctx, head, store)
		if err != nil {
			fail(err)
		}

		written := map[string]bool{}
		changeLog := workspace.NewChangeLog()
		if err := pullWalk(ctx, m, workspacePath, "/", written, changeLog); err != nil {
			fail(err)
		}
		if err := pruneLocalOnly(workspacePath, written); err != nil {
			fail(err)
		}

		ws.State = workspace.State{Root: m.Root(), Manifest: m.Manifest()}
		ws.PreviousRoot = m.Root()
		ws.ChangeLog = changeLog
		if err := ws.Save(); err != nil {
			fail(err)
		}

		fmt.Printf("pulled %s\n", m.Root())
	},
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// pullWalk recursively materialises mountPath into localDir, recording every
// path it writes in written (so pruneLocalOnly leaves them alone) and every
// data entry it writes in changeLog as an already-synced Base entry.
func pullWalk(ctx context.Context, m *mount.Mount, localDir, mountPath string, written map[string]bool, changeLog workspace.ChangeLog) error {
	entries, schema, err := m.Ls(ctx, mountPath, false)
	if err != nil {
		return err
	}

	if schema != nil {
		if err := os.MkdirAll(localDir, 0o755); err != nil {
			return err
		}
		data, err := workspace.EncodeSchemaJSON(*schema)
		if err != nil {
			return err
		}
		schemaPath := filepath.Join(localDir, workspace.SchemaFileName)
		if err := os.WriteFile(schemaPath, data, 0o644); err != nil {
			return err
		}
		written[schemaPath] = true
	}

	for _, entry := range entries {
		childLocal := filepath.Join(localDir, entry.Path)
		childMount := joinMountPath(mountPath, entry.Path)

		switch link := entry.Link.(type) {
		case model.SubNodeLink:
			if err := pullWalk(ctx, m, childLocal, childMount, written, changeLog); err != nil {
				return err
			}
		case model.DataLink:
			if err := os.MkdirAll(localDir, 0o755); err != nil {
				return err
			}
			data, err := m.Cat(ctx, childMount)
			if err != nil {
				return err
			}
			if err := os.WriteFile(childLocal, data, 0o644); err != nil {
				return err
			}
			written[childLocal] = true

			if link.Object != nil {
				objDir := filepath.Join(localDir, workspace.ObjDirName)
				if err := os.MkdirAll(objDir, 0o755); err != nil {
					return err
				}
				objData, err := workspace.EncodePropertiesJSON(link.Object.Properties)
				if err != nil {
					return err
				}
				objPath := filepath.Join(objDir, "."+entry.Path+".json")
				if err := os.WriteFile(objPath, objData, 0o644); err != nil {
					return err
				}
				written[objPath] = true
			}

			rel, err := filepath.Rel(workspacePath, childLocal)
			if err != nil {
				return err
			}
			changeLog[filepath.ToSlash(rel)] = workspace.Entry{
				Hash: fmt.Sprintf("%x", blake3.Sum256(data)),
				Kind: workspace.ChangeBase,
			}
		}
	}
	return nil
}

func joinMountPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return strings.TrimSuffix(parent, "/") + "/" + name
}

// pruneLocalOnly removes any regular file under dir, other than the hidden
// workspace state directory, that pull did not just write.
func pruneLocalOnly(dir string, written map[string]bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && d.Name() == workspace.DefaultDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !written[path] {
			return os.Remove(path)
		}
		return nil
	})
}
