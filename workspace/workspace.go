// Package workspace implements the client-side on-disk layout of §6.3: a
// hidden state directory tracking the last-synced root, the remote this
// workspace talks to, and a change log of local edits pending an add/push.
// Everything here is an external-collaborator concern per spec.md §1 — the
// core mount engine knows nothing about a filesystem working directory.
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mountfs/mount/block"
	"github.com/mountfs/mount/model"
)

// DefaultDir is the name of the hidden state directory created inside a
// tracked working directory.
const DefaultDir = ".mount"

const (
	configName        = "config.json"
	stateName         = "state.json"
	previousRootName  = "previous_root.json"
	changeLogName     = "changelog.json"
	dirPerm           = 0o755
	filePerm          = 0o644
)

// Config is the workspace's on-disk config file: the remote this workspace
// synchronises against and the key material path used for request signing
// (request signing itself is an external-collaborator concern — the core
// and this package only thread the path through).
type Config struct {
	RemoteURL string `json:"remote_url"`
	Token     string `json:"token,omitempty"`
	KeyPath   string `json:"key_path,omitempty"`
}

// State is the workspace's cached root identifier and manifest, refreshed
// on every successful pull or push.
type State struct {
	Root     block.Identifier `json:"root"`
	Manifest model.Manifest   `json:"manifest"`
}

type previousRootFile struct {
	Root block.Identifier `json:"root"`
}

// Workspace is a loaded client-side working directory.
type Workspace struct {
	Root string // the tracked directory
	Dir  string // its hidden state directory

	Config       Config
	State        State
	PreviousRoot block.Identifier
	ChangeLog    ChangeLog
}

// Init creates a new workspace rooted at dir: a hidden state directory with
// an empty change log and the distinguished default root, matching the
// original client's init_on_disk_config.
func Init(dir, remoteURL, token, keyPath string) (*Workspace, error) {
	hidden := filepath.Join(dir, DefaultDir)
	if _, err := os.Stat(hidden); err == nil {
		return nil, fmt.Errorf("workspace: %s is already initialized", dir)
	}
	if err := os.MkdirAll(hidden, dirPerm); err != nil {
		return nil, err
	}

	ws := &Workspace{
		Root:         dir,
		Dir:          hidden,
		Config:       Config{RemoteURL: remoteURL, Token: token, KeyPath: keyPath},
		State:        State{Root: block.Default(), Manifest: model.Manifest{}},
		PreviousRoot: block.Default(),
		ChangeLog:    NewChangeLog(),
	}
	if err := ws.Save(); err != nil {
		return nil, err
	}
	return ws, nil
}

// Open loads an existing workspace rooted at dir.
func Open(dir string) (*Workspace, error) {
	hidden := filepath.Join(dir, DefaultDir)
	if _, err := os.Stat(hidden); err != nil {
		return nil, fmt.Errorf("workspace: %s is not initialized: %w", dir, err)
	}

	ws := &Workspace{Root: dir, Dir: hidden, ChangeLog: NewChangeLog()}
	if err := readJSON(filepath.Join(hidden, configName), &ws.Config); err != nil {
		return nil, fmt.Errorf("workspace: reading config: %w", err)
	}
	if err := readJSON(filepath.Join(hidden, stateName), &ws.State); err != nil {
		return nil, fmt.Errorf("workspace: reading state: %w", err)
	}
	var previous previousRootFile
	if err := readJSON(filepath.Join(hidden, previousRootName), &previous); err != nil {
		return nil, fmt.Errorf("workspace: reading previous root: %w", err)
	}
	ws.PreviousRoot = previous.Root
	if err := readJSON(filepath.Join(hidden, changeLogName), &ws.ChangeLog); err != nil {
		return nil, fmt.Errorf("workspace: reading change log: %w", err)
	}
	return ws, nil
}

// Save persists every file in the hidden state directory.
func (ws *Workspace) Save() error {
	if err := writeJSON(filepath.Join(ws.Dir, configName), ws.Config); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(ws.Dir, stateName), ws.State); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(ws.Dir, previousRootName), previousRootFile{Root: ws.PreviousRoot}); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(ws.Dir, changeLogName), ws.ChangeLog); err != nil {
		return err
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, filePerm)
}
