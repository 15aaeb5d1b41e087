package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"lukechampine.com/blake3"
)

// ChangeKind is the change-log's change-kind sum type (§6.3): Base for an
// entry unchanged since the last push, Added/Modified/Removed for local
// edits pending an add.
type ChangeKind int

const (
	ChangeBase ChangeKind = iota
	ChangeAdded
	ChangeModified
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeBase:
		return "Base"
	case ChangeAdded:
		return "Added"
	case ChangeModified:
		return "Modified"
	case ChangeRemoved:
		return "Removed"
	default:
		return "Unknown"
	}
}

// Entry is one change-log record: the content hash last observed at a path,
// tagged with its change-kind. Modified is meaningful only when Kind is
// ChangeAdded: true means the path still needs to be applied (or re-applied)
// to the mount by add, false means add has already folded it in and it is
// only awaiting push. Processed is the same flag for ChangeModified and
// ChangeRemoved: false means still pending an add, true means already
// applied and only awaiting push.
type Entry struct {
	Hash      string     `json:"hash"`
	Kind      ChangeKind `json:"kind"`
	Modified  bool       `json:"modified,omitempty"`
	Processed bool       `json:"processed,omitempty"`
}

// ChangeLog is the sorted mapping from relative path to (content-hash,
// change-kind) of §6.3. It is a plain map; Go's encoding/json already
// serialises map keys in sorted order, and SortedPaths gives callers that
// order directly for display and for the diff merge below.
type ChangeLog map[string]Entry

// NewChangeLog returns an empty change log.
func NewChangeLog() ChangeLog { return ChangeLog{} }

// SortedPaths returns the tracked paths in lexicographic order.
func (cl ChangeLog) SortedPaths() []string {
	paths := make([]string, 0, len(cl))
	for p := range cl {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// HasChanges reports whether any tracked entry is not ChangeBase.
func (cl ChangeLog) HasChanges() bool {
	for _, e := range cl {
		if e.Kind != ChangeBase {
			return true
		}
	}
	return false
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return fmt.Sprintf("%x", sum), nil
}

func fsTree(dir string) (map[string]string, error) {
	tree := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && d.Name() == DefaultDir {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		hash, err := hashFile(path)
		if err != nil {
			return err
		}
		tree[rel] = hash
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// Diff walks dir and merges the resulting content-hash tree against base
// (the change log recorded as of the last add/push) using a sorted
// two-pointer merge, the same shape as the original client's diff routine:
// paths on only one side are Added/Removed, paths on both sides whose hash
// changed are Modified (or, if the path was itself a not-yet-pushed Added
// entry, Added with Modified set).
func Diff(dir string, base ChangeLog) (ChangeLog, error) {
	tree, err := fsTree(dir)
	if err != nil {
		return nil, err
	}

	basePaths := base.SortedPaths()
	nextPaths := make([]string, 0, len(tree))
	for p := range tree {
		nextPaths = append(nextPaths, p)
	}
	sort.Strings(nextPaths)

	update := make(ChangeLog, len(base))
	for p, e := range base {
		update[p] = e
	}

	bi, ni := 0, 0
	for bi < len(basePaths) && ni < len(nextPaths) {
		basePath := basePaths[bi]
		nextPath := nextPaths[ni]

		switch {
		case basePath < nextPath:
			markRemoved(update, basePath, base[basePath])
			bi++
		case nextPath < basePath:
			update[nextPath] = Entry{Hash: tree[nextPath], Kind: ChangeAdded, Modified: true}
			ni++
		default:
			baseEntry := base[basePath]
			hash := tree[nextPath]
			if hash != baseEntry.Hash {
				if baseEntry.Kind == ChangeAdded {
					update[basePath] = Entry{Hash: hash, Kind: ChangeAdded, Modified: true}
				} else {
					update[basePath] = Entry{Hash: hash, Kind: ChangeModified}
				}
			}
			bi++
			ni++
		}
	}
	for ; bi < len(basePaths); bi++ {
		path := basePaths[bi]
		markRemoved(update, path, base[path])
	}
	for ; ni < len(nextPaths); ni++ {
		path := nextPaths[ni]
		update[path] = Entry{Hash: tree[path], Kind: ChangeAdded, Modified: true}
	}
	return update, nil
}

// markRemoved records that path, tracked in base, is gone from the working
// tree. A never-applied Added entry simply vanishes — it never made it into
// the mount. An already-applied Added entry, or anything else, becomes a
// pending Removed entry so add knows to unlink it from the mount. An entry
// already marked Removed is left untouched regardless of its Processed
// state, so a second diff before the corresponding add/push doesn't
// re-queue or un-queue it.
func markRemoved(update ChangeLog, path string, base Entry) {
	switch base.Kind {
	case ChangeAdded:
		if base.Modified {
			delete(update, path)
			return
		}
		update[path] = Entry{Hash: base.Hash, Kind: ChangeRemoved}
	case ChangeRemoved:
	default:
		update[path] = Entry{Hash: base.Hash, Kind: ChangeRemoved}
	}
}
