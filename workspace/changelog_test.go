package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestDiffDetectsNewFileAsAdded(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello")

	cl, err := Diff(dir, NewChangeLog())
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	entry, ok := cl["a.txt"]
	if !ok {
		t.Fatalf("expected a.txt to be tracked")
	}
	if entry.Kind != ChangeAdded || !entry.Modified {
		t.Fatalf("expected a.txt to be a pending Added entry, got %+v", entry)
	}
}

func TestDiffDetectsModification(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello")

	base, err := Diff(dir, NewChangeLog())
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	// Simulate a completed add/push: the entry settles to Base.
	base["a.txt"] = Entry{Hash: base["a.txt"].Hash, Kind: ChangeBase}

	writeFile(t, dir, "a.txt", "goodbye")
	updated, err := Diff(dir, base)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	entry := updated["a.txt"]
	if entry.Kind != ChangeModified || entry.Processed {
		t.Fatalf("expected a.txt to be a pending Modified entry, got %+v", entry)
	}
}

func TestDiffDetectsRemovalOfBaseFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello")

	base, err := Diff(dir, NewChangeLog())
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	base["a.txt"] = Entry{Hash: base["a.txt"].Hash, Kind: ChangeBase}

	if err := os.Remove(filepath.Join(dir, "a.txt")); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	updated, err := Diff(dir, base)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	entry := updated["a.txt"]
	if entry.Kind != ChangeRemoved || entry.Processed {
		t.Fatalf("expected a.txt to be a pending Removed entry, got %+v", entry)
	}
}

func TestDiffForgetsUnappliedAddedFileOnRemoval(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello")

	base, err := Diff(dir, NewChangeLog())
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	// a.txt is still Added{Modified:true} here: it was never folded into
	// the mount by an add, so removing it should simply forget it.
	if err := os.Remove(filepath.Join(dir, "a.txt")); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	updated, err := Diff(dir, base)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if _, ok := updated["a.txt"]; ok {
		t.Fatalf("expected a.txt to be forgotten, got %+v", updated["a.txt"])
	}
}

func TestDiffLeavesProcessedRemovalUntouched(t *testing.T) {
	dir := t.TempDir()

	base := ChangeLog{
		"a.txt": {Hash: "deadbeef", Kind: ChangeRemoved, Processed: true},
	}

	updated, err := Diff(dir, base)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	entry, ok := updated["a.txt"]
	if !ok || entry.Kind != ChangeRemoved || !entry.Processed {
		t.Fatalf("expected a.txt's processed removal to survive unchanged, got %+v", entry)
	}
}

func TestDiffIgnoresHiddenWorkspaceDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, filepath.Join(DefaultDir, "state.json"), "{}")
	writeFile(t, dir, "a.txt", "hello")

	cl, err := Diff(dir, NewChangeLog())
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(cl) != 1 {
		t.Fatalf("expected only a.txt to be tracked, got %+v", cl)
	}
	if _, ok := cl["a.txt"]; !ok {
		t.Fatalf("expected a.txt to be tracked")
	}
}

func TestHasChanges(t *testing.T) {
	cl := ChangeLog{"a.txt": {Kind: ChangeBase}}
	if cl.HasChanges() {
		t.Fatalf("expected an all-Base change log to report no changes")
	}
	cl["b.txt"] = Entry{Kind: ChangeAdded, Modified: true}
	if !cl.HasChanges() {
		t.Fatalf("expected a change log with a pending entry to report changes")
	}
}
