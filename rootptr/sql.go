package rootptr

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mountfs/mount/block"
	"github.com/mountfs/mount/merrors"
)

// SQLStore is a Coordinator backed by a SQL table of (root, previous_root)
// rows, serialising push_root's compare-and-swap inside one transaction
// per §4.6. It depends only on database/sql's driver-agnostic interface —
// the concrete driver (postgres, sqlite, ...) is wired by the caller via
// sql.Open, an external-collaborator boundary per spec.md §1.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an already-opened *sql.DB. Callers are responsible for
// having created the backing table, e.g.:
//
//	CREATE TABLE root_pointer (
//	    id INTEGER PRIMARY KEY CHECK (id = 1),
//	    root TEXT NOT NULL,
//	    previous_root TEXT NOT NULL
//	);
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PullRoot(ctx context.Context) (block.Identifier, error) {
	var root string
	err := s.db.QueryRowContext(ctx, `SELECT root FROM root_pointer WHERE id = 1`).Scan(&root)
	if errors.Is(err, sql.ErrNoRows) {
		return block.Default(), nil
	}
	if err != nil {
		return block.Identifier{}, merrors.Transport(err)
	}
	return block.ParseIdentifier(root)
}

// PushRoot serialises the compare-and-swap inside a single transaction:
// reads the current head with the row locked, checks it equals
// previousRoot, and if so writes the new row (inserting the singleton row
// on a fresh coordinator). A mismatch rolls back and returns Conflict.
func (s *SQLStore) PushRoot(ctx context.Context, root, previousRoot block.Identifier) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return merrors.Transport(err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT root FROM root_pointer WHERE id = 1 FOR UPDATE`).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if !previousRoot.IsDefault() {
			return merrors.Conflict(block.Default().String())
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO root_pointer (id, root, previous_root) VALUES (1, ?, ?)`,
			root.String(), previousRoot.String()); err != nil {
			return merrors.Transport(err)
		}
	case err != nil:
		return merrors.Transport(err)
	default:
		currentID, decodeErr := block.ParseIdentifier(current)
		if decodeErr != nil {
			return merrors.DecodeError(decodeErr)
		}
		if !currentID.Equal(previousRoot) {
			return merrors.Conflict(current)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE root_pointer SET root = ?, previous_root = ? WHERE id = 1`,
			root.String(), previousRoot.String()); err != nil {
			return merrors.Transport(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return merrors.Transport(err)
	}
	return nil
}

var _ Coordinator = (*SQLStore)(nil)
