// Package history persists the append-only log of executed batch operations
// consumed by the undo mechanism.
package history

import (
	"errors"

	"github.com/renamekit/renamekit/internal/models"
)

// MaxEntries is the retention cap: appending beyond it prunes the oldest
// entries.
const MaxEntries = 500

// ErrEntryNotFound means no history entry exists with the given ID.
var ErrEntryNotFound = errors.New("history entry not found")

// ErrAlreadyUndone means the entry's undone flag was already set.
var ErrAlreadyUndone = errors.New("operation already undone")

// Store is the append-only operation log. Entries are immutable except for
// the undone flag, which flips exactly once.
type Store interface {
	// Append records a new entry, pruning the oldest beyond MaxEntries.
	Append(entry models.OperationHistoryEntry) error
	// Get returns an entry by ID, or ErrEntryNotFound.
	Get(id string) (*models.OperationHistoryEntry, error)
	// List returns entries newest-first, at most limit (0 = all retained).
	List(limit int) ([]models.OperationHistoryEntry, error)
	// Count returns the number of retained entries.
	Count() (int, error)
	// MarkUndone sets the undone flag; ErrAlreadyUndone if already set.
	MarkUndone(id string) error
	// Clear removes all entries.
	Clear() error
	// Close releases underlying resources.
	Close() error
}
