package archive

import "context"

// Storer persists and retrieves run records.
type Storer interface {
	// Put stores a record and reports whether it was new.
	// Storing a hash that already exists is a no-op.
	Put(ctx context.Context, record *Record) (bool, error)

	// Get retrieves a record by its hash. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, hash string) (*Record, error)

	// List returns all records, newest first.
	List(ctx context.Context) ([]*Record, error)

	// Close closes the store and releases any resources.
	Close() error
}

// ErrNotFound is returned when a record doesn't exist in the store.
type ErrNotFound struct {
	Hash string
}

func (e ErrNotFound) Error() string {
	if e.Hash == "" {
		return "record not found"
	}

	return "record not found: " + e.Hash
}
