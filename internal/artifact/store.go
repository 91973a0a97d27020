package artifact

import "context"

// Store is the append-only metadata collection. Append must be atomic with
// respect to concurrent appends: implementations either serialize writers
// or use a storage primitive with that guarantee, never a whole-file
// read-modify-write cycle.
type Store interface {
	// Append adds a record. ErrDuplicateID when the id already exists.
	Append(ctx context.Context, m Metadata) error
	// Get returns the record with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (Metadata, error)
	// List returns all records in append order.
	List(ctx context.Context) ([]Metadata, error)
	// Delete removes a record (administrative path), or ErrNotFound.
	Delete(ctx context.Context, id string) error
}
