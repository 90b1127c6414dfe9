package application

import (
	"context"

	"github.com/ignite/jobtracker/internal/domain"
)

// Store is the document store contract. Every method is a single atomic
// backend operation; implementations must be safe for concurrent use.
type Store interface {
	// Insert stores a new document and returns its assigned identifier.
	Insert(ctx context.Context, doc domain.Document) (string, error)

	// Find returns up to limit documents matching the filter, in the
	// backend's natural order.
	Find(ctx context.Context, filter domain.Filter, limit int) ([]domain.Document, error)

	// FindByID returns one document with its identifier under domain.IDKey.
	// Returns ErrNotFound if it doesn't exist.
	FindByID(ctx context.Context, id string) (domain.Document, error)

	// UpdateByID merges the patch into one document. Returns ErrNotFound if
	// no document has the identifier.
	UpdateByID(ctx context.Context, id string, patch domain.Patch) error

	// DeleteByID removes one document and reports how many were removed.
	DeleteByID(ctx context.Context, id string) (int64, error)

	// CollectionNames lists the collections (tables, key spaces) visible to
	// the store, for diagnostics.
	CollectionNames(ctx context.Context) ([]string, error)

	// Name identifies the backend, e.g. "dynamodb".
	Name() string
}

// ListFilter controls filtering for application lists.
type ListFilter struct {
	Status string
	Query  string
	Limit  int
}

// Default and maximum result counts for List.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)
