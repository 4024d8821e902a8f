// Package search defines the secondary company index. The index holds a
// denormalized projection of the primary row and is updated best-effort after
// primary writes; it is never the source of truth.
package search

import "context"

// Document is the projection mirrored into the index: the public fields plus
// the entity id, nothing else.
type Document struct {
	ID          string
	Title       string
	URL         string
	Description string
}

// Index is the search side of the dual write.
//
// EnsureIndex is idempotent and run once at startup. The mutation calls are
// keyed by document id; Update replaces only the projection fields present in
// the document. Implementations return errors, the adapter decides that they
// are swallowed.
type Index interface {
	EnsureIndex(ctx context.Context) error
	Create(ctx context.Context, doc Document) error
	Update(ctx context.Context, doc Document) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string) ([]Document, error)
	List(ctx context.Context, page, size int) ([]Document, error)
}
