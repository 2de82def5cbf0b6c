// Package store provides the document-store collection abstraction the
// pipelines run on. Two implementations exist: an in-memory store used by
// tests and local development, and a Postgres-backed store (JSONB documents
// via pgx) used in production. Both enforce the collection's declared
// unique key at insert time.
package store

import (
	"context"
	"errors"
	"reflect"
)

// Sentinel errors returned by collection operations. Callers match these
// with errors.Is; the web layer maps them to HTTP status codes.
var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("store: document not found")

	// ErrDuplicateKey is returned when an insert or update violates the
	// collection's unique-key constraint.
	ErrDuplicateKey = errors.New("store: duplicate key")
)

// Document is the minimal contract a stored type must satisfy. The store
// assigns the ID on insert; it never changes afterwards.
type Document interface {
	DocumentID() string
	SetDocumentID(id string)
}

// Filter selects documents by field equality. Keys are the JSON field
// names of the document type (e.g. "naturalKey", "trackId"). A nil or
// empty filter matches every document.
type Filter map[string]string

// Collection is the per-entity document collection contract consumed by
// the ingestion and bootstrap pipelines. Implementations must be safe for
// concurrent use.
type Collection[T Document] interface {
	// Insert stores a new document and returns its assigned ID. Returns
	// ErrDuplicateKey if the collection's unique key is violated.
	Insert(ctx context.Context, doc T) (string, error)

	// FindOne returns the first document matching the filter, or
	// ErrNotFound.
	FindOne(ctx context.Context, f Filter) (T, error)

	// FindByID returns the document with the given ID, or ErrNotFound.
	FindByID(ctx context.Context, id string) (T, error)

	// FindAll returns every document matching the filter, in insertion
	// order.
	FindAll(ctx context.Context, f Filter) ([]T, error)

	// UpdateByID overwrites the document with the given ID and returns the
	// stored result, or ErrNotFound. The document's ID is preserved.
	UpdateByID(ctx context.Context, id string, doc T) (T, error)

	// DeleteMany removes all documents matching the filter and returns the
	// number removed.
	DeleteMany(ctx context.Context, f Filter) (int64, error)

	// Count returns the total number of documents in the collection.
	Count(ctx context.Context) (int64, error)
}

// newDocument allocates a fresh zero document of the collection's element
// type. T is always a pointer type in practice (*model.Participant etc.).
func newDocument[T Document]() T {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface().(T)
	}
	return zero
}
