// Package docstore is the boundary to the shared remote document store.
// Collections hold schemaless JSON documents; this engine reads full
// result sets and writes whole documents or partial field merges. Field
// naming inside a document is the codec's concern, not this package's.
package docstore

import (
	"context"
	"errors"
)

// ErrNoDocument is returned when an update targets an id that does not
// exist in the collection.
var ErrNoDocument = errors.New("document not found")

// Document is one stored record: opaque id plus raw JSON fields.
type Document struct {
	ID   string
	Data []byte
}

// Filter is an equality predicate on a top-level document field.
type Filter struct {
	Field  string
	Equals string
}

// OrderBy sorts the result set by a top-level document field.
type OrderBy struct {
	Field      string
	Descending bool
}

// Query is a filtered, ordered read over one collection.
type Query struct {
	Filters []Filter
	OrderBy *OrderBy
}

// Reader fetches the complete current result set for a query.
type Reader interface {
	GetDocuments(ctx context.Context, collection string, q Query) ([]Document, error)
}

// Writer mutates documents. UpdateDocument merges partial fields into the
// existing document; fields not named in partial are preserved.
type Writer interface {
	AddDocument(ctx context.Context, collection string, data []byte) (string, error)
	UpdateDocument(ctx context.Context, collection, id string, partial []byte) error
}

// Store is the full remote document store contract.
type Store interface {
	Reader
	Writer
}
