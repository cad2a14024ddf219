// Package store defines the document-store contract the storefront runs on:
// point reads plus optimistic multi-document transactions. A transaction reads
// a snapshot, queues writes, and commits only if none of the documents it read
// changed in the meantime; otherwise the whole function is retried from fresh
// reads, a bounded number of times.
package store

import (
	"context"
	"errors"
)

const (
	CollectionUsers    = "users"
	CollectionProducts = "products"
	CollectionOrders   = "orders"
	CollectionReviews  = "reviews"
	CollectionTokens   = "tokens"
)

var (
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned by RunTransaction when a conflicting concurrent
	// write kept the transaction from committing within the retry budget.
	ErrConflict = errors.New("transaction conflict")
)

// ReviewKey builds the id of a review document inside the reviews collection.
func ReviewKey(productID, userID string) string {
	return productID + "/" + userID
}

// Document is a raw stored document, payload still JSON-encoded.
type Document struct {
	ID      string
	Payload []byte
}

// Tx is the handle a transaction function works through. Reads are tracked
// for conflict detection; Set and Delete queue writes that become visible
// only when the transaction commits. A Get of a document written earlier in
// the same transaction observes the queued write.
type Tx interface {
	Get(ctx context.Context, collection, id string, out any) error
	Set(collection, id string, doc any) error
	Delete(collection, id string)
}

type Store interface {
	Get(ctx context.Context, collection, id string, out any) error
	// List returns every document of a collection in insertion order.
	List(ctx context.Context, collection string) ([]Document, error)
	Delete(ctx context.Context, collection, id string) error
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
}
