// Package store defines the tablet-engine contract (spec §6: a Scanner and
// a BatchWriter) plus a DynamoDB-backed implementation of it. DynamoDB has
// no pluggable server-side iterators, so the iterator stack built by
// graph/keypkg's IteratorFactory runs client-side: this package only returns
// raw entries in key order, and the retriever package runs the stack over
// the decoded rows after the scan — standing in for a real tablet engine
// running the same stack inside the server.
package store

import (
	"context"
	"errors"

	"elementstore/graph"
)

// ErrDone signals RawSource exhaustion, mirroring graph/iterator.ErrDone
// one layer below decoding.
var ErrDone = errors.New("store: exhausted")

// RawEntry is one stored key/value pair before codec decoding.
type RawEntry struct {
	Key   graph.Key
	Value []byte
}

// RawSource is a lazy, single-pass pull sequence of RawEntry.
type RawSource interface {
	Next() (RawEntry, error)
	Close() error
}

// Scanner reads raw entries from one or more ranges, each in row order.
type Scanner interface {
	Scan(ctx context.Context, ranges []graph.KeyRange) (RawSource, error)
}

// Mutation is one element's row-form key and value, ready to write.
type Mutation struct {
	Key   graph.Key
	Value []byte
}

// BatchWriter submits mutations to the tablet engine. Implementations may
// split into multiple physical batches; WriteBatch either commits all
// mutations or returns an error describing the first failure. It is not
// atomic across physical batches: those written before the failure stay
// written.
type BatchWriter interface {
	WriteBatch(ctx context.Context, mutations []Mutation) error
}
