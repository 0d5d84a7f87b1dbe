// Package keypkg defines the interfaces that bundle one on-disk layout
// (spec §9, "KeyPackage"): a key functor (C1), an element converter (C2),
// a range factory (C3) and an iterator factory (C4). Concrete layouts live
// in subpackages (byteentity, classic); Registry (spec Design Note 9.2)
// replaces reflective class loading with an explicit, compile-time-checked
// lookup table.
package keypkg

import (
	"elementstore/graph"
	"elementstore/graph/iterator"
)

// KeyFunctor (C1) extracts the bloom-filter key prefix from a stored key —
// the bytes a store-side bloom filter should be configured against so that
// point lookups on a seed's row can short-circuit on non-membership.
type KeyFunctor interface {
	BloomKey(key graph.Key) []byte
}

// ElementConverter (C2) is the codec: the bijection between graph elements
// and their stored key(s) + value bytes (spec §4.1).
type ElementConverter interface {
	// ToKeys returns the element's row-form key(s). An Entity has exactly
	// one; an Edge has two (source-first, destination-first).
	ToKeys(e graph.Element) (graph.Key, *graph.Key, error)
	// ToValue serialises the element's non-group-by properties.
	ToValue(e graph.Element) ([]byte, error)
	// FromKeyValue reconstructs an element from a stored key and value.
	// matchedVertex is the seed-matched endpoint hint (spec §4.1); pass ""
	// when there is none (e.g. a full scan).
	FromKeyValue(key graph.Key, value []byte, matchedVertex string) (graph.Element, error)
}

// RangeFactory (C3) produces the ranges that cover a seed (spec §4.2).
type RangeFactory interface {
	Ranges(schema *graph.Schema, seed graph.Seed, includeEntities bool, includeEdges graph.IncludeEdges, inOut graph.IncludeIncomingOutgoing) ([]graph.KeyRange, error)
}

// IteratorFactory (C4) produces the ordered iterator stack for a (schema,
// view, operation) triple (spec §4.3). opts carries the capability flags the
// target store advertises (StoreValidation/StoreAggregation) alongside the
// operation's include and direction settings.
type IteratorFactory interface {
	Build(schema *graph.Schema, view *graph.View, opts iterator.Options) ([]iterator.Iterator, error)
}

// KeyPackage bundles one layout's C1..C4 implementations (spec §9).
type KeyPackage interface {
	Identifier() string
	KeyFunctor() KeyFunctor
	ElementConverter() ElementConverter
	RangeFactory() RangeFactory
	IteratorFactory() IteratorFactory
}
