// Package iterator implements the server-side iterator stack of spec §4.3:
// validation, aggregation, pre-/post-aggregation filters, transformation,
// post-transformation filter and the direction/edge-entity filter. Each
// stage is a decorator over a lazy, pull-based Source, mirroring how a
// real tablet engine chains SortedKeyValueIterator instances — one stage
// wraps the next, and data flows from the innermost (closest to the raw
// scan) outward as the caller pulls.
package iterator

import (
	"errors"

	"elementstore/graph"
)

// ErrDone is returned by Source.Next when the stream is exhausted.
var ErrDone = errors.New("iterator: exhausted")

// Row is one decoded stored entry flowing through the iterator stack: the
// key (for marker/aggregation-key access), which group it belongs to, its
// decoded properties (group-by and non-group-by merged), and the vertex
// identity the stages themselves never need but callers reconstructing a
// full Element after the stack runs do.
type Row struct {
	Key         graph.Key
	GroupName   string
	IsEdge      bool
	Marker      byte // direction marker byte; 0 for entities
	Properties  *graph.Properties
	Vertex      string // set for entities
	Source      string // set for edges
	Destination string // set for edges
	Directed    bool   // set for edges
}

// Source is a lazy, single-pass, finite pull sequence of Row, the unit
// retrievers (C5) drive. Close releases any resource the source holds;
// Close must be idempotent.
type Source interface {
	Next() (Row, error)
	Close() error
}

// Iterator is one configured stack stage: it wraps an upstream Source and
// returns a new Source applying its behaviour (spec §4.3 names this "a
// server-side iterator"; here it is a Go value, not an RPC-configured
// remote object, since the retriever runs the stack locally — see
// DESIGN.md's resolution of the tablet-engine-binding Open Question).
type Iterator interface {
	Wrap(source Source) Source
}

// Func adapts a plain function to Iterator.
type Func func(Source) Source

func (f Func) Wrap(source Source) Source { return f(source) }

// Options carries the operation-level knobs IteratorFactory needs beyond
// schema+view: store capability flags and direction/inclusion filters.
type Options struct {
	StoreValidation  bool
	StoreAggregation bool
	InstallDirection bool // edge-oriented operations install the direction filter
	IncludeEntities  bool
	IncludeEdges     graph.IncludeEdges
	InOut            graph.IncludeIncomingOutgoing
}

// SliceSource is a Source backed by an in-memory slice — what a finished
// scan page looks like before the stack runs over it.
type SliceSource struct {
	rows []Row
	pos  int
}

func NewSliceSource(rows []Row) *SliceSource { return &SliceSource{rows: rows} }

func (s *SliceSource) Next() (Row, error) {
	if s.pos >= len(s.rows) {
		return Row{}, ErrDone
	}
	r := s.rows[s.pos]
	s.pos++
	return r, nil
}

func (s *SliceSource) Close() error { return nil }

// Drain pulls every row out of a Source until ErrDone, then closes it.
func Drain(s Source) ([]Row, error) {
	defer s.Close()
	var out []Row
	for {
		r, err := s.Next()
		if err == ErrDone {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
}

// Chain composes stages in apply order (first stage closest to raw data,
// matching spec §4.3's "apply order (bottom first)"). Chain returns the
// fully wrapped Source.
func Chain(source Source, stages []Iterator) Source {
	for _, stage := range stages {
		source = stage.Wrap(source)
	}
	return source
}
