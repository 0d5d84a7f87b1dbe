package operation

import (
	"context"
	"encoding/json"

	"elementstore/internal/graphstoreerr"
)

// Handler executes one operation kind against raw JSON input, returning a
// JSON-marshalable result. Registered explicitly per kind (C6, spec Design
// Note 9.2) rather than resolved via reflection over request struct tags.
type Handler func(ctx context.Context, env *Environment, raw json.RawMessage) (interface{}, error)

var registry = map[Kind]Handler{}

// Register adds a handler for a kind. Called from this package's init(),
// once per Kind constant — see handlers.go.
func Register(kind Kind, h Handler) {
	registry[kind] = h
}

// Lookup resolves a Kind to its Handler.
func Lookup(kind Kind) (Handler, bool) {
	h, ok := registry[kind]
	return h, ok
}

// Execute decodes raw into the kind's request type via its Handler and
// runs it. Returns an OperationError for an unregistered kind.
func Execute(ctx context.Context, env *Environment, kind Kind, raw json.RawMessage) (interface{}, error) {
	h, ok := Lookup(kind)
	if !ok {
		return nil, graphstoreerr.Operation("unregistered operation kind %q", kind)
	}
	return h(ctx, env, raw)
}
