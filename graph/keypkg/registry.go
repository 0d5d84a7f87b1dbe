package keypkg

import (
	"fmt"

	"elementstore/graph"
)

// Constructor builds a KeyPackage for a schema. Each known layout variant
// registers one under a fixed identifier string.
type Constructor func(schema *graph.Schema) (KeyPackage, error)

var registry = map[string]Constructor{}

// Register adds a named layout variant to the registry. Called from each
// layout subpackage's init() — byteentity and classic self-register so
// importing either (or both, as cmd/server does) is enough to make them
// resolvable by identifier, with no reflection involved (spec Design Note
// 9.2, "Reflective key-package loading").
func Register(identifier string, ctor Constructor) {
	if _, dup := registry[identifier]; dup {
		panic(fmt.Sprintf("keypkg: %q already registered", identifier))
	}
	registry[identifier] = ctor
}

// Lookup resolves a registered identifier (the gaffer.store.keypackage.class
// analogue from spec §6, here store.keypackage.class) to its Constructor.
func Lookup(identifier string) (Constructor, bool) {
	ctor, ok := registry[identifier]
	return ctor, ok
}

// Identifiers lists every registered layout variant identifier.
func Identifiers() []string {
	out := make([]string, 0, len(registry))
	for id := range registry {
		out = append(out, id)
	}
	return out
}
