// Package graph defines the property-graph data model: elements, schema and
// views. It has no knowledge of any storage layout — that lives in
// graph/keypkg — and no knowledge of the tablet engine — that lives in
// store.
package graph

import "fmt"

// Properties is an ordered name -> value mapping. Order matters because the
// value bytes on disk are the concatenation of non-group-by properties in
// schema-declared order; Properties preserves insertion order so callers
// that build an element from a schema definition get a deterministic layout.
type Properties struct {
	names  []string
	values map[string]interface{}
}

// NewProperties returns an empty, ready-to-use Properties.
func NewProperties() *Properties {
	return &Properties{values: make(map[string]interface{})}
}

// Set assigns a value to name, appending name to the order if it is new.
func (p *Properties) Set(name string, value interface{}) *Properties {
	if p.values == nil {
		p.values = make(map[string]interface{})
	}
	if _, exists := p.values[name]; !exists {
		p.names = append(p.names, name)
	}
	p.values[name] = value
	return p
}

// Get returns the value for name and whether it was present.
func (p *Properties) Get(name string) (interface{}, bool) {
	if p == nil || p.values == nil {
		return nil, false
	}
	v, ok := p.values[name]
	return v, ok
}

// Names returns property names in insertion order. The returned slice must
// not be mutated by callers.
func (p *Properties) Names() []string {
	if p == nil {
		return nil
	}
	return p.names
}

// Len reports the number of properties.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.names)
}

// Clone returns a deep-enough copy: a new backing map and name slice, values
// are copied by reference (they are expected to be immutable scalars/bytes).
func (p *Properties) Clone() *Properties {
	if p == nil {
		return NewProperties()
	}
	out := &Properties{
		names:  append([]string(nil), p.names...),
		values: make(map[string]interface{}, len(p.values)),
	}
	for k, v := range p.values {
		out.values[k] = v
	}
	return out
}

// Equal compares two Properties ignoring order, as required by the codec
// round-trip law in spec (equal modulo property reordering).
func (p *Properties) Equal(other *Properties) bool {
	if p.Len() != other.Len() {
		return false
	}
	for _, name := range p.Names() {
		v, ok := other.Get(name)
		if !ok {
			return false
		}
		mv, _ := p.Get(name)
		if fmt.Sprint(mv) != fmt.Sprint(v) {
			return false
		}
	}
	return true
}
