package graph

import (
	"fmt"

	"elementstore/internal/graphstoreerr"
)

// PropertyType is the declared type of a schema property. The zero value
// is invalid so a PropertyDefinition built without one fails validation.
type PropertyType uint8

const (
	_ PropertyType = iota
	TypeString
	TypeInt
	TypeLong
	TypeFloat
	TypeBool
	TypeBytes
)

// Serialiser turns a property value to and from bytes. Serialise must be
// order-preserving (spec invariant 4) whenever the serialiser is used on a
// vertex identifier or a group-by property declared order-sensitive.
type Serialiser interface {
	Serialise(v interface{}) ([]byte, error)
	Deserialise(b []byte) (interface{}, error)
	// OrderPreserving reports whether byte-lexicographic order on the
	// serialised form matches value order.
	OrderPreserving() bool
}

// Aggregator merges two values of the same property into one. Aggregators
// must be commutative and associative across repeated merges since the
// store may apply them pairwise in any order during compaction.
type Aggregator interface {
	Aggregate(a, b interface{}) (interface{}, error)
}

// Validator rejects a value outright; used by the validation iterator (C4
// stage 1) when the store advertises STORE_VALIDATION.
type Validator interface {
	Validate(v interface{}) error
}

// PropertyDefinition declares one property of a group: its type, how it is
// serialised, how concurrent writes to the same aggregation key merge
// (nil if the property cannot repeat, e.g. because it is part of the
// group-by), and an optional validator.
type PropertyDefinition struct {
	Name       string
	Type       PropertyType
	Serialiser Serialiser
	Aggregator Aggregator
	Validator  Validator
}

// GroupSchema is the schema for one element group (spec §3).
type GroupSchema struct {
	Name string
	// IsEdge distinguishes an edge group from an entity group.
	IsEdge bool
	// VertexType applies to entity groups.
	VertexType string
	// SourceType / DestinationType apply to edge groups.
	SourceType      string
	DestinationType string

	// Properties is the full, ordered property list, group-by properties
	// included. Order defines the value-byte layout for the non-group-by
	// subset (spec §3, "Value layout").
	Properties []PropertyDefinition
	// GroupBy is the ordered subset of Properties.Name forming the
	// aggregation key's column-qualifier component.
	GroupBy []string

	// VisibilityProperty names the property supplying the column
	// visibility label, if the group declares one.
	VisibilityProperty string
	// TimestampProperty names the property supplying the element
	// timestamp, if the group declares one.
	TimestampProperty string
}

// Property looks up a property definition by name.
func (g *GroupSchema) Property(name string) (PropertyDefinition, bool) {
	for _, p := range g.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyDefinition{}, false
}

// IsGroupBy reports whether name is part of the group-by tuple.
func (g *GroupSchema) IsGroupBy(name string) bool {
	for _, n := range g.GroupBy {
		if n == name {
			return true
		}
	}
	return false
}

// NonGroupByProperties returns, in schema order, the properties that make
// up the value bytes (spec §3, "Value layout").
func (g *GroupSchema) NonGroupByProperties() []PropertyDefinition {
	out := make([]PropertyDefinition, 0, len(g.Properties))
	for _, p := range g.Properties {
		if !g.IsGroupBy(p.Name) {
			out = append(out, p)
		}
	}
	return out
}

// GroupByProperties returns, in GroupBy order, the property definitions
// that make up the column qualifier.
func (g *GroupSchema) GroupByProperties() []PropertyDefinition {
	out := make([]PropertyDefinition, 0, len(g.GroupBy))
	for _, name := range g.GroupBy {
		if p, ok := g.Property(name); ok {
			out = append(out, p)
		}
	}
	return out
}

func (g *GroupSchema) validate() error {
	if g.Name == "" {
		return graphstoreerr.Schema("group has no name")
	}
	if g.IsEdge {
		if g.SourceType == "" || g.DestinationType == "" {
			return graphstoreerr.Schema("edge group %q missing source/destination type", g.Name)
		}
	} else if g.VertexType == "" {
		return graphstoreerr.Schema("entity group %q missing vertex type", g.Name)
	}
	seen := make(map[string]bool, len(g.Properties))
	for _, p := range g.Properties {
		if p.Name == "" {
			return graphstoreerr.Schema("group %q has an unnamed property", g.Name)
		}
		if seen[p.Name] {
			return graphstoreerr.Schema("group %q declares property %q twice", g.Name, p.Name)
		}
		seen[p.Name] = true
		if p.Type == 0 {
			return graphstoreerr.Schema("group %q property %q has no type", g.Name, p.Name)
		}
		if p.Serialiser == nil {
			return graphstoreerr.Schema("group %q property %q has no serialiser", g.Name, p.Name)
		}
	}
	for _, gb := range g.GroupBy {
		if !seen[gb] {
			return graphstoreerr.Schema("group %q group-by property %q is not declared", g.Name, gb)
		}
	}
	if g.VisibilityProperty != "" && !seen[g.VisibilityProperty] {
		return graphstoreerr.Schema("group %q visibility property %q is not declared", g.Name, g.VisibilityProperty)
	}
	if g.TimestampProperty != "" && !seen[g.TimestampProperty] {
		return graphstoreerr.Schema("group %q timestamp property %q is not declared", g.Name, g.TimestampProperty)
	}
	return nil
}

// Schema bundles every group definition the store knows about. Immutable
// after construction (spec §3, "Lifecycles"): mutate by building a new one.
type Schema struct {
	groups map[string]*GroupSchema
}

// NewSchema validates and bundles group definitions. Returns a SchemaError
// (fatal at initialisation per spec §7) on any inconsistency.
func NewSchema(groups ...*GroupSchema) (*Schema, error) {
	s := &Schema{groups: make(map[string]*GroupSchema, len(groups))}
	for _, g := range groups {
		if g == nil {
			continue
		}
		if err := g.validate(); err != nil {
			return nil, err
		}
		if _, dup := s.groups[g.Name]; dup {
			return nil, graphstoreerr.Schema("duplicate group %q", g.Name)
		}
		s.groups[g.Name] = g
	}
	return s, nil
}

// Group returns the schema for a named group.
func (s *Schema) Group(name string) (*GroupSchema, bool) {
	g, ok := s.groups[name]
	return g, ok
}

// MustGroup is Group but panics on an unknown group; only safe for code
// paths that already validated the group exists via Group/EdgeGroups.
func (s *Schema) MustGroup(name string) *GroupSchema {
	g, ok := s.groups[name]
	if !ok {
		panic(fmt.Sprintf("graph: unknown group %q", name))
	}
	return g
}

// EntityGroups returns the names of every entity group.
func (s *Schema) EntityGroups() []string {
	var out []string
	for name, g := range s.groups {
		if !g.IsEdge {
			out = append(out, name)
		}
	}
	return out
}

// EdgeGroups returns the names of every edge group.
func (s *Schema) EdgeGroups() []string {
	var out []string
	for name, g := range s.groups {
		if g.IsEdge {
			out = append(out, name)
		}
	}
	return out
}
