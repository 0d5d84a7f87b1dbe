package byteentity

import (
	"time"

	"elementstore/graph"
	"elementstore/graph/keypkg"
	"elementstore/internal/graphstoreerr"
)

// Converter is the byteentity ElementConverter (C2). It is schema-bound: a
// column family alone (the group name) is enough to look up the group
// definition needed to decode a value's fields, so FromKeyValue does not
// need a schema argument on every call.
type Converter struct {
	schema *graph.Schema
}

func NewConverter(schema *graph.Schema) *Converter { return &Converter{schema: schema} }

var _ keypkg.ElementConverter = (*Converter)(nil)

func (c *Converter) ToKeys(e graph.Element) (graph.Key, *graph.Key, error) {
	group, ok := c.schema.Group(e.Group())
	if !ok {
		return graph.Key{}, nil, graphstoreerr.WrapCodec(nil, "unknown group %q", e.Group())
	}
	switch el := e.(type) {
	case *graph.Entity:
		return c.entityKey(group, el)
	case *graph.Edge:
		return c.edgeKeys(group, el)
	default:
		return graph.Key{}, nil, graphstoreerr.WrapCodec(nil, "unsupported element type %T", e)
	}
}

func (c *Converter) entityKey(group *graph.GroupSchema, e *graph.Entity) (graph.Key, *graph.Key, error) {
	row, err := entityRow(e.Vertex)
	if err != nil {
		return graph.Key{}, nil, err
	}
	cq, cv, ts, err := buildColumns(group, e.Properties())
	if err != nil {
		return graph.Key{}, nil, err
	}
	return graph.Key{
		Row:           row,
		ColFamily:     []byte(group.Name),
		ColQualifier:  cq,
		ColVisibility: cv,
		Timestamp:     ts,
	}, nil, nil
}

func (c *Converter) edgeKeys(group *graph.GroupSchema, e *graph.Edge) (graph.Key, *graph.Key, error) {
	var m1, m2 byte
	if e.Directed {
		m1, m2 = markerDirectedSourceFirst, markerDirectedDestFirst
	} else {
		m1, m2 = markerUndirected, markerUndirected
	}
	row1, err := edgeRow(e.Source, e.Destination, m1)
	if err != nil {
		return graph.Key{}, nil, err
	}
	row2, err := edgeRow(e.Destination, e.Source, m2)
	if err != nil {
		return graph.Key{}, nil, err
	}
	cq, cv, ts, err := buildColumns(group, e.Properties())
	if err != nil {
		return graph.Key{}, nil, err
	}
	cf := []byte(group.Name)
	key1 := graph.Key{Row: row1, ColFamily: cf, ColQualifier: cq, ColVisibility: cv, Timestamp: ts}
	key2 := graph.Key{Row: row2, ColFamily: cf, ColQualifier: cq, ColVisibility: cv, Timestamp: ts}
	return key1, &key2, nil
}

// buildColumns derives the column qualifier (group-by tuple), column
// visibility and timestamp shared by both row forms of an element.
func buildColumns(group *graph.GroupSchema, props *graph.Properties) (colQualifier, colVisibility []byte, timestamp int64, err error) {
	groupBy := group.GroupByProperties()
	fields := make([][]byte, 0, len(groupBy))
	for _, def := range groupBy {
		v, ok := props.Get(def.Name)
		if !ok {
			return nil, nil, 0, graphstoreerr.WrapCodec(nil, "group %q missing group-by property %q", group.Name, def.Name)
		}
		b, err := def.Serialiser.Serialise(v)
		if err != nil {
			return nil, nil, 0, graphstoreerr.WrapCodec(err, "group %q property %q", group.Name, def.Name)
		}
		fields = append(fields, b)
	}
	colQualifier = encodeFields(fields)

	if group.VisibilityProperty != "" {
		if v, ok := props.Get(group.VisibilityProperty); ok {
			def, _ := group.Property(group.VisibilityProperty)
			b, err := def.Serialiser.Serialise(v)
			if err != nil {
				return nil, nil, 0, graphstoreerr.WrapCodec(err, "group %q visibility property", group.Name)
			}
			colVisibility = b
		}
	}

	timestamp = time.Now().UnixMilli()
	if group.TimestampProperty != "" {
		if v, ok := props.Get(group.TimestampProperty); ok {
			switch n := v.(type) {
			case int64:
				timestamp = n
			case int:
				timestamp = int64(n)
			default:
				return nil, nil, 0, graphstoreerr.WrapCodec(nil, "group %q timestamp property must be an integer", group.Name)
			}
		}
	}
	return colQualifier, colVisibility, timestamp, nil
}

func (c *Converter) ToValue(e graph.Element) ([]byte, error) {
	group, ok := c.schema.Group(e.Group())
	if !ok {
		return nil, graphstoreerr.WrapCodec(nil, "unknown group %q", e.Group())
	}
	props := e.Properties()
	nonGroupBy := group.NonGroupByProperties()
	fields := make([][]byte, 0, len(nonGroupBy))
	for _, def := range nonGroupBy {
		v, ok := props.Get(def.Name)
		if !ok {
			fields = append(fields, nil)
			continue
		}
		b, err := def.Serialiser.Serialise(v)
		if err != nil {
			return nil, graphstoreerr.WrapCodec(err, "group %q property %q", group.Name, def.Name)
		}
		fields = append(fields, b)
	}
	return encodeFields(fields), nil
}

func (c *Converter) FromKeyValue(key graph.Key, value []byte, matchedVertex string) (graph.Element, error) {
	group, ok := c.schema.Group(string(key.ColFamily))
	if !ok {
		return nil, graphstoreerr.WrapCodec(nil, "unknown group %q", string(key.ColFamily))
	}

	props := graph.NewProperties()

	nonGroupBy := group.NonGroupByProperties()
	valueFields, err := decodeFields(value, len(nonGroupBy))
	if err != nil {
		return nil, graphstoreerr.WrapCodec(err, "group %q value", group.Name)
	}
	for i, def := range nonGroupBy {
		if len(valueFields[i]) == 0 {
			continue
		}
		v, err := def.Serialiser.Deserialise(valueFields[i])
		if err != nil {
			return nil, graphstoreerr.WrapCodec(err, "group %q property %q", group.Name, def.Name)
		}
		props.Set(def.Name, v)
	}

	groupBy := group.GroupByProperties()
	qualifierFields, err := decodeFields(key.ColQualifier, len(groupBy))
	if err != nil {
		return nil, graphstoreerr.WrapCodec(err, "group %q column qualifier", group.Name)
	}
	for i, def := range groupBy {
		v, err := def.Serialiser.Deserialise(qualifierFields[i])
		if err != nil {
			return nil, graphstoreerr.WrapCodec(err, "group %q property %q", group.Name, def.Name)
		}
		props.Set(def.Name, v)
	}

	if group.VisibilityProperty != "" && len(key.ColVisibility) > 0 {
		def, _ := group.Property(group.VisibilityProperty)
		v, err := def.Serialiser.Deserialise(key.ColVisibility)
		if err != nil {
			return nil, graphstoreerr.WrapCodec(err, "group %q visibility property", group.Name)
		}
		props.Set(group.VisibilityProperty, v)
	}
	if group.TimestampProperty != "" {
		props.Set(group.TimestampProperty, key.Timestamp)
	}

	if vertex, ok := decodeEntityRow(key.Row); ok {
		e := graph.NewEntity(group.Name, vertex)
		e.Props = props
		return e, nil
	}
	if first, second, marker, ok := decodeEdgeRow(key.Row); ok {
		directed := marker == markerDirectedSourceFirst || marker == markerDirectedDestFirst
		source, destination := first, second
		if marker == markerDirectedDestFirst {
			source, destination = second, first
		}
		e := graph.NewEdge(group.Name, source, destination, directed)
		e.Props = props
		return e, nil
	}
	return nil, graphstoreerr.WrapCodec(nil, "malformed row bytes for group %q", group.Name)
}
