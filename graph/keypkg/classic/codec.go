package classic

import (
	"time"

	"elementstore/graph"
	"elementstore/graph/keypkg"
	"elementstore/internal/graphstoreerr"
)

// Converter is the classic ElementConverter (C2).
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
	cq, err := encodeQualifier(markerNone, group, e.Properties())
	if err != nil {
		return graph.Key{}, nil, err
	}
	cv, ts := visibilityAndTimestamp(group, e.Properties())
	return graph.Key{Row: row, ColFamily: []byte(group.Name), ColQualifier: cq, ColVisibility: cv, Timestamp: ts}, nil, nil
}

func (c *Converter) edgeKeys(group *graph.GroupSchema, e *graph.Edge) (graph.Key, *graph.Key, error) {
	var m1, m2 byte
	if e.Directed {
		m1, m2 = markerDirectedSourceFirst, markerDirectedDestFirst
	} else {
		m1, m2 = markerUndirected, markerUndirected
	}
	row1, err := edgeRow(e.Source, e.Destination)
	if err != nil {
		return graph.Key{}, nil, err
	}
	row2, err := edgeRow(e.Destination, e.Source)
	if err != nil {
		return graph.Key{}, nil, err
	}
	cq1, err := encodeQualifier(m1, group, e.Properties())
	if err != nil {
		return graph.Key{}, nil, err
	}
	cq2, err := encodeQualifier(m2, group, e.Properties())
	if err != nil {
		return graph.Key{}, nil, err
	}
	cv, ts := visibilityAndTimestamp(group, e.Properties())
	cf := []byte(group.Name)
	key1 := graph.Key{Row: row1, ColFamily: cf, ColQualifier: cq1, ColVisibility: cv, Timestamp: ts}
	key2 := graph.Key{Row: row2, ColFamily: cf, ColQualifier: cq2, ColVisibility: cv, Timestamp: ts}
	return key1, &key2, nil
}

func visibilityAndTimestamp(group *graph.GroupSchema, props *graph.Properties) (colVisibility []byte, timestamp int64) {
	if group.VisibilityProperty != "" {
		if v, ok := props.Get(group.VisibilityProperty); ok {
			if def, ok := group.Property(group.VisibilityProperty); ok {
				if b, err := def.Serialiser.Serialise(v); err == nil {
					colVisibility = b
				}
			}
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
			}
		}
	}
	return colVisibility, timestamp
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

	marker, props, err := decodeQualifier(key.ColQualifier, group)
	if err != nil {
		return nil, err
	}

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

	if group.VisibilityProperty != "" && len(key.ColVisibility) > 0 {
		if def, ok := group.Property(group.VisibilityProperty); ok {
			v, err := def.Serialiser.Deserialise(key.ColVisibility)
			if err != nil {
				return nil, graphstoreerr.WrapCodec(err, "group %q visibility property", group.Name)
			}
			props.Set(group.VisibilityProperty, v)
		}
	}
	if group.TimestampProperty != "" {
		props.Set(group.TimestampProperty, key.Timestamp)
	}

	if vertex, ok := decodeEntityRow(key.Row); ok {
		e := graph.NewEntity(group.Name, vertex)
		e.Props = props
		return e, nil
	}
	first, second, ok := decodeEdgeRow(key.Row)
	if !ok {
		return nil, graphstoreerr.WrapCodec(nil, "malformed row bytes for group %q", group.Name)
	}
	directed := marker == markerDirectedSourceFirst || marker == markerDirectedDestFirst
	source, destination := first, second
	if marker == markerDirectedDestFirst {
		source, destination = second, first
	}
	e := graph.NewEdge(group.Name, source, destination, directed)
	e.Props = props
	return e, nil
}
