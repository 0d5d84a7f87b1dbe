// Package classic is the alternate key-package layout named in spec §9:
// it keeps the same four-field key shape and dual-keying invariant as
// byteentity but places the layout decisions differently — the direction
// marker lives in the column qualifier's first byte instead of a row
// suffix, and group-by properties use fixed-width encoding with no length
// prefixes, trading flexibility (only fixed-width serialisers are valid
// group-by properties) for a denser qualifier. A google/btree-backed
// helper coalesces adjacent ranges a seed produces into fewer scans.
package classic

import (
	"bytes"
	"encoding/binary"

	"elementstore/graph"
	"elementstore/internal/graphstoreerr"
)

// delim is the reserved row-field delimiter, same reservation rule as
// byteentity: a vertex serialisation must never produce it.
const delim byte = 0x00

// Marker byte values placed in column qualifier byte 0. These intentionally
// match graph/iterator's MarkerUndirected/MarkerDirectedSourceFirst/
// MarkerDirectedDestFirst so both layouts feed the same DirectionStage.
const (
	markerNone                byte = 0x00 // entity rows carry no direction
	markerDirectedSourceFirst byte = 0x02
	markerDirectedDestFirst   byte = 0x03
	markerUndirected          byte = 0x04
)

var vertexSerialiser = graph.StringSerialiser{Delim: delim}

func encodeVertex(v string) ([]byte, error) {
	return vertexSerialiser.Serialise(v)
}

// entityRow is just the serialised vertex — no delimiter, no marker;
// classic distinguishes entity rows from edge rows by row shape: an entity
// row contains no delimiter byte (see decodeEntityRow).
func entityRow(vertex string) ([]byte, error) {
	return encodeVertex(vertex)
}

// edgeRow is "serialise(first) delim serialise(second)", with no trailing
// marker byte (the marker lives in the column qualifier instead).
func edgeRow(first, second string) ([]byte, error) {
	fb, err := encodeVertex(first)
	if err != nil {
		return nil, err
	}
	sb, err := encodeVertex(second)
	if err != nil {
		return nil, err
	}
	row := make([]byte, 0, len(fb)+len(sb)+1)
	row = append(row, fb...)
	row = append(row, delim)
	row = append(row, sb...)
	return row, nil
}

// decodeEntityRow succeeds for any row with no delimiter byte in it (an
// edge row always has exactly one).
func decodeEntityRow(row []byte) (vertex string, ok bool) {
	if bytes.IndexByte(row, delim) >= 0 {
		return "", false
	}
	v, err := vertexSerialiser.Deserialise(row)
	if err != nil {
		return "", false
	}
	return v.(string), true
}

func decodeEdgeRow(row []byte) (first, second string, ok bool) {
	idx := bytes.IndexByte(row, delim)
	if idx < 0 {
		return "", "", false
	}
	fv, err := vertexSerialiser.Deserialise(row[:idx])
	if err != nil {
		return "", "", false
	}
	sv, err := vertexSerialiser.Deserialise(row[idx+1:])
	if err != nil {
		return "", "", false
	}
	return fv.(string), sv.(string), true
}

// fixedWidth returns the encoded width classic requires a group-by
// property's type to have, and whether the type is supported at all —
// classic has no length prefixes, so every group-by property's encoded
// width must be knowable from its declared type alone.
func fixedWidth(t graph.PropertyType) (int, bool) {
	switch t {
	case graph.TypeInt, graph.TypeLong, graph.TypeFloat:
		return 8, true
	case graph.TypeBool:
		return 1, true
	default:
		return 0, false
	}
}

// encodeQualifier packs the marker byte followed by the fixed-width
// group-by field values, in schema order.
func encodeQualifier(marker byte, group *graph.GroupSchema, props *graph.Properties) ([]byte, error) {
	buf := make([]byte, 0, 1+8*len(group.GroupBy))
	buf = append(buf, marker)
	for _, def := range group.GroupByProperties() {
		width, ok := fixedWidth(def.Type)
		if !ok {
			return nil, graphstoreerr.WrapCodec(nil, "classic layout: group %q property %q has no fixed-width encoding", group.Name, def.Name)
		}
		v, ok := props.Get(def.Name)
		if !ok {
			return nil, graphstoreerr.WrapCodec(nil, "group %q missing group-by property %q", group.Name, def.Name)
		}
		b, err := def.Serialiser.Serialise(v)
		if err != nil {
			return nil, graphstoreerr.WrapCodec(err, "group %q property %q", group.Name, def.Name)
		}
		if len(b) != width {
			return nil, graphstoreerr.WrapCodec(nil, "group %q property %q: expected %d-byte encoding, got %d", group.Name, def.Name, width, len(b))
		}
		buf = append(buf, b...)
	}
	return buf, nil
}

// decodeQualifier reverses encodeQualifier.
func decodeQualifier(qualifier []byte, group *graph.GroupSchema) (marker byte, props *graph.Properties, err error) {
	if len(qualifier) < 1 {
		return 0, nil, graphstoreerr.WrapCodec(nil, "classic layout: empty column qualifier")
	}
	marker = qualifier[0]
	rest := qualifier[1:]
	props = graph.NewProperties()
	for _, def := range group.GroupByProperties() {
		width, ok := fixedWidth(def.Type)
		if !ok {
			return 0, nil, graphstoreerr.WrapCodec(nil, "classic layout: group %q property %q has no fixed-width encoding", group.Name, def.Name)
		}
		if len(rest) < width {
			return 0, nil, graphstoreerr.WrapCodec(nil, "classic layout: truncated column qualifier for group %q", group.Name)
		}
		v, err := def.Serialiser.Deserialise(rest[:width])
		if err != nil {
			return 0, nil, graphstoreerr.WrapCodec(err, "group %q property %q", group.Name, def.Name)
		}
		props.Set(def.Name, v)
		rest = rest[width:]
	}
	return marker, props, nil
}

// Value fields (the non-group-by properties) still use a length-prefixed
// encoding — classic's fixed-width rule applies only to the column
// qualifier, where no length prefixes are stored at all.

func appendLengthPrefixed(dst, b []byte) []byte {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(b)))
	dst = append(dst, lenBuf[:n]...)
	dst = append(dst, b...)
	return dst
}

func readLengthPrefixed(b []byte) (field, rest []byte, err error) {
	length, n := binary.Uvarint(b)
	if n <= 0 {
		return nil, nil, graphstoreerr.WrapCodec(nil, "malformed length prefix")
	}
	b = b[n:]
	if uint64(len(b)) < length {
		return nil, nil, graphstoreerr.WrapCodec(nil, "truncated length-prefixed field")
	}
	return b[:length], b[length:], nil
}

func encodeFields(fields [][]byte) []byte {
	var buf bytes.Buffer
	for _, f := range fields {
		buf.Write(appendLengthPrefixed(nil, f))
	}
	return buf.Bytes()
}

func decodeFields(b []byte, count int) ([][]byte, error) {
	out := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		field, rest, err := readLengthPrefixed(b)
		if err != nil {
			return nil, err
		}
		out = append(out, field)
		b = rest
	}
	if len(b) != 0 {
		return nil, graphstoreerr.WrapCodec(nil, "trailing bytes after decoding %d fields", count)
	}
	return out, nil
}
