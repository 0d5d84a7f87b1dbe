// Package byteentity is the reference key-package layout (spec §4,
// "byteentity key package"): rows are built from delimiter-joined,
// order-preserving vertex bytes terminated by a one-byte marker, column
// qualifiers hold the group-by tuple, and values hold the length-prefixed
// non-group-by properties in schema order. It mirrors the Gaffer
// accumulo-store ByteEntityAccumuloElementConverter this layout is named
// after.
package byteentity

import (
	"bytes"
	"encoding/binary"

	"elementstore/graph"
	"elementstore/internal/graphstoreerr"
)

// delim is the reserved row-field delimiter. vertexSerialiser rejects any
// vertex ID containing it rather than attempt to escape it (spec §4.1).
const delim byte = 0x00

// Marker bytes distinguish what kind of row a key belongs to; the edge
// values match graph/iterator's MarkerUndirected/MarkerDirectedSourceFirst/
// MarkerDirectedDestFirst exactly (spec §3).
const (
	markerEntity              byte = 0x01
	markerDirectedSourceFirst byte = 0x02
	markerDirectedDestFirst   byte = 0x03
	markerUndirected          byte = 0x04
)

var vertexSerialiser = graph.StringSerialiser{Delim: delim}

func encodeVertex(v string) ([]byte, error) {
	b, err := vertexSerialiser.Serialise(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// entityRow builds "serialise(vertex) delim markerEntity".
func entityRow(vertex string) ([]byte, error) {
	vb, err := encodeVertex(vertex)
	if err != nil {
		return nil, err
	}
	row := make([]byte, 0, len(vb)+2)
	row = append(row, vb...)
	row = append(row, delim, markerEntity)
	return row, nil
}

// edgeRow builds "serialise(first) delim serialise(second) delim marker".
func edgeRow(first, second string, marker byte) ([]byte, error) {
	fb, err := encodeVertex(first)
	if err != nil {
		return nil, err
	}
	sb, err := encodeVertex(second)
	if err != nil {
		return nil, err
	}
	row := make([]byte, 0, len(fb)+len(sb)+3)
	row = append(row, fb...)
	row = append(row, delim)
	row = append(row, sb...)
	row = append(row, delim, marker)
	return row, nil
}

// decodeEntityRow reverses entityRow.
func decodeEntityRow(row []byte) (vertex string, ok bool) {
	if len(row) < 2 || row[len(row)-1] != markerEntity || row[len(row)-2] != delim {
		return "", false
	}
	v, err := vertexSerialiser.Deserialise(row[:len(row)-2])
	if err != nil {
		return "", false
	}
	return v.(string), true
}

// decodeEdgeRow reverses edgeRow, returning first, second and the marker.
func decodeEdgeRow(row []byte) (first, second string, marker byte, ok bool) {
	if len(row) < 3 {
		return "", "", 0, false
	}
	marker = row[len(row)-1]
	if row[len(row)-2] != delim {
		return "", "", 0, false
	}
	body := row[:len(row)-2]
	idx := bytes.IndexByte(body, delim)
	if idx < 0 {
		return "", "", 0, false
	}
	fv, err := vertexSerialiser.Deserialise(body[:idx])
	if err != nil {
		return "", "", 0, false
	}
	sv, err := vertexSerialiser.Deserialise(body[idx+1:])
	if err != nil {
		return "", "", 0, false
	}
	return fv.(string), sv.(string), marker, true
}

// appendLengthPrefixed appends a uvarint length prefix followed by b.
func appendLengthPrefixed(dst []byte, b []byte) []byte {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(b)))
	dst = append(dst, lenBuf[:n]...)
	dst = append(dst, b...)
	return dst
}

// readLengthPrefixed reads one length-prefixed field from b, returning the
// field and the remaining bytes.
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

// encodeFields length-prefix-joins a set of already-serialised fields, in
// the order given.
func encodeFields(fields [][]byte) []byte {
	var buf bytes.Buffer
	for _, f := range fields {
		buf.Write(appendLengthPrefixed(nil, f))
	}
	return buf.Bytes()
}

// decodeFields splits b into exactly len(names) length-prefixed fields.
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
