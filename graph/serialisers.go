package graph

import (
	"encoding/binary"
	"fmt"
	"math"

	"elementstore/internal/graphstoreerr"
)

// StringSerialiser serialises a string as its raw UTF-8 bytes. It is
// order-preserving (byte-lexicographic order on UTF-8 matches string
// order) but, per spec §4.1 ("Row encoding"), the delimiter byte must
// never appear in a value used in a row — Serialise rejects any string
// containing the reserved delimiter rather than attempt to escape it.
type StringSerialiser struct {
	// Delim is the reserved delimiter byte this serialiser must avoid
	// producing. Zero value 0x00 is used when unset.
	Delim byte
}

func (s StringSerialiser) delim() byte {
	return s.Delim
}

func (s StringSerialiser) Serialise(v interface{}) ([]byte, error) {
	str, ok := v.(string)
	if !ok {
		return nil, graphstoreerr.WrapCodec(fmt.Errorf("got %T", v), "expected string")
	}
	b := []byte(str)
	for _, c := range b {
		if c == s.delim() {
			return nil, graphstoreerr.WrapCodec(nil, "string value contains reserved delimiter byte 0x%02x", s.delim())
		}
	}
	return b, nil
}

func (s StringSerialiser) Deserialise(b []byte) (interface{}, error) {
	return string(b), nil
}

func (s StringSerialiser) OrderPreserving() bool { return true }

// Int64Serialiser encodes a signed 64-bit integer as 8 big-endian bytes
// with the sign bit flipped, so byte-lexicographic order matches integer
// order (the standard order-preserving trick for twos-complement ints).
type Int64Serialiser struct{}

func (Int64Serialiser) Serialise(v interface{}) ([]byte, error) {
	i, ok := toInt64(v)
	if !ok {
		return nil, graphstoreerr.WrapCodec(fmt.Errorf("got %T", v), "expected integer")
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(i)^(1<<63))
	return buf, nil
}

func (Int64Serialiser) Deserialise(b []byte) (interface{}, error) {
	if len(b) != 8 {
		return nil, graphstoreerr.WrapCodec(nil, "int64 value must be 8 bytes, got %d", len(b))
	}
	u := binary.BigEndian.Uint64(b) ^ (1 << 63)
	return int64(u), nil
}

func (Int64Serialiser) OrderPreserving() bool { return true }

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	default:
		return 0, false
	}
}

// Float64Serialiser encodes a float64 order-preservingly: flip the sign
// bit for non-negatives, flip every bit for negatives.
type Float64Serialiser struct{}

func (Float64Serialiser) Serialise(v interface{}) ([]byte, error) {
	f, ok := v.(float64)
	if !ok {
		return nil, graphstoreerr.WrapCodec(fmt.Errorf("got %T", v), "expected float64")
	}
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, bits)
	return buf, nil
}

func (Float64Serialiser) Deserialise(b []byte) (interface{}, error) {
	if len(b) != 8 {
		return nil, graphstoreerr.WrapCodec(nil, "float64 value must be 8 bytes, got %d", len(b))
	}
	bits := binary.BigEndian.Uint64(b)
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits), nil
}

func (Float64Serialiser) OrderPreserving() bool { return true }

// BoolSerialiser encodes false as 0x00, true as 0x01 — order-preserving.
type BoolSerialiser struct{}

func (BoolSerialiser) Serialise(v interface{}) ([]byte, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, graphstoreerr.WrapCodec(fmt.Errorf("got %T", v), "expected bool")
	}
	if b {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

func (BoolSerialiser) Deserialise(b []byte) (interface{}, error) {
	if len(b) != 1 {
		return nil, graphstoreerr.WrapCodec(nil, "bool value must be 1 byte, got %d", len(b))
	}
	return b[0] != 0, nil
}

func (BoolSerialiser) OrderPreserving() bool { return true }

// BytesSerialiser passes raw bytes through unchanged; not order-preserving
// in general (two byte strings of different lengths sharing a prefix sort
// by length past the shared prefix only if no escaping is applied, which
// this serialiser does not attempt).
type BytesSerialiser struct{}

func (BytesSerialiser) Serialise(v interface{}) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, graphstoreerr.WrapCodec(fmt.Errorf("got %T", v), "expected []byte")
	}
	return b, nil
}

func (BytesSerialiser) Deserialise(b []byte) (interface{}, error) { return b, nil }
func (BytesSerialiser) OrderPreserving() bool                     { return false }
