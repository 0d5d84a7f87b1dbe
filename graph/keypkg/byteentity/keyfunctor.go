package byteentity

import (
	"elementstore/graph"
	"elementstore/graph/keypkg"
)

// KeyFunctor is the byteentity C1 implementation: the row bytes alone are
// the bloom-filter key, since every point lookup this layout performs
// (EntitySeed, EdgeSeed) tests an exact row.
type KeyFunctor struct{}

var _ keypkg.KeyFunctor = KeyFunctor{}

func (KeyFunctor) BloomKey(key graph.Key) []byte {
	return key.Row
}
