package classic

import (
	"elementstore/graph"
	"elementstore/graph/keypkg"
)

// KeyFunctor is the classic C1 implementation — same reasoning as
// byteentity's: every point lookup tests an exact row.
type KeyFunctor struct{}

var _ keypkg.KeyFunctor = KeyFunctor{}

func (KeyFunctor) BloomKey(key graph.Key) []byte {
	return key.Row
}
