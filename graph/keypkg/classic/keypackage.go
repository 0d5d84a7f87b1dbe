package classic

import (
	"elementstore/graph"
	"elementstore/graph/keypkg"
)

// Identifier is the store.keypackage.class value this layout registers
// under.
const Identifier = "classic"

// KeyPackage bundles the classic layout's C1-C4 implementations.
type KeyPackage struct {
	converter *Converter
}

var _ keypkg.KeyPackage = KeyPackage{}

func New(schema *graph.Schema) (keypkg.KeyPackage, error) {
	return KeyPackage{converter: NewConverter(schema)}, nil
}

func (k KeyPackage) Identifier() string                       { return Identifier }
func (k KeyPackage) KeyFunctor() keypkg.KeyFunctor             { return KeyFunctor{} }
func (k KeyPackage) ElementConverter() keypkg.ElementConverter { return k.converter }
func (k KeyPackage) RangeFactory() keypkg.RangeFactory         { return RangeFactory{} }
func (k KeyPackage) IteratorFactory() keypkg.IteratorFactory   { return keypkg.DefaultIteratorFactory{} }

func init() {
	keypkg.Register(Identifier, func(schema *graph.Schema) (keypkg.KeyPackage, error) {
		return New(schema)
	})
}
