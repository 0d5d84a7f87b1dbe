package graph

import "elementstore/internal/graphstoreerr"

// SumAggregator adds two numeric values. Accepts int64 or float64 on
// either side; the result type follows the wider operand (float64 wins if
// either side is float64).
type SumAggregator struct{}

func (SumAggregator) Aggregate(a, b interface{}) (interface{}, error) {
	af, aIsFloat, aok := numeric(a)
	bf, bIsFloat, bok := numeric(b)
	if !aok || !bok {
		return nil, graphstoreerr.WrapCodec(nil, "SumAggregator: non-numeric operand")
	}
	if aIsFloat || bIsFloat {
		return af + bf, nil
	}
	return int64(af) + int64(bf), nil
}

// MaxAggregator keeps the larger of two numeric values.
type MaxAggregator struct{}

func (MaxAggregator) Aggregate(a, b interface{}) (interface{}, error) {
	af, aIsFloat, aok := numeric(a)
	bf, bIsFloat, bok := numeric(b)
	if !aok || !bok {
		return nil, graphstoreerr.WrapCodec(nil, "MaxAggregator: non-numeric operand")
	}
	if bf > af {
		if bIsFloat {
			return bf, nil
		}
		return int64(bf), nil
	}
	if aIsFloat {
		return af, nil
	}
	return int64(af), nil
}

func numeric(v interface{}) (value float64, isFloat, ok bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), false, true
	case int:
		return float64(n), false, true
	case float64:
		return n, true, true
	default:
		return 0, false, false
	}
}
