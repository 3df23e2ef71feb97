package expr

import (
	"bytes"
	"math"

	"github.com/kvsql/engine/value"
)

// Compare returns a total order between two non-NULL Any values of the
// same kind, or ok=false if the comparison is unordered: a float NaN
// operand (per §3.1/§4.1: "NaN compares unordered, sorts greatest" —
// greatest-ness only matters for the encode-order property in §3.5/§8,
// not for scalar comparison, which reports UNKNOWN), or a kind Compare
// does not order (blob, clob, unknown).
func Compare(a, b value.Any) (cmp int, ok bool) {
	switch a.Kind() {
	case value.KindBoolean:
		av, _ := a.AsBool()
		bv, _ := b.AsBool()
		return boolCmp(av, bv), true
	case value.KindInt1, value.KindInt2, value.KindInt4, value.KindInt8:
		av, _ := a.AsInt()
		bv, _ := b.AsInt()
		return intCmp(av, bv), true
	case value.KindFloat4, value.KindFloat8:
		av, _ := a.AsFloat()
		bv, _ := b.AsFloat()
		if math.IsNaN(av) || math.IsNaN(bv) {
			return 0, false
		}
		return floatCmp(av, bv), true
	case value.KindDecimal:
		av, _ := a.AsDecimal()
		bv, _ := b.AsDecimal()
		return av.Cmp(bv), true
	case value.KindCharacter, value.KindOctet:
		ab, _ := a.AsBytes()
		bb, _ := b.AsBytes()
		return bytes.Compare(ab, bb), true
	case value.KindDate:
		av, _ := a.AsDate()
		bv, _ := b.AsDate()
		return intCmp(av, bv), true
	case value.KindTimeOfDay:
		av, _, _, _ := a.AsTimeOfDay()
		bv, _, _, _ := b.AsTimeOfDay()
		return intCmp(av, bv), true
	case value.KindTimePoint:
		asec, anan, _, _, _ := a.AsTimePoint()
		bsec, bnan, _, _, _ := b.AsTimePoint()
		if c := intCmp(asec, bsec); c != 0 {
			return c, true
		}
		return intCmp(anan, bnan), true
	default:
		return 0, false
	}
}

func boolCmp(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a && b:
		return -1
	default:
		return 1
	}
}

func intCmp(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func floatCmp(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
