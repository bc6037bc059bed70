package abstractheap

import (
	"math/bits"
	"strings"
)

const (
	posSplit  = "_"
	negSplit  = "_neg_"
	hexDigits = "0123456789abcdef"
)

// IndexName builds the name of the heap for a concrete index of the family
// called base: base_<hex> for non-negative indices and base_neg_<hex> for
// negative ones, using the fewest hex digits that hold the magnitude.
// For example index 5 of "FooBar" is "FooBar_5" and index -10 is
// "FooBar_neg_a".
func IndexName(base string, index int64) string {
	split := posSplit
	magnitude := uint64(index)
	if index < 0 {
		split = negSplit
		magnitude = ^uint64(index) + 1
	}

	numHexlets := 0
	for power := 4; power <= 64; power += 4 {
		if bits.Len64(magnitude) <= power {
			numHexlets = power >> 2
			break
		}
	}
	if numHexlets == 0 {
		panic("index magnitude exceeds 64 bits - should be impossible!")
	}

	var sb strings.Builder
	sb.Grow(len(base) + len(split) + numHexlets)
	sb.WriteString(base)
	sb.WriteString(split)
	for i := numHexlets - 1; i >= 0; i-- {
		sb.WriteByte(hexDigits[(magnitude>>(uint(i)*4))&0xf])
	}
	return sb.String()
}
