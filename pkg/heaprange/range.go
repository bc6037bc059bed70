package heaprange

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Range is a half-open interval [begin, end) on the alias number line.
// The zero value is the empty range and is never assigned to a heap.
type Range struct {
	begin uint32
	end   uint32
}

// New returns the range [begin, end).
func New(begin, end uint32) Range {
	return Range{begin: begin, end: end}
}

// Single returns the one slot wide range [slot, slot+1).
func Single(slot uint32) Range {
	if slot == math.MaxUint32 {
		panic(fmt.Sprintf("slot %d does not fit on the number line", slot))
	}
	return Range{begin: slot, end: slot + 1}
}

// Top returns the range that overlaps every non-empty range.
func Top() Range {
	return Range{begin: 0, end: math.MaxUint32}
}

// Begin returns the lower bound of r.
func (r Range) Begin() uint32 { return r.begin }

// End returns the exclusive upper bound of r.
func (r Range) End() uint32 { return r.end }

// Width returns the number of slots covered by r.
func (r Range) Width() uint32 {
	if !r.IsValid() {
		return 0
	}
	return r.end - r.begin
}

func (r Range) IsZero() bool {
	return r == Range{}
}

// IsValid reports whether r covers at least one slot.
func (r Range) IsValid() bool {
	return r.begin < r.end
}

func (r Range) IsTop() bool {
	return r == Top()
}

func (r Range) String() string {
	switch {
	case r.IsZero():
		return "none"
	case r.IsTop():
		return "top"
	}
	return fmt.Sprintf("[%d...%d)", r.begin, r.end)
}

// ParseRange parses a range written as "begin-end", end exclusive, or the
// word "top".
func ParseRange(s string) (Range, error) {
	var r Range
	if s == "top" {
		return Top(), nil
	}
	h := strings.IndexByte(s, '-')
	if h == -1 {
		return r, fmt.Errorf("no hyphen in range %q", s)
	}
	from, to := s[:h], s[h+1:]
	begin, err := strconv.ParseUint(from, 10, 32)
	if err != nil {
		return r, fmt.Errorf("invalid begin %q in range %q", from, s)
	}
	end, err := strconv.ParseUint(to, 10, 32)
	if err != nil {
		return r, fmt.Errorf("invalid end %q in range %q", to, s)
	}
	r = New(uint32(begin), uint32(end))
	if !r.IsValid() {
		return Range{}, fmt.Errorf("range %q is empty", s)
	}
	return r, nil
}

// Contains reports whether slot lies in r.
func (r Range) Contains(slot uint32) bool {
	return r.begin <= slot && slot < r.end
}

// Overlaps reports whether r and other share at least one slot. Empty
// ranges overlap nothing.
func (r Range) Overlaps(other Range) bool {
	if !r.IsValid() || !other.IsValid() {
		return false
	}
	return r.begin < other.end && other.begin < r.end
}

func (r Range) Less(other Range) bool {
	if r.begin != other.begin {
		return r.begin < other.begin
	}
	return other.end < r.end
}

// EntirelyBefore returns whether r ends at or before the start of other.
func (r Range) EntirelyBefore(other Range) bool {
	return r.end <= other.begin
}

// CoveredBy returns whether r is entirely contained within other.
func (r Range) CoveredBy(other Range) bool {
	return other.begin <= r.begin && r.end <= other.end
}

// InMiddleOf returns whether r is inside other, but not touching the
// edges of other.
func (r Range) InMiddleOf(other Range) bool {
	return other.begin < r.begin && r.end < other.end
}

// OverlapsStartOf returns whether r overlaps the start of other, but
// not all of other.
func (r Range) OverlapsStartOf(other Range) bool {
	return r.begin <= other.begin && r.end > other.begin && r.end < other.end
}

// OverlapsEndOf returns whether r overlaps the end of other, but not
// all of other.
func (r Range) OverlapsEndOf(other Range) bool {
	return other.begin < r.begin && r.begin < other.end && other.end <= r.end
}

// Relation is the position of one range relative to another.
type Relation int

const (
	Before Relation = iota
	After
	Same
	Inside
	Within
	OverlapsStart
	OverlapsEnd
	Encloses
)

var relationNames = [...]string{
	Before:        "before",
	After:         "after",
	Same:          "same as",
	Inside:        "inside",
	Within:        "within",
	OverlapsStart: "overlaps start of",
	OverlapsEnd:   "overlaps end of",
	Encloses:      "encloses",
}

func (rel Relation) String() string {
	if rel < 0 || int(rel) >= len(relationNames) {
		return "unknown"
	}
	return relationNames[rel]
}

// Relate returns where r lies relative to other. Inside means r is covered
// without touching either edge of other; Within means it is covered and
// shares at least one edge.
func (r Range) Relate(other Range) Relation {
	switch {
	case r.EntirelyBefore(other):
		return Before
	case other.EntirelyBefore(r):
		return After
	case r == other:
		return Same
	case r.InMiddleOf(other):
		return Inside
	case r.CoveredBy(other):
		return Within
	case r.OverlapsStartOf(other):
		return OverlapsStart
	case r.OverlapsEndOf(other):
		return OverlapsEnd
	}
	return Encloses
}

// Merge returns the minimum and sorted set of ranges that cover rr.
// It refuses to merge when one of the inputs is empty.
func Merge(rr []Range) (out []Range, valid bool) {
	switch len(rr) {
	case 0:
		return nil, true
	case 1:
		if !rr[0].IsValid() {
			return nil, false
		}
		return []Range{rr[0]}, true
	}

	sorted := make([]Range, len(rr))
	copy(sorted, rr)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	out = make([]Range, 1, len(sorted))
	out[0] = sorted[0]
	if !out[0].IsValid() {
		return nil, false
	}
	for _, r := range sorted[1:] {
		prev := &out[len(out)-1]
		switch {
		case !r.IsValid():
			return nil, false
		case prev.end < r.begin:
			// prev       r
			// b----e  b-----e
			out = append(out, r)
		case prev.end < r.end:
			// prev and r touch or partially overlap
			//
			// b------e
			//     b-----e
			prev.end = r.end
		default:
			// r entirely contained in prev, nothing to do.
		}
	}
	return out, true
}
