package heaprange

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestParseRange(t *testing.T) {
	cases := map[string]struct {
		input       string
		expected    Range
		expectedErr bool
	}{
		"Normal": {
			input:    "10-13",
			expected: New(10, 13),
		},
		"NoHyphen": {
			input:       "10",
			expectedErr: true,
		},
		"BadBegin": {
			input:       "a-13",
			expectedErr: true,
		},
		"BadEnd": {
			input:       "10-4294967296",
			expectedErr: true,
		},
		"Empty": {
			input:       "5-5",
			expectedErr: true,
		},
		"Top": {
			input:    "top",
			expected: Top(),
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r, err := ParseRange(tc.input)
			if tc.expectedErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, r)
			if !r.IsTop() {
				assert.Equal(t, tc.input, fmt.Sprintf("%d-%d", r.Begin(), r.End()))
			}
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "none", Range{}.String())
	assert.Equal(t, "top", Top().String())
	assert.Equal(t, "[3...4)", Single(3).String())
	assert.Equal(t, "[3...9)", New(3, 9).String())
}

func TestSingle(t *testing.T) {
	r := Single(7)
	assert.Equal(t, uint32(1), r.Width())
	assert.True(t, r.Contains(7))
	assert.False(t, r.Contains(8))
	assert.Panics(t, func() { Single(^uint32(0)) })
}

func TestPredicates(t *testing.T) {
	cases := map[string]struct {
		a, b            Range
		overlaps        bool
		coveredBy       bool
		entirelyBefore  bool
		inMiddleOf      bool
		overlapsStartOf bool
		overlapsEndOf   bool
	}{
		"Disjoint": {
			a: New(0, 2), b: New(2, 4),
			entirelyBefore: true,
		},
		"Equal": {
			a: New(2, 4), b: New(2, 4),
			overlaps: true, coveredBy: true,
		},
		"Inside": {
			a: New(3, 4), b: New(2, 6),
			overlaps: true, coveredBy: true, inMiddleOf: true,
		},
		"StartOf": {
			a: New(1, 3), b: New(2, 6),
			overlaps: true, overlapsStartOf: true,
		},
		"EndOf": {
			a: New(5, 8), b: New(2, 6),
			overlaps: true, overlapsEndOf: true,
		},
		"EmptyNeverOverlaps": {
			a: Range{}, b: Top(),
			coveredBy: true, entirelyBefore: true,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.overlaps, tc.a.Overlaps(tc.b), "overlaps")
			assert.Equal(t, tc.overlaps, tc.b.Overlaps(tc.a), "overlaps is symmetric")
			assert.Equal(t, tc.coveredBy, tc.a.CoveredBy(tc.b), "coveredBy")
			assert.Equal(t, tc.entirelyBefore, tc.a.EntirelyBefore(tc.b), "entirelyBefore")
			assert.Equal(t, tc.inMiddleOf, tc.a.InMiddleOf(tc.b), "inMiddleOf")
			assert.Equal(t, tc.overlapsStartOf, tc.a.OverlapsStartOf(tc.b), "overlapsStartOf")
			assert.Equal(t, tc.overlapsEndOf, tc.a.OverlapsEndOf(tc.b), "overlapsEndOf")
		})
	}
}

func TestRelate(t *testing.T) {
	cases := map[string]struct {
		a, b     Range
		expected Relation
		inverse  Relation
		name     string
	}{
		"Before": {
			a: New(0, 2), b: New(2, 4),
			expected: Before, inverse: After, name: "before",
		},
		"Same": {
			a: New(2, 4), b: New(2, 4),
			expected: Same, inverse: Same, name: "same as",
		},
		"Inside": {
			a: New(3, 4), b: New(2, 6),
			expected: Inside, inverse: Encloses, name: "inside",
		},
		"WithinSharingEdge": {
			a: New(2, 3), b: New(2, 6),
			expected: Within, inverse: Encloses, name: "within",
		},
		"OverlapsStart": {
			a: New(1, 3), b: New(2, 6),
			expected: OverlapsStart, inverse: OverlapsEnd, name: "overlaps start of",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.a.Relate(tc.b))
			assert.Equal(t, tc.inverse, tc.b.Relate(tc.a))
			assert.Equal(t, tc.name, tc.expected.String())
		})
	}
	assert.Equal(t, "unknown", Relation(42).String())
}

func TestMerge(t *testing.T) {
	cases := map[string]struct {
		input    []Range
		expected []Range
		valid    bool
	}{
		"Nil": {
			valid: true,
		},
		"Touching": {
			input:    []Range{New(2, 4), New(0, 2)},
			expected: []Range{New(0, 4)},
			valid:    true,
		},
		"Gap": {
			input:    []Range{New(5, 6), New(0, 2), New(1, 3)},
			expected: []Range{New(0, 3), New(5, 6)},
			valid:    true,
		},
		"Contained": {
			input:    []Range{New(0, 10), New(3, 4)},
			expected: []Range{New(0, 10)},
			valid:    true,
		},
		"Invalid": {
			input: []Range{New(0, 10), {}},
			valid: false,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			out, valid := Merge(tc.input)
			assert.Equal(t, tc.valid, valid)
			if diff := cmp.Diff(tc.expected, out, cmp.AllowUnexported(Range{})); diff != "" {
				t.Errorf("%s: -want, +got:\n%s", name, diff)
			}
		})
	}
}
