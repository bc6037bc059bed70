package abstractheap

import (
	"fmt"

	"github.com/henderiw/heaprange/pkg/idxtable"
)

// IndexedFamily is a set of heaps addressed by index, such as the elements
// of an array with a uniform element stride. Every indexed heap is a child
// of the family's catch-all heap, which stands for an index that is only
// known at run time.
type IndexedFamily struct {
	name          string
	offset        int64
	elementStride int64
	anyIndex      *Node
	small         []*Node
	large         idxtable.Table[*Node]
	onCreate      func(*Node)
}

// NewIndexedFamily creates a family below parent. The heaps for indices
// 0..smallCount-1 are created up front; other indices are created on first
// use and cached.
func NewIndexedFamily(parent *Node, name string, offset, elementStride int64, smallCount int) *IndexedFamily {
	return newIndexedFamily(parent, name, offset, elementStride, smallCount, nil)
}

func newIndexedFamily(parent *Node, name string, offset, elementStride int64, smallCount int, onCreate func(*Node)) *IndexedFamily {
	if smallCount < 0 {
		panic(fmt.Sprintf("family %s: negative small index count %d", name, smallCount))
	}
	r := &IndexedFamily{
		name:          name,
		offset:        offset,
		elementStride: elementStride,
		anyIndex:      NewNode(name, offset, parent),
		small:         make([]*Node, smallCount),
		large:         idxtable.NewTable[*Node](),
		onCreate:      onCreate,
	}
	r.created(r.anyIndex)
	for i := range r.small {
		r.small[i] = r.newIndexNode(int64(i))
	}
	return r
}

func (r *IndexedFamily) Name() string         { return r.name }
func (r *IndexedFamily) Offset() int64        { return r.offset }
func (r *IndexedFamily) ElementStride() int64 { return r.elementStride }
func (r *IndexedFamily) SmallCount() int      { return len(r.small) }

// At returns the heap for a statically known index.
func (r *IndexedFamily) At(index int64) *Node {
	if index >= 0 && index < int64(len(r.small)) {
		return r.small[index]
	}
	return r.large.GetOrClaim(index, r.newIndexNode)
}

// AtAnyIndex returns the heap covering every index of the family.
func (r *IndexedFamily) AtAnyIndex() *Node {
	return r.anyIndex
}

// Lookup returns the heap for index without creating it.
func (r *IndexedFamily) Lookup(index int64) (*Node, bool) {
	if index >= 0 && index < int64(len(r.small)) {
		return r.small[index], true
	}
	n, err := r.large.Get(index)
	if err != nil {
		return nil, false
	}
	return n, true
}

// CachedHeap is a heap created on demand for an index outside the small
// prefix.
type CachedHeap struct {
	Index int64
	Heap  *Node
}

// Cached returns the heaps materialized outside the small prefix so far,
// in ascending index order.
func (r *IndexedFamily) Cached() []CachedHeap {
	cached := make([]CachedHeap, 0, r.large.Count())
	iter := r.large.Iterate()
	for iter.Next() {
		cached = append(cached, CachedHeap{Index: iter.ID(), Heap: iter.Value()})
	}
	return cached
}

func (r *IndexedFamily) newIndexNode(index int64) *Node {
	n := NewNode(IndexName(r.name, index), r.offset+index*r.elementStride, r.anyIndex)
	r.created(n)
	return n
}

func (r *IndexedFamily) created(n *Node) {
	if r.onCreate != nil {
		r.onCreate(n)
	}
}

// Index is an array index operand that is either a compile time constant
// or a value only known at run time.
type Index struct {
	value    int64
	constant bool
}

func ConstantIndex(v int64) Index { return Index{value: v, constant: true} }
func RuntimeIndex(v int64) Index  { return Index{value: v} }

// Constant returns the index value and whether it is statically known.
func (i Index) Constant() (int64, bool) { return i.value, i.constant }

// TypedAddress pairs an address with the heap that accesses through it
// touch.
type TypedAddress struct {
	Heap    *Node
	Address uint64
}

func (a TypedAddress) String() string {
	return fmt.Sprintf("%s @ %#x", a.Heap.Chain(), a.Address)
}

// Resolve computes the address of element index relative to base plus
// adjustment and the heap it belongs to. A constant index resolves to its
// own heap; a run time index is first masked, when mask is non-zero, and
// resolves to the catch-all heap. No bounds are checked and the address
// arithmetic wraps.
func (r *IndexedFamily) Resolve(base uint64, index Index, adjustment int64, mask uint64) TypedAddress {
	value, constant := index.Constant()
	if constant {
		heap := r.At(value)
		return TypedAddress{
			Heap:    heap,
			Address: base + uint64(heap.Offset()) + uint64(adjustment),
		}
	}
	if mask != 0 {
		value = int64(uint64(value) & mask)
	}
	return TypedAddress{
		Heap:    r.anyIndex,
		Address: base + uint64(r.offset) + uint64(value)*uint64(r.elementStride) + uint64(adjustment),
	}
}
