package abstractheap

import (
	"fmt"

	"fortio.org/safecast"
)

// NumberedSmallCount is the number of numbered heaps created up front.
const NumberedSmallCount = 16

// NumberedFamily is a family of heaps addressed by an unsigned number,
// for example a local variable slot. Numbered heaps carry no offset.
type NumberedFamily struct {
	indexed *IndexedFamily
}

func NewNumberedFamily(parent *Node, name string) *NumberedFamily {
	return newNumberedFamily(parent, name, nil)
}

func newNumberedFamily(parent *Node, name string, onCreate func(*Node)) *NumberedFamily {
	return &NumberedFamily{
		indexed: newIndexedFamily(parent, name, 0, 0, NumberedSmallCount, onCreate),
	}
}

func (r *NumberedFamily) At(number uint64) *Node {
	index, err := safecast.Conv[int64](number)
	if err != nil {
		panic(fmt.Sprintf("family %s: number %d out of range: %v", r.indexed.name, number, err))
	}
	return r.indexed.At(index)
}

func (r *NumberedFamily) AtAnyNumber() *Node { return r.indexed.AtAnyIndex() }

// Indexed exposes the underlying family.
func (r *NumberedFamily) Indexed() *IndexedFamily { return r.indexed }

// AbsoluteFamily is a family of heaps addressed by an absolute address.
type AbsoluteFamily struct {
	indexed *IndexedFamily
}

func NewAbsoluteFamily(parent *Node, name string) *AbsoluteFamily {
	return newAbsoluteFamily(parent, name, nil)
}

func newAbsoluteFamily(parent *Node, name string, onCreate func(*Node)) *AbsoluteFamily {
	return &AbsoluteFamily{
		indexed: newIndexedFamily(parent, name, 0, 1, 0, onCreate),
	}
}

// At returns the heap for address. The address bits are reinterpreted as
// a signed index, so addresses in the upper half of the address space get
// negative names.
func (r *AbsoluteFamily) At(address uint64) *Node {
	return r.indexed.At(int64(address))
}

func (r *AbsoluteFamily) AtAnyAddress() *Node { return r.indexed.AtAnyIndex() }

// Indexed exposes the underlying family.
func (r *AbsoluteFamily) Indexed() *IndexedFamily { return r.indexed }
