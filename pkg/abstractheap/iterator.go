package abstractheap

type iteratorFrame struct {
	node  *Node
	depth int
}

// TreeIterator walks heaps in pre-order, following the numbering order of
// children. The tree must not be modified while iterating.
type TreeIterator struct {
	stack   []iteratorFrame
	current iteratorFrame
}

func newIterator(roots []*Node) *TreeIterator {
	iter := &TreeIterator{stack: make([]iteratorFrame, 0, len(roots))}
	for i := len(roots) - 1; i >= 0; i-- {
		iter.stack = append(iter.stack, iteratorFrame{node: roots[i]})
	}
	return iter
}

// Next moves to the next heap. It returns false if there is none.
func (iter *TreeIterator) Next() bool {
	if len(iter.stack) == 0 {
		iter.current = iteratorFrame{}
		return false
	}
	iter.current = iter.stack[len(iter.stack)-1]
	iter.stack = iter.stack[:len(iter.stack)-1]
	children := iter.current.node.children
	for i := len(children) - 1; i >= 0; i-- {
		iter.stack = append(iter.stack, iteratorFrame{node: children[i], depth: iter.current.depth + 1})
	}
	return true
}

func (iter *TreeIterator) Node() *Node { return iter.current.node }

// Depth is 0 for the heap the walk started from.
func (iter *TreeIterator) Depth() int { return iter.current.depth }
