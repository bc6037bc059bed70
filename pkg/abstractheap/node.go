package abstractheap

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/henderiw/heaprange/pkg/heaprange"
	"k8s.io/apimachinery/pkg/labels"
)

// Node is a named region of the abstract heap. A node owns its children;
// the parent pointer is only a back reference kept in sync by Reparent.
type Node struct {
	name     string
	offset   int64
	labels   labels.Set
	parent   *Node
	children []*Node
	rng      heaprange.Range
}

// NewNode creates a heap and, when parent is non-nil, appends it to the
// children of parent.
func NewNode(name string, offset int64, parent *Node) *Node {
	n := &Node{
		name:   name,
		offset: offset,
	}
	n.Reparent(parent)
	return n
}

func (n *Node) Name() string  { return n.name }
func (n *Node) Offset() int64 { return n.offset }
func (n *Node) Parent() *Node { return n.parent }
func (n *Node) IsRoot() bool  { return n.parent == nil }
func (n *Node) IsLeaf() bool  { return len(n.children) == 0 }

func (n *Node) Labels() labels.Set {
	if n.labels == nil {
		return labels.Set{}
	}
	return n.labels
}

// SetLabels attaches descriptive metadata used for selection.
func (n *Node) SetLabels(l labels.Set) {
	n.labels = l
}

// Children returns the children in numbering order.
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

// Reparent detaches n from its current parent, if any, and appends it to
// newParent, if non-nil. A node missing from its parent's children or
// already present in newParent's children means the tree is corrupt and
// Reparent panics.
func (n *Node) Reparent(newParent *Node) {
	for p := newParent; p != nil; p = p.parent {
		if p == n {
			panic(fmt.Sprintf("reparenting heap %s under %s creates a cycle", n.name, newParent.name))
		}
	}
	if n.parent != nil {
		idx := slices.Index(n.parent.children, n)
		if idx < 0 {
			panic(fmt.Sprintf("heap %s isn't a child of its parent %s - should be impossible!", n.name, n.parent.name))
		}
		n.parent.children = slices.Delete(n.parent.children, idx, idx+1)
	}
	if newParent != nil && slices.Contains(newParent.children, n) {
		panic(fmt.Sprintf("heap %s is already a child of %s - should be impossible!", n.name, newParent.name))
	}
	n.parent = newParent
	if newParent != nil {
		newParent.children = append(newParent.children, n)
	}
}

// Destroy releases n and its subtree. The node must be detached first.
func (n *Node) Destroy() {
	if n.parent != nil {
		panic(fmt.Sprintf("destroying heap %s while it is still a child of %s", n.name, n.parent.name))
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range cur.children {
			c.parent = nil
			stack = append(stack, c)
		}
		cur.children = nil
		cur.rng = heaprange.Range{}
	}
}

// IsComputed reports whether Compute ever assigned a range to n.
func (n *Node) IsComputed() bool {
	return !n.rng.IsZero()
}

// Range returns the range assigned by the last Compute covering n.
// Asking before any Compute is a programming error: the tree is logged and
// Range panics.
func (n *Node) Range() heaprange.Range {
	if !n.IsComputed() {
		var sb strings.Builder
		n.Root().Dump(&sb)
		log.Error(nil, "bad range", "heap", n.Chain(), "tree", sb.String())
		panic(fmt.Sprintf("bad range for heap %s", n.name))
	}
	return n.rng
}

// Root returns the topmost ancestor of n.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

type computeFrame struct {
	node    *Node
	begin   uint32
	current uint32
	next    int
}

// Compute assigns ranges to n and its subtree starting at begin and
// returns the end of the range assigned to n. A leaf gets a single slot;
// a parent gets the concatenation of its children's ranges in order.
//
// Ranges are not invalidated on mutation: reshaping the tree requires
// running Compute again on the affected root.
func (n *Node) Compute(begin uint32) uint32 {
	stack := []computeFrame{{node: n, begin: begin, current: begin}}
	var end uint32
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		switch {
		case len(top.node.children) == 0:
			top.node.rng = heaprange.Single(top.begin)
			end = top.node.rng.End()
		case top.next < len(top.node.children):
			child := top.node.children[top.next]
			top.next++
			stack = append(stack, computeFrame{node: child, begin: top.current, current: top.current})
			continue
		default:
			top.node.rng = heaprange.New(top.begin, top.current)
			end = top.current
		}
		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			stack[len(stack)-1].current = end
		}
	}
	return end
}

// Overlaps reports whether accesses to n may alias accesses to other.
func (n *Node) Overlaps(other *Node) bool {
	return n.Range().Overlaps(other.Range())
}

// IsSubheapOf reports whether n is other or lies below it.
func (n *Node) IsSubheapOf(other *Node) bool {
	for p := n; p != nil; p = p.parent {
		if p == other {
			return true
		}
	}
	return false
}

func (n *Node) String() string {
	rng := "[?]"
	if n.IsComputed() {
		rng = n.rng.String()
	}
	return fmt.Sprintf("%s(%d)%s", n.name, n.offset, rng)
}

// Chain returns the name of n followed by the names of its ancestors.
func (n *Node) Chain() string {
	var sb strings.Builder
	for p := n; p != nil; p = p.parent {
		if p != n {
			sb.WriteString("->")
		}
		sb.WriteString(p.name)
	}
	return sb.String()
}

// Dump writes the subtree rooted at n, one heap per line, indented by depth.
func (n *Node) Dump(w io.Writer) {
	iter := newIterator([]*Node{n})
	for iter.Next() {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", iter.Depth()), iter.Node())
	}
}
