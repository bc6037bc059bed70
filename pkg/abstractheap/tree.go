package abstractheap

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"

	"github.com/henderiw/heaprange/pkg/heaprange"
	"k8s.io/apimachinery/pkg/labels"
)

var (
	ErrDuplicateName = errors.New("duplicate heap name")
	ErrUnknownHeap   = errors.New("unknown heap")
	ErrUnknownParent = errors.New("unknown parent heap")
	ErrUnknownFamily = errors.New("unknown heap family")
	ErrFamilyMember  = errors.New("heap is owned by a family")
)

// Tree is a forest of heaps built for one compilation unit. Heaps are
// indexed by name and every parentless heap is a root. A Tree is not safe
// for concurrent use; independent trees may be used from different
// goroutines.
type Tree struct {
	name     string
	nodes    []*Node
	byName   map[string]*Node
	families map[string]*IndexedFamily
}

func NewTree(name string) *Tree {
	return &Tree{
		name:     name,
		nodes:    make([]*Node, 0),
		byName:   make(map[string]*Node),
		families: make(map[string]*IndexedFamily),
	}
}

func (r *Tree) Name() string { return r.name }

// Add creates a heap below parent, or a root when parent is nil.
func (r *Tree) Add(name string, offset int64, parent *Node, l labels.Set) (*Node, error) {
	if err := r.checkParent(parent); err != nil {
		return nil, err
	}
	if _, ok := r.byName[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	n := NewNode(name, offset, parent)
	n.SetLabels(l)
	r.register(n)
	return n, nil
}

func (r *Tree) Get(name string) (*Node, error) {
	n, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHeap, name)
	}
	return n, nil
}

// Reparent moves n below newParent, or makes it a root when newParent is
// nil. Heaps of a family stay below its catch-all heap and can't be moved
// on their own. Ranges are stale afterwards until the next Compute.
func (r *Tree) Reparent(n, newParent *Node) error {
	if !r.owns(n) {
		return fmt.Errorf("%w: %s", ErrUnknownHeap, n.Name())
	}
	if r.isFamilyMember(n) {
		return fmt.Errorf("%w: %s", ErrFamilyMember, n.Name())
	}
	if err := r.checkParent(newParent); err != nil {
		return err
	}
	n.Reparent(newParent)
	return nil
}

// Remove detaches n, destroys its subtree and forgets every heap in it,
// including families rooted there. Heaps of a family other than its
// catch-all heap can't be removed on their own.
func (r *Tree) Remove(n *Node) error {
	if !r.owns(n) {
		return fmt.Errorf("%w: %s", ErrUnknownHeap, n.Name())
	}
	if r.isFamilyMember(n) {
		return fmt.Errorf("%w: %s", ErrFamilyMember, n.Name())
	}
	removed := map[*Node]struct{}{}
	iter := newIterator([]*Node{n})
	for iter.Next() {
		removed[iter.Node()] = struct{}{}
		delete(r.byName, iter.Node().Name())
	}
	for name, f := range r.families {
		if _, ok := removed[f.anyIndex]; ok {
			delete(r.families, name)
		}
	}
	r.nodes = slices.DeleteFunc(r.nodes, func(x *Node) bool {
		_, ok := removed[x]
		return ok
	})
	n.Reparent(nil)
	n.Destroy()
	return nil
}

// IndexedFamily creates an indexed family whose heaps are registered with
// the tree as they are created.
func (r *Tree) IndexedFamily(parent *Node, name string, offset, elementStride int64, smallCount int) (*IndexedFamily, error) {
	if err := r.checkFamily(parent, name); err != nil {
		return nil, err
	}
	f := newIndexedFamily(parent, name, offset, elementStride, smallCount, r.registerFamilyNode)
	r.families[name] = f
	return f, nil
}

func (r *Tree) NumberedFamily(parent *Node, name string) (*NumberedFamily, error) {
	if err := r.checkFamily(parent, name); err != nil {
		return nil, err
	}
	f := newNumberedFamily(parent, name, r.registerFamilyNode)
	r.families[name] = f.Indexed()
	return f, nil
}

func (r *Tree) AbsoluteFamily(parent *Node, name string) (*AbsoluteFamily, error) {
	if err := r.checkFamily(parent, name); err != nil {
		return nil, err
	}
	f := newAbsoluteFamily(parent, name, r.registerFamilyNode)
	r.families[name] = f.Indexed()
	return f, nil
}

// Family returns the family whose catch-all heap is called name.
func (r *Tree) Family(name string) (*IndexedFamily, error) {
	f, ok := r.families[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFamily, name)
	}
	return f, nil
}

// Roots returns the parentless heaps in creation order.
func (r *Tree) Roots() []*Node {
	roots := []*Node{}
	for _, n := range r.nodes {
		if n.IsRoot() {
			roots = append(roots, n)
		}
	}
	return roots
}

// Compute numbers every root in creation order, each root starting where
// the previous one ended, and returns the end of the last range.
func (r *Tree) Compute(begin uint32) uint32 {
	end := begin
	roots := r.Roots()
	for _, root := range roots {
		end = root.Compute(end)
	}
	log.V(2).Info("computed heap ranges", "tree", r.name, "roots", len(roots), "heaps", len(r.nodes), "begin", begin, "end", end)
	return end
}

func (r *Tree) Children(n *Node) []*Node {
	return n.Children()
}

// Parents returns the ancestors of n, nearest first.
func (r *Tree) Parents(n *Node) []*Node {
	parents := []*Node{}
	for p := n.Parent(); p != nil; p = p.Parent() {
		parents = append(parents, p)
	}
	return parents
}

func (r *Tree) GetByLabel(selector labels.Selector) []*Node {
	nodes := []*Node{}
	iter := r.Iterate()
	for iter.Next() {
		if selector.Matches(iter.Node().Labels()) {
			nodes = append(nodes, iter.Node())
		}
	}
	return nodes
}

// GetAll returns every heap reachable from a root, in pre-order.
func (r *Tree) GetAll() []*Node {
	nodes := []*Node{}
	iter := r.Iterate()
	for iter.Next() {
		nodes = append(nodes, iter.Node())
	}
	return nodes
}

func (r *Tree) Size() int {
	return len(r.nodes)
}

func (r *Tree) Iterate() *TreeIterator {
	return newIterator(r.Roots())
}

// Covering returns the deepest heap whose range contains slot, or nil.
// Ranges must be computed.
func (r *Tree) Covering(slot uint32) *Node {
	var found *Node
	candidates := r.Roots()
	for {
		i := sort.Search(len(candidates), func(i int) bool {
			return slot < candidates[i].Range().End()
		})
		if i == len(candidates) || !candidates[i].Range().Contains(slot) {
			return found
		}
		found = candidates[i]
		candidates = found.children
	}
}

// Within returns, in pre-order, the heaps whose range lies inside rng.
// Ranges must be computed.
func (r *Tree) Within(rng heaprange.Range) []*Node {
	nodes := []*Node{}
	iter := r.Iterate()
	for iter.Next() {
		if iter.Node().Range().CoveredBy(rng) {
			nodes = append(nodes, iter.Node())
		}
	}
	return nodes
}

// LeafCount returns the number of slots Compute will use.
func (r *Tree) LeafCount() int {
	count := 0
	for _, n := range r.nodes {
		if n.IsLeaf() {
			count++
		}
	}
	return count
}

// Overlaps reports whether the heaps called a and b may alias.
func (r *Tree) Overlaps(a, b string) (bool, error) {
	na, err := r.Get(a)
	if err != nil {
		return false, err
	}
	nb, err := r.Get(b)
	if err != nil {
		return false, err
	}
	return na.Overlaps(nb), nil
}

// Span returns the range covering every root.
func (r *Tree) Span() heaprange.Range {
	roots := r.Roots()
	if len(roots) == 0 {
		return heaprange.Range{}
	}
	return heaprange.New(roots[0].Range().Begin(), roots[len(roots)-1].Range().End())
}

func (r *Tree) Dump(w io.Writer) {
	for _, root := range r.Roots() {
		root.Dump(w)
	}
}

func (r *Tree) register(n *Node) {
	r.nodes = append(r.nodes, n)
	r.byName[n.Name()] = n
}

func (r *Tree) registerFamilyNode(n *Node) {
	if _, ok := r.byName[n.Name()]; ok {
		panic(fmt.Sprintf("tree %s: family heap %s collides with an existing heap", r.name, n.Name()))
	}
	r.register(n)
}

func (r *Tree) isFamilyMember(n *Node) bool {
	for _, f := range r.families {
		if n.Parent() == f.anyIndex {
			return true
		}
	}
	return false
}

func (r *Tree) owns(n *Node) bool {
	return n != nil && r.byName[n.Name()] == n
}

func (r *Tree) checkParent(parent *Node) error {
	if parent != nil && !r.owns(parent) {
		return fmt.Errorf("%w: %s", ErrUnknownParent, parent.Name())
	}
	return nil
}

func (r *Tree) checkFamily(parent *Node, name string) error {
	if err := r.checkParent(parent); err != nil {
		return err
	}
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	return nil
}
