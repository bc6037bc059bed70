package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
	"github.com/henderiw/heaprange/pkg/abstractheap"
	"k8s.io/apimachinery/pkg/labels"
)

var (
	ErrNameMissing     = errors.New("name missing")
	ErrUnknownKind     = errors.New("unknown family kind")
	ErrInvalidSmall    = errors.New("invalid small index count")
	ErrInvalidBegin    = errors.New("invalid begin")
	ErrUnknownResolved = errors.New("resolve refers to an unknown family")
	ErrNumberLineFull  = errors.New("heaps do not fit on the number line")
	ErrNotMaterialized = errors.New("constant index has no heap in the computed tree")
)

const (
	KindIndexed  = "indexed"
	KindNumbered = "numbered"
	KindAbsolute = "absolute"
)

// Config describes one tree of heaps, its families and the addresses to
// resolve against it.
type Config struct {
	Name     string    `toml:"name"`
	Begin    int64     `toml:"begin"`
	Heaps    []Heap    `toml:"heap"`
	Families []Family  `toml:"family"`
	Resolves []Resolve `toml:"resolve"`
}

type Heap struct {
	Name   string            `toml:"name"`
	Parent string            `toml:"parent"`
	Offset int64             `toml:"offset"`
	Labels map[string]string `toml:"labels"`
}

type Family struct {
	Kind    string  `toml:"kind"`
	Name    string  `toml:"name"`
	Parent  string  `toml:"parent"`
	Offset  int64   `toml:"offset"`
	Stride  int64   `toml:"stride"`
	Small   int64   `toml:"small"`
	Indices []int64 `toml:"indices"`
}

type Resolve struct {
	Family string `toml:"family"`
	Base   uint64 `toml:"base"`
	Index  int64  `toml:"index"`
	Known  bool   `toml:"known"`
	Adjust int64  `toml:"adjust"`
	Mask   uint64 `toml:"mask"`
}

// Load decodes the description file at path.
func Load(path string) (*Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("name") {
		cfg.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Parse decodes a description held in memory.
func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields that do not depend on the tree shape.
func (r *Config) Validate() error {
	var errm error
	if _, err := safecast.Conv[uint32](r.Begin); err != nil {
		errm = errors.Join(errm, fmt.Errorf("%w %d: %v", ErrInvalidBegin, r.Begin, err))
	}
	for i, h := range r.Heaps {
		if strings.TrimSpace(h.Name) == "" {
			errm = errors.Join(errm, fmt.Errorf("heap %d: %w", i, ErrNameMissing))
		}
	}
	for i, f := range r.Families {
		if strings.TrimSpace(f.Name) == "" {
			errm = errors.Join(errm, fmt.Errorf("family %d: %w", i, ErrNameMissing))
		}
		switch f.kind() {
		case KindIndexed, KindNumbered, KindAbsolute:
		default:
			errm = errors.Join(errm, fmt.Errorf("family %s: %w %q", f.Name, ErrUnknownKind, f.Kind))
		}
		if _, err := safecast.Conv[uint16](f.Small); err != nil {
			errm = errors.Join(errm, fmt.Errorf("family %s: %w %d", f.Name, ErrInvalidSmall, f.Small))
		}
	}
	return errm
}

func (f Family) kind() string {
	if f.Kind == "" {
		return KindIndexed
	}
	return f.Kind
}

// Unit is a tree built from a Config, ready to be computed.
type Unit struct {
	Tree     *abstractheap.Tree
	Begin    uint32
	Resolves []Resolve

	computed bool
}

// Build creates the heaps and families in file order and materializes the
// listed indices, including the constant indices of every resolve entry.
// Parents must be declared before their children.
func (r *Config) Build() (*Unit, error) {
	begin, err := safecast.Conv[uint32](r.Begin)
	if err != nil {
		return nil, fmt.Errorf("%w %d: %v", ErrInvalidBegin, r.Begin, err)
	}
	if err := r.checkNames(); err != nil {
		return nil, err
	}
	tree := abstractheap.NewTree(r.Name)

	for _, h := range r.Heaps {
		parent, err := r.parent(tree, h.Parent)
		if err != nil {
			return nil, fmt.Errorf("heap %s: %w", h.Name, err)
		}
		if _, err := tree.Add(h.Name, h.Offset, parent, labels.Set(h.Labels)); err != nil {
			return nil, err
		}
	}

	for _, f := range r.Families {
		parent, err := r.parent(tree, f.Parent)
		if err != nil {
			return nil, fmt.Errorf("family %s: %w", f.Name, err)
		}
		if err := buildFamily(tree, parent, f); err != nil {
			return nil, err
		}
	}

	for _, res := range r.Resolves {
		family, err := tree.Family(res.Family)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnknownResolved, err)
		}
		if res.Known {
			family.At(res.Index)
		}
	}

	return &Unit{Tree: tree, Begin: begin, Resolves: r.Resolves}, nil
}

// checkNames rejects descriptions where two heaps, including the ones a
// family materializes, would share a name.
func (r *Config) checkNames() error {
	resolved := map[string][]int64{}
	for _, res := range r.Resolves {
		if res.Known {
			resolved[res.Family] = append(resolved[res.Family], res.Index)
		}
	}
	seen := map[string]struct{}{}
	var errm error
	add := func(name string) {
		if _, ok := seen[name]; ok {
			errm = errors.Join(errm, fmt.Errorf("%w: %s", abstractheap.ErrDuplicateName, name))
		}
		seen[name] = struct{}{}
	}
	for _, h := range r.Heaps {
		add(h.Name)
	}
	for _, f := range r.Families {
		for _, name := range f.heapNames(resolved[f.Name]) {
			add(name)
		}
	}
	return errm
}

func (f Family) heapNames(resolved []int64) []string {
	small := f.Small
	switch f.kind() {
	case KindNumbered:
		small = abstractheap.NumberedSmallCount
	case KindAbsolute:
		small = 0
	}
	names := []string{f.Name}
	indices := map[int64]struct{}{}
	for i := int64(0); i < small; i++ {
		indices[i] = struct{}{}
		names = append(names, abstractheap.IndexName(f.Name, i))
	}
	for _, i := range slices.Concat(f.Indices, resolved) {
		if _, ok := indices[i]; ok {
			continue
		}
		indices[i] = struct{}{}
		names = append(names, abstractheap.IndexName(f.Name, i))
	}
	return names
}

func (r *Config) parent(tree *abstractheap.Tree, name string) (*abstractheap.Node, error) {
	if name == "" {
		return nil, nil
	}
	p, err := tree.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", abstractheap.ErrUnknownParent, name)
	}
	return p, nil
}

func buildFamily(tree *abstractheap.Tree, parent *abstractheap.Node, f Family) error {
	switch f.kind() {
	case KindNumbered:
		family, err := tree.NumberedFamily(parent, f.Name)
		if err != nil {
			return err
		}
		for _, i := range f.Indices {
			n, err := safecast.Conv[uint64](i)
			if err != nil {
				return fmt.Errorf("family %s: number %d: %w", f.Name, i, err)
			}
			family.At(n)
		}
	case KindAbsolute:
		family, err := tree.AbsoluteFamily(parent, f.Name)
		if err != nil {
			return err
		}
		for _, i := range f.Indices {
			family.At(uint64(i))
		}
	default:
		family, err := tree.IndexedFamily(parent, f.Name, f.Offset, f.Stride, int(f.Small))
		if err != nil {
			return err
		}
		for _, i := range f.Indices {
			family.At(i)
		}
	}
	return nil
}

// Resolve evaluates one resolve entry. Once the unit is computed, a
// constant index must already have its heap, since creating one would
// leave the tree numbered for an older shape.
func (u *Unit) Resolve(res Resolve) (abstractheap.TypedAddress, error) {
	family, err := u.Tree.Family(res.Family)
	if err != nil {
		return abstractheap.TypedAddress{}, err
	}
	index := abstractheap.RuntimeIndex(res.Index)
	if res.Known {
		if _, ok := family.Lookup(res.Index); u.computed && !ok {
			return abstractheap.TypedAddress{}, fmt.Errorf("%w: %s index %d", ErrNotMaterialized, res.Family, res.Index)
		}
		index = abstractheap.ConstantIndex(res.Index)
	}
	return family.Resolve(res.Base, index, res.Adjust, res.Mask), nil
}

// Compute numbers the unit's tree from its configured begin and returns
// the end of the last range. It fails instead of panicking when the tree
// has more heaps than slots remain after begin.
func (u *Unit) Compute() (uint32, error) {
	leaves := uint64(u.Tree.LeafCount())
	if uint64(u.Begin)+leaves > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d heaps from %d", ErrNumberLineFull, leaves, u.Begin)
	}
	end := u.Tree.Compute(u.Begin)
	u.computed = true
	return end, nil
}
