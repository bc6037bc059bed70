package abstractheap

import (
	"bytes"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// HeapRecord is the flattened state of one heap.
type HeapRecord struct {
	Name     string            `msgpack:"name" yaml:"name"`
	Parent   string            `msgpack:"parent,omitempty" yaml:"parent,omitempty"`
	Offset   int64             `msgpack:"offset" yaml:"offset"`
	Computed bool              `msgpack:"computed" yaml:"computed"`
	Begin    uint32            `msgpack:"begin" yaml:"begin"`
	End      uint32            `msgpack:"end" yaml:"end"`
	Labels   map[string]string `msgpack:"labels,omitempty" yaml:"labels,omitempty"`
}

// FamilyRecord describes a family and the indices it created on demand.
type FamilyRecord struct {
	Name   string        `msgpack:"name" yaml:"name"`
	Offset int64         `msgpack:"offset" yaml:"offset"`
	Stride int64         `msgpack:"stride" yaml:"stride"`
	Small  int           `msgpack:"small" yaml:"small"`
	Cached []CachedEntry `msgpack:"cached,omitempty" yaml:"cached,omitempty"`
}

type CachedEntry struct {
	Index int64  `msgpack:"index" yaml:"index"`
	Heap  string `msgpack:"heap" yaml:"heap"`
}

// Snapshot is the pre-order list of heaps of a tree with their ranges,
// followed by its families sorted by name.
type Snapshot struct {
	Tree     string         `msgpack:"tree" yaml:"tree"`
	Heaps    []HeapRecord   `msgpack:"heaps" yaml:"heaps"`
	Families []FamilyRecord `msgpack:"families,omitempty" yaml:"families,omitempty"`
}

func (r *Tree) Snapshot() Snapshot {
	s := Snapshot{Tree: r.name, Heaps: []HeapRecord{}}
	iter := r.Iterate()
	for iter.Next() {
		n := iter.Node()
		rec := HeapRecord{
			Name:     n.Name(),
			Offset:   n.Offset(),
			Computed: n.IsComputed(),
		}
		if p := n.Parent(); p != nil {
			rec.Parent = p.Name()
		}
		if rec.Computed {
			rec.Begin = n.rng.Begin()
			rec.End = n.rng.End()
		}
		if l := n.Labels(); len(l) > 0 {
			rec.Labels = l
		}
		s.Heaps = append(s.Heaps, rec)
	}

	names := make([]string, 0, len(r.families))
	for name := range r.families {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f := r.families[name]
		rec := FamilyRecord{
			Name:   f.Name(),
			Offset: f.Offset(),
			Stride: f.ElementStride(),
			Small:  f.SmallCount(),
		}
		for _, c := range f.Cached() {
			rec.Cached = append(rec.Cached, CachedEntry{Index: c.Index, Heap: c.Heap.Name()})
		}
		s.Families = append(s.Families, rec)
	}
	return s
}

// EncodeMsgpack encodes s with sorted map keys so that equal snapshots
// encode to equal bytes.
func (s Snapshot) EncodeMsgpack() ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeMsgpack(b []byte) (Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(b, &s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

func (s Snapshot) EncodeYAML() ([]byte, error) {
	return yaml.Marshal(s)
}
