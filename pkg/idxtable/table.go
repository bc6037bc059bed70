package idxtable

import (
	"fmt"
	"sort"
)

// Table maps signed indices to lazily created values. It has no internal
// locking: a table belongs to the single goroutine that owns it.
type Table[T1 any] interface {
	Get(id int64) (T1, error)
	GetOrClaim(id int64, create CreateFn[T1]) T1
	Iterate() *Iterator[T1]
	Count() int
}

// CreateFn builds the value for an index on first access.
type CreateFn[T1 any] func(id int64) T1

func NewTable[T1 any]() Table[T1] {
	return &table[T1]{
		table: make(map[int64]T1),
	}
}

type table[T1 any] struct {
	table map[int64]T1
}

func (r *table[T1]) Get(id int64) (T1, error) {
	d, ok := r.table[id]
	if !ok {
		return d, fmt.Errorf("no match found for: %v", id)
	}
	return d, nil
}

// GetOrClaim returns the value stored at id, creating and storing it
// first when absent. create is called at most once per index.
func (r *table[T1]) GetOrClaim(id int64, create CreateFn[T1]) T1 {
	if d, ok := r.table[id]; ok {
		return d
	}
	d := create(id)
	r.table[id] = d
	return d
}

func (r *table[T1]) Iterate() *Iterator[T1] {
	keys := make([]int64, 0, len(r.table))
	for key := range r.table {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i int, j int) bool {
		return keys[i] < keys[j]
	})
	return &Iterator[T1]{current: -1, keys: keys, table: r.table}
}

func (r *table[T1]) Count() int {
	return len(r.table)
}
