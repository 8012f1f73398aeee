package typekey

import (
	"errors"
	"hash/maphash"
	"reflect"
)

const (
	HotLoadFactor   = 0.5
	DenseLoadFactor = 0.75
)

var ErrNotFound = errors.New("type not found in table")

type Pair[V any] struct {
	Key   reflect.Type
	Value V
}

type entry[V any] struct {
	key   reflect.Type
	value V
}

type sentinelKey struct{}

var sentinelType = reflect.TypeFor[sentinelKey]()

// Table is an immutable map from runtime type identity to V. Keys are
// compared with ==, which for reflect.Type is descriptor identity.
type Table[V any] struct {
	buckets  [][]entry[V]
	mask     uint64
	seed     maphash.Seed
	size     int
	sentinel bool
}

func New[V any](pairs []Pair[V], loadFactor float64) *Table[V] {
	t := newTable[V](len(pairs), loadFactor)
	for _, p := range pairs {
		t.insert(p.Key, p.Value)
	}
	return t
}

// NewWithSentinel builds a table whose buckets all end with an entry holding
// fallback, so Lookup returns fallback on a miss without a separate branch.
func NewWithSentinel[V any](pairs []Pair[V], loadFactor float64, fallback V) *Table[V] {
	t := New(pairs, loadFactor)
	t.sentinel = true
	for i := range t.buckets {
		t.buckets[i] = append(t.buckets[i], entry[V]{key: sentinelType, value: fallback})
	}
	return t
}

func newTable[V any](n int, loadFactor float64) *Table[V] {
	if loadFactor <= 0 || loadFactor > 1 {
		loadFactor = DenseLoadFactor
	}
	capacity := bucketCount(n, loadFactor)
	return &Table[V]{
		buckets: make([][]entry[V], capacity),
		mask:    uint64(capacity - 1),
		seed:    maphash.MakeSeed(),
	}
}

func bucketCount(n int, loadFactor float64) int {
	capacity := 1
	for float64(n)/float64(capacity) > loadFactor {
		capacity <<= 1
	}
	return capacity
}

func (t *Table[V]) insert(key reflect.Type, value V) {
	i := t.index(key)
	bucket := t.buckets[i]
	for j := range bucket {
		if bucket[j].key == key {
			bucket[j].value = value
			return
		}
	}
	grown := make([]entry[V], len(bucket)+1)
	copy(grown, bucket)
	grown[len(bucket)] = entry[V]{key: key, value: value}
	t.buckets[i] = grown
	t.size++
}

func (t *Table[V]) index(key reflect.Type) uint64 {
	return maphash.Comparable(t.seed, key) & t.mask
}

// Lookup is the sentinel-table fast path. On tables built without a sentinel
// it behaves like TryGet and returns the zero value on a miss.
func (t *Table[V]) Lookup(key reflect.Type) V {
	bucket := t.buckets[t.index(key)]
	if !t.sentinel {
		v, _ := t.scan(bucket, key)
		return v
	}
	last := len(bucket) - 1
	for i := 0; i < last; i++ {
		if bucket[i].key == key {
			return bucket[i].value
		}
	}
	return bucket[last].value
}

func (t *Table[V]) Get(key reflect.Type) (V, error) {
	if v, ok := t.TryGet(key); ok {
		return v, nil
	}
	var zero V
	return zero, ErrNotFound
}

func (t *Table[V]) TryGet(key reflect.Type) (V, bool) {
	return t.scan(t.buckets[t.index(key)], key)
}

func (t *Table[V]) scan(bucket []entry[V], key reflect.Type) (V, bool) {
	for i := range bucket {
		if bucket[i].key == key && key != sentinelType {
			return bucket[i].value, true
		}
	}
	var zero V
	return zero, false
}

func (t *Table[V]) Len() int {
	return t.size
}

func (t *Table[V]) Buckets() int {
	return len(t.buckets)
}

func (t *Table[V]) Keys() []reflect.Type {
	keys := make([]reflect.Type, 0, t.size)
	for _, bucket := range t.buckets {
		for _, e := range bucket {
			if e.key != sentinelType {
				keys = append(keys, e.key)
			}
		}
	}
	return keys
}
