package scope

import (
	"errors"
	"io"
	"slices"
	"sync"
	"sync/atomic"
)

var ErrDisposed = errors.New("scope is closed")

type entry struct {
	mu    sync.Mutex
	done  atomic.Bool
	value any
	owned bool
}

// Partition is the slice of a scope's cache seen by one caller: the whole
// cache under Shared, one goroutine under Goroutine, one flow under Flow.
type Partition struct {
	cache   *Cache
	entries sync.Map

	mu      sync.Mutex
	created []*entry
}

func newPartition(c *Cache) *Partition {
	return &Partition{cache: c}
}

// Get returns the instance cached under key, building it on first use. A
// failed build is not cached.
func (p *Partition) Get(key any, build func(*Partition) (any, error)) (any, error) {
	if p.cache.closed.Load() {
		return nil, ErrDisposed
	}

	v, ok := p.entries.Load(key)
	if !ok {
		v, _ = p.entries.LoadOrStore(key, &entry{})
	}
	e := v.(*entry)

	if e.done.Load() {
		return e.value, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.done.Load() {
		return e.value, nil
	}

	instance, err := build(p)
	if err != nil {
		return nil, err
	}

	// Close flips closed before it takes p.mu to collect instances, so
	// checking under p.mu means an instance either reaches dispose or is
	// closed here, never neither.
	p.mu.Lock()
	if p.cache.closed.Load() {
		p.mu.Unlock()
		if closer, ok := instance.(io.Closer); ok {
			return nil, errors.Join(ErrDisposed, closer.Close())
		}
		return nil, ErrDisposed
	}
	e.value = instance
	e.owned = true
	e.done.Store(true)
	p.created = append(p.created, e)
	p.mu.Unlock()

	return instance, nil
}

// Len reports how many instances the partition has realized, inherited
// ones included.
func (p *Partition) Len() int {
	n := 0
	p.entries.Range(func(_, v any) bool {
		if v.(*entry).done.Load() {
			n++
		}
		return true
	})
	return n
}

func (p *Partition) snapshot(child *Partition) {
	p.entries.Range(func(k, v any) bool {
		e := v.(*entry)
		if !e.done.Load() {
			return true
		}
		inherited := &entry{value: e.value}
		inherited.done.Store(true)
		child.entries.Store(k, inherited)
		return true
	})
}

// dispose closes owned io.Closer instances, newest first.
func (p *Partition) dispose() (closed int, err error) {
	p.mu.Lock()
	created := slices.Clone(p.created)
	p.created = nil
	p.mu.Unlock()

	var errs []error
	for _, e := range slices.Backward(created) {
		if !e.owned {
			continue
		}
		closer, ok := e.value.(io.Closer)
		if !ok {
			continue
		}
		closed++
		if cerr := closer.Close(); cerr != nil {
			errs = append(errs, cerr)
		}
	}
	return closed, errors.Join(errs...)
}
