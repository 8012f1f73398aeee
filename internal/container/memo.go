package container

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"

	"github.com/danpasecinic/stitch/internal/scope"
)

// Memo holds a singleton. It is created before lowering starts so that
// edges into a singleton can reference it without recursing; build is
// filled once the singleton itself is lowered.
type Memo struct {
	abstract reflect.Type
	build    Factory
	cycle    []reflect.Type
	clock    *atomic.Uint64

	mu    sync.Mutex
	done  atomic.Bool
	owner atomic.Int64
	value any
	seq   uint64
}

func newMemo(abstract reflect.Type, clock *atomic.Uint64) *Memo {
	return &Memo{abstract: abstract, clock: clock}
}

// Get returns the singleton, constructing it at most once. A failed
// construction is not cached. A singleton that sits on a dependency cycle
// fails before taking the lock, so two goroutines entering the cycle from
// opposite ends cannot wait on each other. Re-entry from the constructing
// goroutine is reported as a circular reference rather than blocking on
// itself.
func (m *Memo) Get(*scope.Partition) (any, error) {
	if m.done.Load() {
		return m.value, nil
	}
	if len(m.cycle) > 0 {
		return nil, &CycleError{Path: m.cycle}
	}

	// owner holds goroutine id + 1 so that zero always means unowned.
	id := goid.Get() + 1
	if m.owner.Load() == id {
		return nil, &CycleError{Path: m.cyclePath()}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done.Load() {
		return m.value, nil
	}

	m.owner.Store(id)
	defer m.owner.Store(0)

	instance, err := m.build(nil)
	if err != nil {
		return nil, err
	}

	m.value = instance
	m.seq = m.clock.Add(1)
	m.done.Store(true)
	return instance, nil
}

func (m *Memo) Value() (any, bool) {
	if !m.done.Load() {
		return nil, false
	}
	return m.value, true
}

func (m *Memo) Type() reflect.Type {
	return m.abstract
}

func (m *Memo) cyclePath() []reflect.Type {
	if len(m.cycle) > 0 {
		return m.cycle
	}
	return []reflect.Type{m.abstract, m.abstract}
}
