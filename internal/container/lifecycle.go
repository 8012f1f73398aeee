package container

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"

	ireflect "github.com/danpasecinic/stitch/internal/reflect"
)

// instantiate builds every singleton binding in dependency order. When
// singleton cycles prevent a topological order, registration order is used.
func (c *Compiled) instantiate() error {
	byType := make(map[reflect.Type]*Memo, len(c.singletons))
	for _, m := range c.singletons {
		if _, seen := byType[m.abstract]; !seen {
			byType[m.abstract] = m
		}
	}

	order, err := c.graph.TopologicalSort()
	if err != nil {
		order = c.graph.Nodes()
	}

	for _, t := range order {
		m, ok := byType[t]
		if !ok {
			continue
		}
		if _, err := m.Get(nil); err != nil {
			return fmt.Errorf("instantiate %s: %w", ireflect.TypeName(t), err)
		}
	}
	return nil
}

// Close closes every realized singleton implementing io.Closer, newest
// first, and returns how many were closed. Failures are joined. Resolving
// after Close fails with ErrClosed.
func (c *Container) Close() (int, error) {
	if !c.closed.CompareAndSwap(false, true) {
		return 0, nil
	}

	compiled := c.compiled.Load()
	if compiled == nil {
		return 0, nil
	}

	realized := make([]*Memo, 0, len(compiled.singletons))
	for _, m := range compiled.singletons {
		if m.done.Load() {
			realized = append(realized, m)
		}
	}
	slices.SortFunc(realized, func(a, b *Memo) int {
		return cmp.Compare(b.seq, a.seq)
	})

	var (
		closed int
		errs   []error
	)
	for _, m := range realized {
		closer, ok := m.value.(io.Closer)
		if !ok {
			continue
		}
		closed++
		c.logger.Debug("closing singleton", "type", ireflect.TypeName(m.abstract))
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", ireflect.TypeName(m.abstract), err))
		}
	}
	return closed, errors.Join(errs...)
}
