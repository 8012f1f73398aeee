package scope

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

type flowKey struct {
	cache *Cache
}

// Cache holds the scoped instances of one scope under a single policy.
type Cache struct {
	policy Policy
	closed atomic.Bool

	shared *Partition

	goroutines sync.Map

	mu    sync.Mutex
	flows []*Partition
}

func NewCache(policy Policy) *Cache {
	c := &Cache{policy: policy}
	c.shared = newPartition(c)
	if policy == Flow {
		c.flows = append(c.flows, c.shared)
	}
	return c
}

func (c *Cache) Policy() Policy {
	return c.policy
}

func (c *Cache) Closed() bool {
	return c.closed.Load()
}

// Partition returns the partition serving the caller. Under Flow the
// partition is the one carried by ctx, or the root flow when ctx carries
// none for this cache.
func (c *Cache) Partition(ctx context.Context) (*Partition, error) {
	if c.closed.Load() {
		return nil, ErrDisposed
	}

	switch c.policy {
	case Goroutine:
		id := goid.Get()
		if p, ok := c.goroutines.Load(id); ok {
			return p.(*Partition), nil
		}
		p, _ := c.goroutines.LoadOrStore(id, newPartition(c))
		return p.(*Partition), nil
	case Flow:
		if ctx != nil {
			if p, ok := ctx.Value(flowKey{c}).(*Partition); ok {
				return p, nil
			}
		}
		return c.shared, nil
	default:
		return c.shared, nil
	}
}

// Fork starts a new flow branching from the one carried by ctx. The branch
// sees every instance its parent had realized at the time of the fork and
// diverges from then on.
func (c *Cache) Fork(ctx context.Context) (context.Context, error) {
	if c.policy != Flow {
		return nil, fmt.Errorf("fork requires the %s policy, scope uses %s", Flow, c.policy)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	parent, err := c.Partition(ctx)
	if err != nil {
		return nil, err
	}

	child := newPartition(c)
	parent.snapshot(child)

	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		return nil, ErrDisposed
	}
	c.flows = append(c.flows, child)
	c.mu.Unlock()

	return context.WithValue(ctx, flowKey{c}, child), nil
}

// Partitions returns every partition realized so far.
func (c *Cache) Partitions() []*Partition {
	switch c.policy {
	case Goroutine:
		var parts []*Partition
		c.goroutines.Range(func(_, v any) bool {
			parts = append(parts, v.(*Partition))
			return true
		})
		return parts
	case Flow:
		c.mu.Lock()
		defer c.mu.Unlock()
		parts := make([]*Partition, len(c.flows))
		copy(parts, c.flows)
		return parts
	default:
		return []*Partition{c.shared}
	}
}

// Close marks the cache closed and closes every owned io.Closer in every
// partition. Failures are joined; remaining instances are still closed.
// Closing twice is a no-op.
func (c *Cache) Close() (closed int, err error) {
	if !c.closed.CompareAndSwap(false, true) {
		return 0, nil
	}

	var errs []error
	for _, p := range c.Partitions() {
		n, perr := p.dispose()
		closed += n
		if perr != nil {
			errs = append(errs, perr)
		}
	}
	return closed, errors.Join(errs...)
}
