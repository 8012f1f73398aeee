package scope

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/petermattis/goid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resource struct {
	name   string
	closed atomic.Int32
	err    error
	log    *[]string
	mu     *sync.Mutex
}

func (r *resource) Close() error {
	r.closed.Add(1)
	if r.log != nil {
		r.mu.Lock()
		*r.log = append(*r.log, r.name)
		r.mu.Unlock()
	}
	return r.err
}

func counting(n *atomic.Int32, name string) func(*Partition) (any, error) {
	return func(*Partition) (any, error) {
		n.Add(1)
		return &resource{name: name}, nil
	}
}

func TestLifestyle_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		lifestyle Lifestyle
		want      string
	}{
		{Transient, "transient"},
		{Singleton, "singleton"},
		{Scoped, "scoped"},
		{Lifestyle(7), "lifestyle(7)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.lifestyle.String())
	}
	assert.Equal(t, Transient, Lifestyle(0))
	assert.Equal(t, Singleton, Lifestyle(1))
	assert.Equal(t, Scoped, Lifestyle(2))
	assert.False(t, Lifestyle(3).Valid())
}

func TestPolicy_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "shared", Shared.String())
	assert.Equal(t, "goroutine", Goroutine.String())
	assert.Equal(t, "flow", Flow.String())
	assert.Equal(t, "policy(9)", Policy(9).String())
	assert.True(t, Flow.Valid())
	assert.False(t, Policy(-1).Valid())
}

func TestShared_OneInstancePerKey(t *testing.T) {
	t.Parallel()

	c := NewCache(Shared)
	var builds atomic.Int32

	p, err := c.Partition(context.Background())
	require.NoError(t, err)

	first, err := p.Get("a", counting(&builds, "a"))
	require.NoError(t, err)
	second, err := p.Get("a", counting(&builds, "a"))
	require.NoError(t, err)
	other, err := p.Get("b", counting(&builds, "b"))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, int32(2), builds.Load())
	assert.Equal(t, 2, p.Len())
}

func TestShared_ConcurrentFirstCreation(t *testing.T) {
	t.Parallel()

	c := NewCache(Shared)
	var builds atomic.Int32

	const workers = 64
	results := make([]any, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := c.Partition(context.Background())
			if err != nil {
				return
			}
			results[i], _ = p.Get("a", counting(&builds, "a"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestPartition_FailedBuildRetries(t *testing.T) {
	t.Parallel()

	c := NewCache(Shared)
	p, err := c.Partition(context.Background())
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = p.Get("a", func(*Partition) (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, p.Len())

	v, err := p.Get("a", func(*Partition) (any, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestGoroutine_PartitionsPerGoroutine(t *testing.T) {
	t.Parallel()

	c := NewCache(Goroutine)
	var builds atomic.Int32

	resolve := func() any {
		p, err := c.Partition(context.Background())
		require.NoError(t, err)
		v, err := p.Get("a", counting(&builds, "a"))
		require.NoError(t, err)
		return v
	}

	main1 := resolve()
	main2 := resolve()
	assert.Same(t, main1, main2)

	var other any
	done := make(chan struct{})
	go func() {
		defer close(done)
		p, err := c.Partition(context.Background())
		if err != nil {
			return
		}
		other, _ = p.Get("a", counting(&builds, "a"))
	}()
	<-done

	assert.NotSame(t, main1, other)
	assert.Equal(t, int32(2), builds.Load())
	assert.Len(t, c.Partitions(), 2)

	n, err := c.Close()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int32(1), main1.(*resource).closed.Load())
	assert.Equal(t, int32(1), other.(*resource).closed.Load())
}

func TestGoroutine_IDsDiffer(t *testing.T) {
	t.Parallel()

	mine := goid.Get()
	other := make(chan int64, 1)
	go func() { other <- goid.Get() }()

	theirs := <-other
	assert.NotZero(t, mine)
	assert.NotZero(t, theirs)
	assert.NotEqual(t, mine, theirs)
	assert.Equal(t, mine, goid.Get())
}

func TestGoroutine_ConcurrentGoroutinesGetOwnPartitions(t *testing.T) {
	t.Parallel()

	const workers = 8
	c := NewCache(Goroutine)

	var (
		ready sync.WaitGroup
		exit  = make(chan struct{})
		mu    sync.Mutex
		seen  = make(map[*Partition]struct{})
	)
	ready.Add(workers)
	for range workers {
		go func() {
			p, err := c.Partition(context.Background())
			if err == nil {
				mu.Lock()
				seen[p] = struct{}{}
				mu.Unlock()
			}
			ready.Done()
			<-exit
		}()
	}
	ready.Wait()
	close(exit)

	_, err := c.Partition(context.Background())
	require.NoError(t, err)

	assert.Len(t, seen, workers)
	assert.Len(t, c.Partitions(), workers+1)
}

func TestFlow_ForkSnapshotsAndDiverges(t *testing.T) {
	t.Parallel()

	c := NewCache(Flow)
	var builds atomic.Int32
	ctx := context.Background()

	root, err := c.Partition(ctx)
	require.NoError(t, err)
	inherited, err := root.Get("a", counting(&builds, "a"))
	require.NoError(t, err)

	branch, err := c.Fork(ctx)
	require.NoError(t, err)
	child, err := c.Partition(branch)
	require.NoError(t, err)
	require.NotSame(t, root, child)

	v, err := child.Get("a", counting(&builds, "a"))
	require.NoError(t, err)
	assert.Same(t, inherited, v)

	childOnly, err := child.Get("b", counting(&builds, "b"))
	require.NoError(t, err)
	rootB, err := root.Get("b", counting(&builds, "b"))
	require.NoError(t, err)
	assert.NotSame(t, childOnly, rootB)

	assert.Equal(t, int32(3), builds.Load())
	assert.Equal(t, 2, child.Len())
}

func TestFlow_SiblingForksDiverge(t *testing.T) {
	t.Parallel()

	c := NewCache(Flow)
	ctx := context.Background()
	var builds atomic.Int32

	left, err := c.Fork(ctx)
	require.NoError(t, err)
	right, err := c.Fork(ctx)
	require.NoError(t, err)

	lp, err := c.Partition(left)
	require.NoError(t, err)
	rp, err := c.Partition(right)
	require.NoError(t, err)

	lv, err := lp.Get("a", counting(&builds, "a"))
	require.NoError(t, err)
	rv, err := rp.Get("a", counting(&builds, "a"))
	require.NoError(t, err)

	assert.NotSame(t, lv, rv)
	assert.Len(t, c.Partitions(), 3)
}

func TestFlow_ForkOfFork(t *testing.T) {
	t.Parallel()

	c := NewCache(Flow)
	var builds atomic.Int32

	first, err := c.Fork(context.Background())
	require.NoError(t, err)
	p1, err := c.Partition(first)
	require.NoError(t, err)
	v1, err := p1.Get("a", counting(&builds, "a"))
	require.NoError(t, err)

	second, err := c.Fork(first)
	require.NoError(t, err)
	p2, err := c.Partition(second)
	require.NoError(t, err)
	v2, err := p2.Get("a", counting(&builds, "a"))
	require.NoError(t, err)

	assert.Same(t, v1, v2)
	assert.Equal(t, int32(1), builds.Load())
}

func TestFlow_InheritedDisposedOnce(t *testing.T) {
	t.Parallel()

	c := NewCache(Flow)
	ctx := context.Background()

	root, err := c.Partition(ctx)
	require.NoError(t, err)
	v, err := root.Get("a", func(*Partition) (any, error) { return &resource{name: "a"}, nil })
	require.NoError(t, err)

	for range 3 {
		_, err := c.Fork(ctx)
		require.NoError(t, err)
	}

	n, err := c.Close()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int32(1), v.(*resource).closed.Load())
}

func TestFork_RequiresFlowPolicy(t *testing.T) {
	t.Parallel()

	_, err := NewCache(Shared).Fork(context.Background())
	assert.Error(t, err)
}

func TestFlow_ContextOfAnotherCache(t *testing.T) {
	t.Parallel()

	a := NewCache(Flow)
	b := NewCache(Flow)

	forked, err := a.Fork(context.Background())
	require.NoError(t, err)

	p, err := b.Partition(forked)
	require.NoError(t, err)
	assert.Same(t, b.shared, p)
}

func TestClose_ClosesOwnedNewestFirst(t *testing.T) {
	t.Parallel()

	var (
		mu  sync.Mutex
		log []string
	)
	c := NewCache(Shared)
	p, err := c.Partition(context.Background())
	require.NoError(t, err)

	for _, name := range []string{"first", "second", "third"} {
		_, err := p.Get(name, func(*Partition) (any, error) {
			return &resource{name: name, log: &log, mu: &mu}, nil
		})
		require.NoError(t, err)
	}
	_, err = p.Get("plain", func(*Partition) (any, error) { return 42, nil })
	require.NoError(t, err)

	n, err := c.Close()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"third", "second", "first"}, log)
}

func TestClose_AggregatesErrors(t *testing.T) {
	t.Parallel()

	errA := errors.New("a failed")
	errB := errors.New("b failed")

	c := NewCache(Shared)
	p, err := c.Partition(context.Background())
	require.NoError(t, err)

	var clean *resource
	for _, r := range []*resource{{name: "a", err: errA}, {name: "clean"}, {name: "b", err: errB}} {
		if r.err == nil {
			clean = r
		}
		_, err := p.Get(r.name, func(*Partition) (any, error) { return r, nil })
		require.NoError(t, err)
	}

	n, err := c.Close()
	assert.Equal(t, 3, n)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, int32(1), clean.closed.Load())
}

func TestClose_Idempotent(t *testing.T) {
	t.Parallel()

	c := NewCache(Shared)
	p, err := c.Partition(context.Background())
	require.NoError(t, err)
	v, err := p.Get("a", func(*Partition) (any, error) { return &resource{}, nil })
	require.NoError(t, err)

	_, err = c.Close()
	require.NoError(t, err)
	n, err := c.Close()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int32(1), v.(*resource).closed.Load())
	assert.True(t, c.Closed())
}

func TestClosed_RejectsUse(t *testing.T) {
	t.Parallel()

	c := NewCache(Flow)
	p, err := c.Partition(context.Background())
	require.NoError(t, err)

	_, err = c.Close()
	require.NoError(t, err)

	_, err = c.Partition(context.Background())
	assert.ErrorIs(t, err, ErrDisposed)

	_, err = p.Get("a", func(*Partition) (any, error) { return 1, nil })
	assert.ErrorIs(t, err, ErrDisposed)

	_, err = c.Fork(context.Background())
	assert.ErrorIs(t, err, ErrDisposed)
}

func TestClose_DuringBuildClosesLateInstance(t *testing.T) {
	t.Parallel()

	c := NewCache(Shared)
	p, err := c.Partition(context.Background())
	require.NoError(t, err)

	late := &resource{name: "late"}
	building := make(chan struct{})
	release := make(chan struct{})
	type result struct {
		v   any
		err error
	}
	got := make(chan result, 1)
	go func() {
		v, err := p.Get("late", func(*Partition) (any, error) {
			close(building)
			<-release
			return late, nil
		})
		got <- result{v, err}
	}()

	<-building
	n, err := c.Close()
	require.NoError(t, err)
	assert.Zero(t, n)
	close(release)

	r := <-got
	require.ErrorIs(t, r.err, ErrDisposed)
	assert.Nil(t, r.v)
	assert.Equal(t, int32(1), late.closed.Load())
	assert.Zero(t, p.Len())
}
