package container

import (
	"log/slog"
	"reflect"
	"slices"
	"sync/atomic"

	"github.com/danpasecinic/stitch/internal/plan"
	"github.com/danpasecinic/stitch/internal/scope"
	"github.com/danpasecinic/stitch/internal/typekey"
)

// Factory builds one instance. The partition is nil when resolving from the
// root container.
type Factory = plan.Factory[*scope.Partition]

type node struct {
	factory Factory
	// scoped is the first Scoped binding reachable without crossing a
	// singleton, nil if none.
	scoped reflect.Type
}

type compiler struct {
	registry *Registry
	logger   *slog.Logger
	clock    atomic.Uint64

	stack   []reflect.Type
	lowered map[*Binding]node
	memos   map[*Binding]*Memo
	groups  map[*Collection]node
	shared  map[*Collection]*Memo
}

func newCompiler(r *Registry, logger *slog.Logger) *compiler {
	return &compiler{
		registry: r,
		logger:   logger,
		lowered:  make(map[*Binding]node),
		memos:    make(map[*Binding]*Memo),
		groups:   make(map[*Collection]node),
		shared:   make(map[*Collection]*Memo),
	}
}

func (c *compiler) compile() (*Compiled, error) {
	bindings := c.registry.Bindings()

	for _, b := range bindings {
		if b.Lifestyle == scope.Singleton {
			c.memos[b] = newMemo(b.Abstract, &c.clock)
		}
	}

	for _, b := range bindings {
		if _, err := c.lower(b); err != nil {
			return nil, err
		}
	}

	g := buildGraph(c.registry, false)
	// Every singleton in a cyclic component needs itself to be built first,
	// so its memo fails fast instead of waiting on another goroutine's lock.
	for _, scc := range g.DetectCycles() {
		for _, t := range scc {
			b, ok := c.registry.Get(t)
			if !ok || b.Lifestyle != scope.Singleton {
				continue
			}
			path := g.FindCyclePath(t)
			c.memos[b].cycle = path
			c.logger.Warn("singleton cycle fails at first resolution", "path", FormatPath(path))
		}
	}

	factories := make([]typekey.Pair[Factory], len(bindings))
	lifestyles := make([]typekey.Pair[scope.Lifestyle], len(bindings))
	singletons := make([]*Memo, 0, len(c.memos))
	for i, b := range bindings {
		factories[i] = typekey.Pair[Factory]{Key: b.Abstract, Value: c.lowered[b].factory}
		lifestyles[i] = typekey.Pair[scope.Lifestyle]{Key: b.Abstract, Value: b.Lifestyle}
		if m, ok := c.memos[b]; ok {
			singletons = append(singletons, m)
		}
	}
	for _, m := range c.shared {
		singletons = append(singletons, m)
	}

	return &Compiled{
		factories:  typekey.NewWithSentinel(factories, typekey.HotLoadFactor, Factory(notRegistered)),
		lifestyles: typekey.New(lifestyles, typekey.DenseLoadFactor),
		singletons: singletons,
		graph:      g,
	}, nil
}

func (c *compiler) lower(b *Binding) (node, error) {
	if n, ok := c.lowered[b]; ok {
		return n, nil
	}

	if i := slices.Index(c.stack, b.Abstract); i >= 0 {
		path := append(slices.Clone(c.stack[i:]), b.Abstract)
		return node{}, &CycleError{Path: path}
	}

	c.stack = append(c.stack, b.Abstract)
	defer func() { c.stack = c.stack[:len(c.stack)-1] }()

	var (
		raw node
		err error
	)
	if b.Collection != nil {
		raw, err = c.lowerView(b)
	} else {
		raw, err = c.lowerConstruction(b.Abstract, b.Plan)
	}
	if err != nil {
		return node{}, err
	}

	var n node
	switch b.Lifestyle {
	case scope.Singleton:
		if raw.scoped != nil {
			return node{}, &MismatchError{Singleton: b.Abstract, Scoped: raw.scoped}
		}
		m := c.memos[b]
		m.build = raw.factory
		n = node{factory: m.Get}
	case scope.Scoped:
		n = node{factory: scopedRef(b, b.Abstract, raw.factory), scoped: b.Abstract}
	default:
		n = raw
	}

	c.lowered[b] = n
	return n, nil
}

// edge returns the factory for a dependency. Edges into singletons stop
// here and point at the memo, so they never extend the stack.
func (c *compiler) edge(from, dep reflect.Type) (node, error) {
	b, ok := c.registry.Get(dep)
	if !ok {
		return node{}, &MissingError{Type: dep, Requester: from}
	}
	if b.Lifestyle == scope.Singleton {
		return node{factory: c.memos[b].Get}, nil
	}
	return c.lower(b)
}

func (c *compiler) lowerConstruction(from reflect.Type, p *plan.Construction) (node, error) {
	deps := p.Dependencies()
	factories := make([]Factory, len(deps))

	var scoped reflect.Type
	for i, dep := range deps {
		n, err := c.edge(from, dep)
		if err != nil {
			return node{}, err
		}
		factories[i] = n.factory
		if scoped == nil {
			scoped = n.scoped
		}
	}

	f, err := plan.Lower(p, factories)
	if err != nil {
		return node{}, err
	}
	return node{factory: f, scoped: scoped}, nil
}

func (c *compiler) lowerGroup(from reflect.Type, g *Collection) (node, error) {
	if n, ok := c.groups[g]; ok {
		return n, nil
	}

	elements := make([]Factory, len(g.Plan.Elements))
	var scoped reflect.Type
	for i, p := range g.Plan.Elements {
		n, err := c.lowerConstruction(from, p)
		if err != nil {
			return node{}, err
		}
		elements[i] = n.factory
		if scoped == nil {
			scoped = n.scoped
		}
	}

	n := node{factory: plan.LowerCollection(g.Plan, elements), scoped: scoped}
	c.groups[g] = n
	return n, nil
}

// lowerView shares one build between every view of a collection: a single
// memo for Singleton, a single scope entry for Scoped.
func (c *compiler) lowerView(b *Binding) (node, error) {
	g := b.Collection
	build, err := c.lowerGroup(b.Abstract, g)
	if err != nil {
		return node{}, err
	}

	source := build.factory
	switch g.Lifestyle {
	case scope.Singleton:
		if build.scoped == nil {
			m, ok := c.shared[g]
			if !ok {
				m = newMemo(g.Plan.SliceType(), &c.clock)
				m.build = build.factory
				c.shared[g] = m
			}
			source = m.Get
		}
	case scope.Scoped:
		source = scopedRef(g, g.Plan.SliceType(), build.factory)
	}

	convert := b.View
	return node{
		factory: func(p *scope.Partition) (any, error) {
			v, err := source(p)
			if err != nil {
				return nil, err
			}
			return convert(v), nil
		},
		scoped: build.scoped,
	}, nil
}

func scopedRef(key any, abstract reflect.Type, build Factory) Factory {
	return func(p *scope.Partition) (any, error) {
		if p == nil {
			return nil, &ScopeRequiredError{Type: abstract}
		}
		return p.Get(key, build)
	}
}

func notRegistered(*scope.Partition) (any, error) {
	return nil, ErrNotRegistered
}
