package container

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/danpasecinic/stitch/internal/graph"
	"github.com/danpasecinic/stitch/internal/plan"
	ireflect "github.com/danpasecinic/stitch/internal/reflect"
	"github.com/danpasecinic/stitch/internal/scope"
)

type Container struct {
	registry *Registry
	logger   *slog.Logger
	eager    bool

	sealed   atomic.Bool
	closed   atomic.Bool
	compiled atomic.Pointer[Compiled]
}

type Config struct {
	Logger          *slog.Logger
	EagerSingletons bool
}

func New(cfg *Config) *Container {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Container{
		registry: NewRegistry(),
		logger:   logger,
		eager:    cfg.EagerSingletons,
	}
}

func (c *Container) Register(
	abstract, concrete reflect.Type, lifestyle scope.Lifestyle, candidates []ireflect.Candidate,
) error {
	if c.sealed.Load() {
		return ErrAlreadyCompiled
	}
	if abstract == nil || concrete == nil {
		return ErrNilType
	}
	if !lifestyle.Valid() {
		return &BindingError{Abstract: abstract, Cause: fmt.Errorf("%w: %d", ErrInvalidLifestyle, int(lifestyle))}
	}

	p, err := c.registry.Plan(concrete, candidates)
	if err != nil {
		return &BindingError{Abstract: abstract, Cause: err}
	}
	if err := p.CheckAssignable(abstract); err != nil {
		return &BindingError{Abstract: abstract, Cause: err}
	}

	return c.registry.Add(&Binding{
		Abstract:  abstract,
		Lifestyle: lifestyle,
		Plan:      p,
	})
}

// RegisterCollection binds every view to one shared build of the element
// list. Either all views are bound or none.
func (c *Container) RegisterCollection(
	element reflect.Type, lifestyle scope.Lifestyle, concretes []reflect.Type, views []View,
) error {
	if c.sealed.Load() {
		return ErrAlreadyCompiled
	}
	if element == nil {
		return ErrNilType
	}
	if !lifestyle.Valid() {
		return &BindingError{Abstract: element, Cause: fmt.Errorf("%w: %d", ErrInvalidLifestyle, int(lifestyle))}
	}

	plans := make([]*plan.Construction, len(concretes))
	for i, concrete := range concretes {
		if concrete == nil {
			return ErrNilType
		}
		p, err := c.registry.Plan(concrete, nil)
		if err != nil {
			return &BindingError{Abstract: element, Cause: err}
		}
		plans[i] = p
	}

	collection, err := plan.NewCollection(element, plans)
	if err != nil {
		return &BindingError{Abstract: element, Cause: err}
	}

	for _, v := range views {
		if c.registry.Has(v.Type) {
			return fmt.Errorf("%w: %s", ErrDuplicateBinding, ireflect.TypeName(v.Type))
		}
	}

	group := &Collection{Plan: collection, Lifestyle: lifestyle}
	for _, v := range views {
		if err := c.registry.Add(&Binding{
			Abstract:   v.Type,
			Lifestyle:  lifestyle,
			Collection: group,
			View:       v.Convert,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Compile lowers every binding once. The container is sealed even when
// compilation fails.
func (c *Container) Compile() error {
	if !c.sealed.CompareAndSwap(false, true) {
		return ErrAlreadyCompiled
	}

	start := time.Now()
	compiled, err := newCompiler(c.registry, c.logger).compile()
	if err != nil {
		return err
	}

	if c.eager {
		if err := compiled.instantiate(); err != nil {
			return err
		}
	}

	c.compiled.Store(compiled)
	c.logger.Debug("compiled container",
		"bindings", c.registry.Size(),
		"singletons", len(compiled.singletons),
		"duration", time.Since(start))
	return nil
}

func (c *Container) Compiled() (*Compiled, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	compiled := c.compiled.Load()
	if compiled == nil {
		return nil, ErrNotCompiled
	}
	return compiled, nil
}

func (c *Container) IsCompiled() bool {
	return c.compiled.Load() != nil
}

func (c *Container) Has(t reflect.Type) bool {
	return c.registry.Has(t)
}

func (c *Container) Keys() []reflect.Type {
	return c.registry.Keys()
}

func (c *Container) Size() int {
	return c.registry.Size()
}

func (c *Container) Binding(t reflect.Type) (*Binding, bool) {
	return c.registry.Get(t)
}

func (c *Container) Bindings() []*Binding {
	return c.registry.Bindings()
}

func (c *Container) Lifestyle(t reflect.Type) (scope.Lifestyle, error) {
	compiled := c.compiled.Load()
	if compiled == nil {
		return 0, ErrNotCompiled
	}
	return compiled.Lifestyle(t)
}

// Graph returns the dependency graph over every registered binding,
// singleton edges included.
func (c *Container) Graph() *graph.Graph {
	return buildGraph(c.registry, false)
}

// Validate reports every missing dependency, every cycle not broken by a
// singleton and every singleton that captures a scoped binding.
func (c *Container) Validate() error {
	full := buildGraph(c.registry, false)

	var errs []error
	for _, missing := range full.Validate() {
		var requester reflect.Type
		if dependents := full.GetDependents(missing); len(dependents) > 0 {
			requester = dependents[0]
		}
		errs = append(errs, &MissingError{Type: missing, Requester: requester})
	}

	strict := buildGraph(c.registry, true)
	for _, path := range strict.GetAllCyclePaths() {
		errs = append(errs, &CycleError{Path: path})
	}

	errs = append(errs, captives(c.registry)...)

	return errors.Join(errs...)
}
