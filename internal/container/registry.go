package container

import (
	"fmt"
	"reflect"

	"github.com/danpasecinic/stitch/internal/plan"
	ireflect "github.com/danpasecinic/stitch/internal/reflect"
	"github.com/danpasecinic/stitch/internal/scope"
)

type Binding struct {
	Abstract  reflect.Type
	Lifestyle scope.Lifestyle

	// Plan is set for ordinary bindings, Collection and View for the views
	// of a collection registration.
	Plan       *plan.Construction
	Collection *Collection
	View       func(any) any
}

func (b *Binding) Dependencies() []reflect.Type {
	if b.Collection != nil {
		return b.Collection.Plan.Dependencies()
	}
	return b.Plan.Dependencies()
}

func (b *Binding) Concrete() reflect.Type {
	if b.Collection != nil {
		return b.Collection.Plan.SliceType()
	}
	return b.Plan.Concrete
}

// Collection is one collection registration shared by all of its views.
type Collection struct {
	Plan      *plan.Collection
	Lifestyle scope.Lifestyle
}

type View struct {
	Type    reflect.Type
	Convert func(any) any
}

// Registry accumulates bindings. It is written by a single goroutine before
// compilation and only read afterwards, so it carries no lock.
type Registry struct {
	bindings map[reflect.Type]*Binding
	order    []*Binding
	plans    map[reflect.Type]*plan.Construction
}

func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[reflect.Type]*Binding),
		plans:    make(map[reflect.Type]*plan.Construction),
	}
}

// Plan returns the construction plan for concrete. Plans derived from the
// default constructor rules are cached per concrete type; explicit
// constructor candidates always derive a fresh plan.
func (r *Registry) Plan(concrete reflect.Type, candidates []ireflect.Candidate) (*plan.Construction, error) {
	if len(candidates) > 0 {
		return plan.New(concrete, candidates)
	}
	if p, ok := r.plans[concrete]; ok {
		return p, nil
	}
	p, err := plan.New(concrete, nil)
	if err != nil {
		return nil, err
	}
	r.plans[concrete] = p
	return p, nil
}

func (r *Registry) Add(b *Binding) error {
	if _, exists := r.bindings[b.Abstract]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBinding, ireflect.TypeName(b.Abstract))
	}
	r.bindings[b.Abstract] = b
	r.order = append(r.order, b)
	return nil
}

func (r *Registry) Get(t reflect.Type) (*Binding, bool) {
	b, ok := r.bindings[t]
	return b, ok
}

func (r *Registry) Has(t reflect.Type) bool {
	_, ok := r.bindings[t]
	return ok
}

func (r *Registry) Bindings() []*Binding {
	out := make([]*Binding, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Keys() []reflect.Type {
	keys := make([]reflect.Type, len(r.order))
	for i, b := range r.order {
		keys[i] = b.Abstract
	}
	return keys
}

func (r *Registry) Size() int {
	return len(r.order)
}
