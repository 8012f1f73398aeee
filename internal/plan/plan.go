package plan

import (
	"errors"
	"fmt"
	"reflect"

	ireflect "github.com/danpasecinic/stitch/internal/reflect"
)

var (
	ErrValueType               = errors.New("value types cannot be binding targets")
	ErrNotAssignable           = errors.New("concrete type is not assignable to abstract type")
	ErrAmbiguousConstructor    = errors.New("multiple constructors share the highest arity")
	ErrMultipleInjectMarkers   = errors.New("more than one constructor is marked for injection")
	ErrNoInjectableConstructor = ireflect.ErrInvalidConstructor
	ErrInvalidInjectionTarget  = ireflect.ErrInvalidInjectionTarget
)

// Construction describes how to build one instance of a concrete type.
type Construction struct {
	Concrete    reflect.Type
	Constructor ireflect.Constructor
	Fields      []ireflect.Field
	Setters     []ireflect.Method
	Methods     []ireflect.Method
}

// New derives the plan for concrete, a pointer to a struct.
func New(concrete reflect.Type, candidates []ireflect.Candidate) (*Construction, error) {
	if !ireflect.IsReferenceStruct(concrete) {
		return nil, fmt.Errorf("%w: %s", ErrValueType, ireflect.TypeName(concrete))
	}

	ctors, err := ireflect.Constructors(concrete, candidates)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", concrete, err)
	}

	ctor, err := selectConstructor(ctors)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", concrete, err)
	}

	fields, setters, err := ireflect.InjectFields(concrete)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", concrete, err)
	}

	methods, err := ireflect.InjectMethods(concrete)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", concrete, err)
	}

	return &Construction{
		Concrete:    concrete,
		Constructor: ctor,
		Fields:      fields,
		Setters:     setters,
		Methods:     methods,
	}, nil
}

func selectConstructor(ctors []ireflect.Constructor) (ireflect.Constructor, error) {
	var marked []ireflect.Constructor
	for _, c := range ctors {
		if c.Marked {
			marked = append(marked, c)
		}
	}

	switch len(marked) {
	case 0:
	case 1:
		return marked[0], nil
	default:
		return ireflect.Constructor{}, fmt.Errorf("%w: %d marked", ErrMultipleInjectMarkers, len(marked))
	}

	best := -1
	ties := 0
	for i, c := range ctors {
		switch {
		case best < 0 || len(c.Params) > len(ctors[best].Params):
			best = i
			ties = 1
		case len(c.Params) == len(ctors[best].Params):
			ties++
		}
	}

	if ties != 1 {
		return ireflect.Constructor{}, fmt.Errorf(
			"%w: %d constructors take %d parameters", ErrAmbiguousConstructor, ties, len(ctors[best].Params),
		)
	}
	return ctors[best], nil
}

// Dependencies lists every dependency type in build order: constructor
// parameters, fields, setters, then inject methods.
func (p *Construction) Dependencies() []reflect.Type {
	deps := make([]reflect.Type, 0, len(p.Constructor.Params)+len(p.Fields)+len(p.Setters)+len(p.Methods))
	deps = append(deps, p.Constructor.Params...)
	for _, f := range p.Fields {
		deps = append(deps, f.Type)
	}
	for _, s := range p.Setters {
		deps = append(deps, s.Params...)
	}
	for _, m := range p.Methods {
		deps = append(deps, m.Params...)
	}
	return deps
}

// CheckAssignable verifies that instances of the plan can be stored under
// abstract.
func (p *Construction) CheckAssignable(abstract reflect.Type) error {
	if !p.Concrete.AssignableTo(abstract) {
		return fmt.Errorf("%w: %s does not implement %s", ErrNotAssignable, p.Concrete, abstract)
	}
	return nil
}

// Collection is an ordered list of element plans sharing one element type.
type Collection struct {
	Element  reflect.Type
	Elements []*Construction
}

func NewCollection(element reflect.Type, elements []*Construction) (*Collection, error) {
	for _, e := range elements {
		if err := e.CheckAssignable(element); err != nil {
			return nil, err
		}
	}
	return &Collection{Element: element, Elements: elements}, nil
}

func (c *Collection) SliceType() reflect.Type {
	return reflect.SliceOf(c.Element)
}

func (c *Collection) Dependencies() []reflect.Type {
	var deps []reflect.Type
	for _, e := range c.Elements {
		deps = append(deps, e.Dependencies()...)
	}
	return deps
}
