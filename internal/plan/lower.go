package plan

import (
	"fmt"
	"reflect"

	ireflect "github.com/danpasecinic/stitch/internal/reflect"
)

// Factory builds one instance. S is the activation passed down the call,
// opaque to this package.
type Factory[S any] func(S) (any, error)

// ConstructionError reports a constructor or inject method that returned an
// error.
type ConstructionError struct {
	Concrete reflect.Type
	Step     string
	Cause    error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Concrete, e.Step, e.Cause)
}

func (e *ConstructionError) Unwrap() error {
	return e.Cause
}

// Lower composes the plan with one factory per entry of Dependencies into a
// single factory.
func Lower[S any](p *Construction, deps []Factory[S]) (Factory[S], error) {
	want := len(p.Dependencies())
	if len(deps) != want {
		return nil, fmt.Errorf("%s: expected %d dependency factories, got %d", p.Concrete, want, len(deps))
	}

	ctor := p.Constructor
	nCtor := len(ctor.Params)
	ctorDeps := deps[:nCtor]
	rest := deps[nCtor:]

	fieldDeps := rest[:len(p.Fields)]
	rest = rest[len(p.Fields):]

	setterDeps := rest[:len(p.Setters)]
	rest = rest[len(p.Setters):]

	methodDeps := make([][]Factory[S], len(p.Methods))
	for i, m := range p.Methods {
		methodDeps[i] = rest[:len(m.Params)]
		rest = rest[len(m.Params):]
	}

	elem := p.Concrete.Elem()
	fields := p.Fields
	setters := p.Setters
	methods := p.Methods
	concrete := p.Concrete

	return func(s S) (any, error) {
		var instance reflect.Value

		if ctor.Implicit {
			instance = reflect.New(elem)
		} else {
			args, err := resolveArgs(s, ctorDeps, ctor.Params)
			if err != nil {
				return nil, err
			}
			out := ctor.Fn.Call(args)
			if ctor.ReturnsError && !out[1].IsNil() {
				return nil, &ConstructionError{Concrete: concrete, Step: "constructor", Cause: out[1].Interface().(error)}
			}
			instance = out[0]
			if instance.IsNil() {
				return nil, &ConstructionError{
					Concrete: concrete, Step: "constructor", Cause: fmt.Errorf("returned nil %s", concrete),
				}
			}
		}

		target := instance.Elem()
		for i, f := range fields {
			dep, err := fieldDeps[i](s)
			if err != nil {
				return nil, err
			}
			target.FieldByIndex(f.Index).Set(ireflect.ValueFor(dep, f.Type))
		}

		for i, m := range setters {
			if err := invoke(s, instance, m, setterDeps[i:i+1], concrete); err != nil {
				return nil, err
			}
		}

		for i, m := range methods {
			if err := invoke(s, instance, m, methodDeps[i], concrete); err != nil {
				return nil, err
			}
		}

		return instance.Interface(), nil
	}, nil
}

func resolveArgs[S any](s S, deps []Factory[S], types []reflect.Type) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(deps))
	for i, dep := range deps {
		v, err := dep(s)
		if err != nil {
			return nil, err
		}
		args[i] = ireflect.ValueFor(v, types[i])
	}
	return args, nil
}

func invoke[S any](s S, receiver reflect.Value, m ireflect.Method, deps []Factory[S], concrete reflect.Type) error {
	args, err := resolveArgs(s, deps, m.Params)
	if err != nil {
		return err
	}

	out := m.Func.Call(append([]reflect.Value{receiver}, args...))
	if m.ReturnsError && !out[0].IsNil() {
		return &ConstructionError{Concrete: concrete, Step: m.Name, Cause: out[0].Interface().(error)}
	}
	return nil
}

// LowerCollection composes element factories into a factory producing a
// slice of the element type, filled in registration order.
func LowerCollection[S any](c *Collection, elements []Factory[S]) Factory[S] {
	sliceType := c.SliceType()
	element := c.Element
	n := len(elements)

	return func(s S) (any, error) {
		slice := reflect.MakeSlice(sliceType, n, n)
		for i, build := range elements {
			v, err := build(s)
			if err != nil {
				return nil, err
			}
			slice.Index(i).Set(ireflect.ValueFor(v, element))
		}
		return slice.Interface(), nil
	}
}
