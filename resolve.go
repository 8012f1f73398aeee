package stitch

import (
	"context"
	"fmt"
	"reflect"

	ireflect "github.com/danpasecinic/stitch/internal/reflect"
)

// Resolver is the resolution surface shared by Container and Scope.
type Resolver interface {
	Resolve(t reflect.Type) (any, error)
	ResolveCtx(ctx context.Context, t reflect.Type) (any, error)
	Has(t reflect.Type) bool
}

var (
	_ Resolver = (*Container)(nil)
	_ Resolver = (*Scope)(nil)
)

// Resolve looks T up in the compiled type table on every call. Hot paths
// that resolve the same root type repeatedly should bind it once with
// Accessor, which holds the compiled factory and skips the lookup.
func Resolve[T any](r Resolver) (T, error) {
	return as[T](r.Resolve(reflect.TypeFor[T]()))
}

func ResolveCtx[T any](ctx context.Context, r Resolver) (T, error) {
	return as[T](r.ResolveCtx(ctx, reflect.TypeFor[T]()))
}

func MustResolve[T any](r Resolver) T {
	v, err := Resolve[T](r)
	if err != nil {
		panic(err)
	}
	return v
}

func MustResolveCtx[T any](ctx context.Context, r Resolver) T {
	v, err := ResolveCtx[T](ctx, r)
	if err != nil {
		panic(err)
	}
	return v
}

func TryResolve[T any](r Resolver) (T, bool) {
	v, err := Resolve[T](r)
	return v, err == nil
}

func Has[T any](r Resolver) bool {
	return r.Has(reflect.TypeFor[T]())
}

// Accessor returns a resolver for T bound to its compiled factory, so calls
// skip the type lookup. It resolves from the root container and fails for
// Scoped bindings like Resolve does.
func Accessor[T any](c *Container) (func() (T, error), error) {
	t := reflect.TypeFor[T]()

	compiled, err := c.internal.Compiled()
	if err != nil {
		return nil, wrapError(t, err)
	}

	factory, ok := compiled.TryFactory(t)
	if !ok {
		return nil, errUnregisteredType(t, nil)
	}

	if len(c.config.onResolve) == 0 {
		return func() (T, error) {
			v, err := factory(nil)
			if err != nil {
				var zero T
				return zero, wrapError(t, err)
			}
			return as[T](v, nil)
		}, nil
	}

	return func() (T, error) {
		return as[T](c.resolve(t, nil))
	}, nil
}

func as[T any](v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}

	typed, ok := v.(T)
	if !ok {
		return zero, newError(
			ErrCodeUnknown,
			fmt.Sprintf("resolved %T is not a %s", v, ireflect.TypeName(reflect.TypeFor[T]())),
			nil,
		)
	}
	return typed, nil
}

type Optional[T any] struct {
	value   T
	present bool
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

func (o Optional[T]) Value() T {
	return o.value
}

func (o Optional[T]) Present() bool {
	return o.present
}

func (o Optional[T]) OrElse(defaultValue T) T {
	if o.present {
		return o.value
	}
	return defaultValue
}

func (o Optional[T]) OrElseFunc(fn func() T) T {
	if o.present {
		return o.value
	}
	return fn()
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, present: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

// ResolveOptional is empty when T is not bound. Any other failure is
// returned.
func ResolveOptional[T any](r Resolver) (Optional[T], error) {
	return ResolveOptionalCtx[T](context.Background(), r)
}

func ResolveOptionalCtx[T any](ctx context.Context, r Resolver) (Optional[T], error) {
	if !r.Has(reflect.TypeFor[T]()) {
		return None[T](), nil
	}

	v, err := ResolveCtx[T](ctx, r)
	if err != nil {
		return None[T](), err
	}
	return Some(v), nil
}
