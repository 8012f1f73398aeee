// Package stitchtest wraps a stitch container with helpers that fail the
// test instead of returning errors.
package stitchtest

import (
	"reflect"

	"github.com/danpasecinic/stitch"
	ireflect "github.com/danpasecinic/stitch/internal/reflect"
)

type TB interface {
	Helper()
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Cleanup(f func())
}

type TestContainer struct {
	*stitch.Container
	tb TB
}

// New returns a container that is closed when the test finishes.
func New(tb TB, opts ...stitch.Option) *TestContainer {
	tb.Helper()

	c := stitch.New(opts...)
	tc := &TestContainer{
		Container: c,
		tb:        tb,
	}

	tb.Cleanup(func() {
		if err := c.Close(); err != nil {
			tb.Fatalf("failed to close container: %v", err)
		}
	})

	return tc
}

func (tc *TestContainer) RequireCompile() {
	tc.tb.Helper()

	if err := tc.Compile(); err != nil {
		tc.tb.Fatalf("failed to compile container: %v", err)
	}
}

func (tc *TestContainer) RequireValidate() {
	tc.tb.Helper()

	if err := tc.Validate(); err != nil {
		tc.tb.Fatalf("container validation failed: %v", err)
	}
}

// RequireScope opens a scope that is closed when the test finishes.
func (tc *TestContainer) RequireScope(policy stitch.ScopePolicy) *stitch.Scope {
	tc.tb.Helper()

	s, err := tc.BeginScope(policy)
	if err != nil {
		tc.tb.Fatalf("failed to begin %s scope: %v", policy, err)
	}
	tc.tb.Cleanup(func() {
		if err := s.Close(); err != nil {
			tc.tb.Fatalf("failed to close scope %s: %v", s.ID(), err)
		}
	})
	return s
}

func MustBind[I, T any](tc *TestContainer, lifestyle stitch.Lifestyle, opts ...stitch.BindingOption) {
	tc.tb.Helper()

	if err := stitch.Bind[I, T](tc.Container, lifestyle, opts...); err != nil {
		tc.tb.Fatalf("failed to bind %s: %v", typeName[I](), err)
	}
}

func MustBindSelf[T any](tc *TestContainer, lifestyle stitch.Lifestyle, opts ...stitch.BindingOption) {
	tc.tb.Helper()

	if err := stitch.BindSelf[T](tc.Container, lifestyle, opts...); err != nil {
		tc.tb.Fatalf("failed to bind %s: %v", typeName[T](), err)
	}
}

// MustBindValue binds T as a singleton whose instance is value. It is the
// usual way to put a test double in place of a real dependency.
func MustBindValue[T any](tc *TestContainer, value T) {
	tc.tb.Helper()

	ctor := func() T { return value }
	if err := stitch.BindSelf[T](tc.Container, stitch.Singleton, stitch.WithConstructors(ctor)); err != nil {
		tc.tb.Fatalf("failed to bind value %s: %v", typeName[T](), err)
	}
}

func MustResolve[T any](tc *TestContainer) T {
	tc.tb.Helper()

	v, err := stitch.Resolve[T](tc.Container)
	if err != nil {
		tc.tb.Fatalf("failed to resolve %s: %v", typeName[T](), err)
	}
	return v
}

func MustResolveIn[T any](tc *TestContainer, s *stitch.Scope) T {
	tc.tb.Helper()

	v, err := stitch.Resolve[T](s)
	if err != nil {
		tc.tb.Fatalf("failed to resolve %s in scope %s: %v", typeName[T](), s.ID(), err)
	}
	return v
}

func AssertHas[T any](tc *TestContainer) {
	tc.tb.Helper()

	if !stitch.Has[T](tc.Container) {
		tc.tb.Fatalf("expected container to have %s", typeName[T]())
	}
}

func AssertNotHas[T any](tc *TestContainer) {
	tc.tb.Helper()

	if stitch.Has[T](tc.Container) {
		tc.tb.Fatalf("expected container to not have %s", typeName[T]())
	}
}

func typeName[T any]() string {
	return ireflect.TypeName(reflect.TypeFor[T]())
}
