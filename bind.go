package stitch

import (
	"reflect"

	ireflect "github.com/danpasecinic/stitch/internal/reflect"
)

type BindingOption func(*bindingConfig)

type bindingConfig struct {
	constructors []ireflect.Candidate
}

func newBindingConfig(opts []BindingOption) *bindingConfig {
	cfg := &bindingConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

type injected struct {
	fn any
}

// Inject marks fn as the constructor to use among those passed to
// WithConstructors.
func Inject(fn any) any {
	return injected{fn: fn}
}

// WithConstructors supplies the constructor candidates of the concrete type.
// Each must be a function returning the concrete type, optionally followed by
// an error; its parameters are resolved as dependencies. Without a marked
// candidate the one with the most parameters wins.
func WithConstructors(fns ...any) BindingOption {
	return func(cfg *bindingConfig) {
		for _, fn := range fns {
			if m, ok := fn.(injected); ok {
				cfg.constructors = append(cfg.constructors, ireflect.Candidate{Fn: m.fn, Marked: true})
				continue
			}
			cfg.constructors = append(cfg.constructors, ireflect.Candidate{Fn: fn})
		}
	}
}

// Bind binds the abstract type I to the concrete type T.
func Bind[I, T any](c *Container, lifestyle Lifestyle, opts ...BindingOption) error {
	return c.Register(reflect.TypeFor[I](), reflect.TypeFor[T](), lifestyle, opts...)
}

// BindSelf binds T to itself.
func BindSelf[T any](c *Container, lifestyle Lifestyle, opts ...BindingOption) error {
	t := reflect.TypeFor[T]()
	return c.Register(t, t, lifestyle, opts...)
}
