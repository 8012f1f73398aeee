package stitch

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"time"

	"github.com/danpasecinic/stitch/internal/container"
	"github.com/danpasecinic/stitch/internal/scope"
)

type Container struct {
	internal *container.Container
	config   *containerConfig
	scopes   scopeSet
}

type containerConfig struct {
	logger    *slog.Logger
	eager     bool
	onResolve []ResolveHook
	onCompile []CompileHook
	onScope   []ScopeHook
}

func New(opts ...Option) *Container {
	cfg := &containerConfig{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	internal := container.New(
		&container.Config{
			Logger:          cfg.logger,
			EagerSingletons: cfg.eager,
		},
	)

	return &Container{
		internal: internal,
		config:   cfg,
	}
}

// Register binds abstract to concrete. concrete must be a pointer to a
// struct assignable to abstract. Registration is not safe for concurrent
// use and fails once the container is compiled.
func (c *Container) Register(abstract, concrete reflect.Type, lifestyle Lifestyle, opts ...BindingOption) error {
	cfg := newBindingConfig(opts)
	if err := c.internal.Register(abstract, concrete, lifestyle, cfg.constructors); err != nil {
		return wrapError(abstract, err)
	}
	return nil
}

// Compile freezes the bindings and lowers every one of them into a factory.
// It can be called once; the container stays sealed when it fails.
func (c *Container) Compile() error {
	start := time.Now()
	if err := c.internal.Compile(); err != nil {
		coded := wrapError(nil, err)
		c.callCompileHooks(c.internal.Size(), time.Since(start), coded)
		return coded
	}

	c.callCompileHooks(c.internal.Size(), time.Since(start), nil)
	return nil
}

// Validate reports every configuration problem at once without compiling.
func (c *Container) Validate() error {
	if err := c.internal.Validate(); err != nil {
		return errValidationFailed(err)
	}
	return nil
}

func (c *Container) IsCompiled() bool {
	return c.internal.IsCompiled()
}

func (c *Container) Size() int {
	return c.internal.Size()
}

func (c *Container) Keys() []reflect.Type {
	return c.internal.Keys()
}

func (c *Container) Has(t reflect.Type) bool {
	return c.internal.Has(t)
}

func (c *Container) Lifestyle(t reflect.Type) (Lifestyle, error) {
	l, err := c.internal.Lifestyle(t)
	if err != nil {
		return 0, wrapError(t, err)
	}
	return l, nil
}

func (c *Container) Resolve(t reflect.Type) (any, error) {
	return c.resolve(t, nil)
}

// ResolveCtx is Resolve for callers holding a context. The root container
// has no flows, so ctx is not consulted.
func (c *Container) ResolveCtx(_ context.Context, t reflect.Type) (any, error) {
	return c.resolve(t, nil)
}

func (c *Container) TryResolve(t reflect.Type) (any, bool) {
	v, err := c.resolve(t, nil)
	return v, err == nil
}

// Close closes every open scope, then every realized singleton that
// implements io.Closer. Resolving afterwards fails with DISPOSED_SCOPE.
func (c *Container) Close() error {
	var errs []error
	for _, s := range c.scopes.drain() {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	closed, err := c.internal.Close()
	if err != nil {
		errs = append(errs, err)
		c.config.logger.Warn("singleton dispose failed", "error", err)
	}
	c.config.logger.Debug("container closed", "singletons_closed", closed)

	if len(errs) > 0 {
		return errDisposeFailed("container", errors.Join(errs...))
	}
	return nil
}

func (c *Container) resolve(t reflect.Type, p *scope.Partition) (any, error) {
	if len(c.config.onResolve) == 0 {
		return c.invoke(t, p)
	}

	start := time.Now()
	v, err := c.invoke(t, p)
	c.callResolveHooks(t, time.Since(start), err)
	return v, err
}

func (c *Container) invoke(t reflect.Type, p *scope.Partition) (any, error) {
	compiled, err := c.internal.Compiled()
	if err != nil {
		return nil, wrapError(t, err)
	}

	v, err := compiled.Factory(t)(p)
	if err != nil {
		return nil, wrapError(t, err)
	}
	return v, nil
}
