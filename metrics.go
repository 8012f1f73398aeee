package stitch

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

type ResolveHook func(t reflect.Type, duration time.Duration, err error)

type CompileHook func(bindings int, duration time.Duration, err error)

type ScopeEvent int

const (
	ScopeOpened ScopeEvent = iota
	ScopeClosed
)

func (e ScopeEvent) String() string {
	if e == ScopeOpened {
		return "opened"
	}
	return "closed"
}

// ScopeHook observes scope lifetimes. disposed and err are only set for
// ScopeClosed.
type ScopeHook func(event ScopeEvent, id uuid.UUID, policy ScopePolicy, disposed int, err error)

func (c *Container) callResolveHooks(t reflect.Type, duration time.Duration, err error) {
	for _, hook := range c.config.onResolve {
		hook(t, duration, err)
	}
}

func (c *Container) callCompileHooks(bindings int, duration time.Duration, err error) {
	for _, hook := range c.config.onCompile {
		hook(bindings, duration, err)
	}
}

func (c *Container) callScopeHooks(event ScopeEvent, s *Scope, disposed int, err error) {
	for _, hook := range c.config.onScope {
		hook(event, s.id, s.cache.Policy(), disposed, err)
	}
}
