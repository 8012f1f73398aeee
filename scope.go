package stitch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/danpasecinic/stitch/internal/scope"
)

// Scope resolves Scoped bindings against its own cache. Closing it closes
// every instance it created that implements io.Closer, and every scope begun
// from it that is still open.
type Scope struct {
	id        uuid.UUID
	container *Container
	parent    *Scope
	owner     *scopeSet
	cache     *scope.Cache
	children  scopeSet
	closed    atomic.Bool
}

type scopeSet struct {
	mu     sync.Mutex
	open   map[*Scope]struct{}
	closed bool
}

func (s *scopeSet) add(sc *Scope) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if s.open == nil {
		s.open = make(map[*Scope]struct{})
	}
	s.open[sc] = struct{}{}
	return true
}

func (s *scopeSet) remove(sc *Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.open, sc)
}

func (s *scopeSet) drain() []*Scope {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	scopes := make([]*Scope, 0, len(s.open))
	for sc := range s.open {
		scopes = append(scopes, sc)
	}
	s.open = nil
	return scopes
}

// BeginScope opens a scope under policy. The container must be compiled.
func (c *Container) BeginScope(policy ScopePolicy) (*Scope, error) {
	if _, err := c.internal.Compiled(); err != nil {
		return nil, wrapError(nil, err)
	}
	return c.openScope(policy, nil, &c.scopes)
}

func (c *Container) openScope(policy ScopePolicy, parent *Scope, owner *scopeSet) (*Scope, error) {
	if !policy.Valid() {
		return nil, errInvalidPolicy(policy)
	}

	s := &Scope{
		id:        uuid.New(),
		container: c,
		parent:    parent,
		owner:     owner,
		cache:     scope.NewCache(policy),
	}

	if !owner.add(s) {
		return nil, newError(ErrCodeDisposedScope, "parent is closed", nil)
	}

	if parent != nil {
		c.config.logger.Debug("scope opened", "scope", s.id, "policy", policy, "parent", parent.id)
	} else {
		c.config.logger.Debug("scope opened", "scope", s.id, "policy", policy)
	}
	c.callScopeHooks(ScopeOpened, s, 0, nil)

	return s, nil
}

func (s *Scope) ID() uuid.UUID {
	return s.id
}

func (s *Scope) Policy() ScopePolicy {
	return s.cache.Policy()
}

func (s *Scope) Parent() *Scope {
	return s.parent
}

func (s *Scope) Closed() bool {
	return s.closed.Load()
}

// BeginScope opens a nested scope. It has its own cache and is closed
// together with s.
func (s *Scope) BeginScope(policy ScopePolicy) (*Scope, error) {
	if s.closed.Load() {
		return nil, newError(ErrCodeDisposedScope, "scope is closed", nil).WithService(s.id.String())
	}
	return s.container.openScope(policy, s, &s.children)
}

func (s *Scope) Resolve(t reflect.Type) (any, error) {
	return s.ResolveCtx(context.Background(), t)
}

// ResolveCtx resolves t in the partition selected by ctx. Only ScopeFlow
// scopes read ctx: it carries the flow created by Fork.
func (s *Scope) ResolveCtx(ctx context.Context, t reflect.Type) (any, error) {
	p, err := s.cache.Partition(ctx)
	if err != nil {
		return nil, wrapError(t, err)
	}
	return s.container.resolve(t, p)
}

func (s *Scope) TryResolve(t reflect.Type) (any, bool) {
	v, err := s.Resolve(t)
	return v, err == nil
}

func (s *Scope) Has(t reflect.Type) bool {
	return s.container.Has(t)
}

// Fork branches the flow carried by ctx. The returned context sees the
// instances realized in ctx's flow so far; anything created afterwards on
// either side stays on that side. Only ScopeFlow scopes can fork.
func (s *Scope) Fork(ctx context.Context) (context.Context, error) {
	forked, err := s.cache.Fork(ctx)
	if err != nil {
		if errors.Is(err, scope.ErrDisposed) {
			return nil, wrapError(nil, err)
		}
		return nil, newError(ErrCodeInvalidScopePolicy, "cannot fork scope", err).WithService(s.id.String())
	}
	return forked, nil
}

// Close is idempotent. Dispose failures are joined into one DISPOSE_FAILED
// error after every instance has been given the chance to close.
func (s *Scope) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	for _, child := range s.children.drain() {
		if err := child.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	disposed, err := s.cache.Close()
	if err != nil {
		errs = append(errs, err)
	}
	s.owner.remove(s)

	joined := errors.Join(errs...)
	logger := s.container.config.logger
	if joined != nil {
		logger.Warn("scope dispose failed", "scope", s.id, "error", joined)
	}
	logger.Debug("scope closed", "scope", s.id, "policy", s.cache.Policy(), "disposed", disposed)
	s.container.callScopeHooks(ScopeClosed, s, disposed, joined)

	if joined != nil {
		return errDisposeFailed(s.id.String(), joined)
	}
	return nil
}

func errInvalidPolicy(policy ScopePolicy) *Error {
	return newError(ErrCodeInvalidScopePolicy, fmt.Sprintf("unknown scope policy %s", policy), nil)
}
