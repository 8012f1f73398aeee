package stitch

import "github.com/danpasecinic/stitch/internal/scope"

type Lifestyle = scope.Lifestyle

const (
	Transient = scope.Transient
	Singleton = scope.Singleton
	Scoped    = scope.Scoped
)

type ScopePolicy = scope.Policy

const (
	// ScopeShared keeps one instance per scope for every caller.
	ScopeShared = scope.Shared
	// ScopeGoroutine keeps one instance per scope and goroutine.
	ScopeGoroutine = scope.Goroutine
	// ScopeFlow keeps one instance per scope and logical flow. Flows are
	// carried in a context.Context and branched with Scope.Fork.
	ScopeFlow = scope.Flow
)
