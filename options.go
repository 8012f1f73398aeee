package stitch

import "log/slog"

type Option func(*containerConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *containerConfig) {
		cfg.logger = logger
	}
}

// WithEagerSingletons builds every singleton in dependency order at the end
// of Compile instead of on first use.
func WithEagerSingletons() Option {
	return func(cfg *containerConfig) {
		cfg.eager = true
	}
}

func WithResolveObserver(hook ResolveHook) Option {
	return func(cfg *containerConfig) {
		cfg.onResolve = append(cfg.onResolve, hook)
	}
}

func WithCompileObserver(hook CompileHook) Option {
	return func(cfg *containerConfig) {
		cfg.onCompile = append(cfg.onCompile, hook)
	}
}

func WithScopeObserver(hook ScopeHook) Option {
	return func(cfg *containerConfig) {
		cfg.onScope = append(cfg.onScope, hook)
	}
}
