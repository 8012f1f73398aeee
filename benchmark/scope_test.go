package benchmark

import (
	"context"
	"testing"

	"github.com/samber/do/v2"

	"github.com/danpasecinic/stitch"
)

func BenchmarkScope_Request_Stitch(b *testing.B) {
	c := stitch.New(quiet())
	bindChain(c, stitch.Singleton)
	_ = stitch.BindSelf[*Request](c, stitch.Scoped)
	_ = c.Compile()

	b.ReportAllocs()
	for b.Loop() {
		s, _ := c.BeginScope(stitch.ScopeShared)
		_, _ = stitch.Resolve[*Request](s)
		_, _ = stitch.Resolve[*Request](s)
		_ = s.Close()
	}
}

func BenchmarkScope_Request_StitchFlow(b *testing.B) {
	c := stitch.New(quiet())
	bindChain(c, stitch.Singleton)
	_ = stitch.BindSelf[*Request](c, stitch.Scoped)
	_ = c.Compile()
	ctx := context.Background()

	b.ReportAllocs()
	for b.Loop() {
		s, _ := c.BeginScope(stitch.ScopeFlow)
		_, _ = stitch.ResolveCtx[*Request](ctx, s)
		forked, _ := s.Fork(ctx)
		_, _ = stitch.ResolveCtx[*Request](forked, s)
		_ = s.Close()
	}
}

func BenchmarkScope_Request_Do(b *testing.B) {
	injector := do.New()
	provideDoChain(injector)
	_ = do.MustInvoke[*Service](injector)

	b.ReportAllocs()
	for b.Loop() {
		scope := injector.Scope("request")
		do.Provide(scope, func(i do.Injector) (*Request, error) {
			return &Request{Service: do.MustInvoke[*Service](i)}, nil
		})
		_ = do.MustInvoke[*Request](scope)
		_ = do.MustInvoke[*Request](scope)
		_ = scope.Shutdown()
	}
}
