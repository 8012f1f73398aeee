// Package stitch provides a compiled dependency injection container for Go 1.25+.
//
// Bindings are registered up front, then compiled once into a graph of
// factories. Resolution afterwards is a single table lookup followed by a
// direct call, with no per-call reflection over the binding graph.
//
// # Quick Start
//
//	c := stitch.New()
//
//	stitch.BindSelf[*Config](c, stitch.Singleton)
//	stitch.Bind[UserRepository, *PostgresUserRepo](c, stitch.Transient)
//	stitch.BindSelf[*UserService](c, stitch.Transient)
//
//	if err := c.Compile(); err != nil {
//	    return err
//	}
//
//	svc, err := stitch.Resolve[*UserService](c)
//
// # Injection
//
// Concrete types are pointers to structs. Dependencies are declared in four
// places, all resolved by type:
//
//	type UserService struct {
//	    Repo  UserRepository `inject:""`        // field
//	    clock Clock          `inject:"setter"`  // passed to SetClock
//	}
//
//	func (s *UserService) SetClock(c Clock) { s.clock = c }
//
//	// Exported methods named Inject* are called with their parameters resolved.
//	func (s *UserService) InjectLogger(l *slog.Logger) { ... }
//
// Constructors are supplied per binding. The one marked with Inject wins;
// otherwise the one with the most parameters does:
//
//	stitch.BindSelf[*UserService](c, stitch.Transient,
//	    stitch.WithConstructors(NewUserService, stitch.Inject(NewUserServiceWithCache)),
//	)
//
// Without constructors the zero value is allocated and then injected.
//
// # Lifestyles
//
//	stitch.Transient  // a new instance per resolution
//	stitch.Singleton  // one instance per container, built on first use
//	stitch.Scoped     // one instance per scope
//
// A singleton may not depend on a scoped binding, directly or through
// transients; Compile reports LIFESTYLE_MISMATCH.
//
// # Scopes
//
//	s, _ := c.BeginScope(stitch.ScopeShared)
//	defer s.Close()
//	db := stitch.MustResolve[*Session](s)
//
// ScopeShared keeps one instance for all callers, ScopeGoroutine one per
// goroutine, and ScopeFlow one per logical flow carried in a context:
//
//	s, _ := c.BeginScope(stitch.ScopeFlow)
//	branch, _ := s.Fork(ctx)
//	go work(branch)   // sees what ctx had realized, diverges from here on
//
// Closing a scope closes every instance it created that implements io.Closer,
// and every scope begun from it.
//
// # Collections
//
//	stitch.RegisterCollection[Plugin](c, stitch.Singleton,
//	    reflect.TypeFor[*AuthPlugin](), reflect.TypeFor[*AuditPlugin]())
//
//	plugins := stitch.MustResolve[[]Plugin](c)
//	list := stitch.MustResolve[stitch.List[Plugin]](c)
//	for p := range stitch.MustResolve[iter.Seq[Plugin]](c) { ... }
//
// The views share one build, so a singleton collection yields the same
// elements whichever view resolves it.
//
// # Resolution
//
//	svc, err := stitch.Resolve[*Service](c)       // value and error
//	svc := stitch.MustResolve[*Service](c)        // panics on error
//	svc, ok := stitch.TryResolve[*Service](c)     // ok is false on any error
//	v, err := c.Resolve(reflect.TypeFor[*Service]())
//
// Accessor pre-binds the compiled factory for hot paths:
//
//	get, err := stitch.Accessor[*Service](c)
//	svc, err := get()
//
// # Validation and Debugging
//
//	err := c.Validate()      // every missing binding and illegal cycle at once
//	c.PrintGraph()           // ASCII to stdout
//	c.PrintGraphDOT()        // Graphviz DOT to stdout
//
// # Metrics Observers
//
//	c := stitch.New(
//	    stitch.WithResolveObserver(func(t reflect.Type, d time.Duration, err error) { ... }),
//	    stitch.WithCompileObserver(func(n int, d time.Duration, err error) { ... }),
//	)
//
// The stitchprom package provides Prometheus collectors for these hooks.
package stitch
