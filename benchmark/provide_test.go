package benchmark

import (
	"testing"

	"github.com/samber/do/v2"
	"go.uber.org/dig"
	"go.uber.org/fx"

	"github.com/danpasecinic/stitch"
)

func BenchmarkProvide_Simple_Stitch(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		c := stitch.New(quiet())
		_ = stitch.BindSelf[*Config](c, stitch.Singleton, stitch.WithConstructors(newConfig))
		_ = c.Compile()
	}
}

func BenchmarkProvide_Simple_Do(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		injector := do.New()
		do.ProvideValue(injector, newConfig())
	}
}

func BenchmarkProvide_Simple_Dig(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		c := dig.New()
		_ = c.Provide(newConfig)
	}
}

func BenchmarkProvide_Simple_Fx(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		_ = fx.New(fx.NopLogger, fx.Provide(newConfig))
	}
}

func BenchmarkProvide_Chain_Stitch(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		c := stitch.New(quiet())
		bindChain(c, stitch.Singleton)
		_ = c.Compile()
	}
}

func BenchmarkProvide_Chain_Do(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		injector := do.New()
		provideDoChain(injector)
	}
}

func BenchmarkProvide_Chain_Dig(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		provideDigChain()
	}
}

func BenchmarkProvide_Chain_Fx(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		var svc *Service
		_ = fx.New(append(fxChain(), fx.NopLogger, fx.Populate(&svc))...)
	}
}

func provideDoChain(i do.Injector) {
	do.ProvideValue(i, newConfig())
	do.ProvideValue(i, newLogger())
	do.Provide(i, func(i do.Injector) (*Database, error) {
		return &Database{Config: do.MustInvoke[*Config](i), Logger: do.MustInvoke[*Logger](i)}, nil
	})
	do.Provide(i, func(i do.Injector) (*Cache, error) {
		return &Cache{Logger: do.MustInvoke[*Logger](i)}, nil
	})
	do.Provide(i, func(i do.Injector) (*Repository, error) {
		return &Repository{DB: do.MustInvoke[*Database](i), Cache: do.MustInvoke[*Cache](i)}, nil
	})
	do.Provide(i, func(i do.Injector) (*Service, error) {
		return &Service{Repo: do.MustInvoke[*Repository](i), Logger: do.MustInvoke[*Logger](i)}, nil
	})
}

func provideDigChain() *dig.Container {
	c := dig.New()
	_ = c.Provide(newConfig)
	_ = c.Provide(newLogger)
	_ = c.Provide(func(cfg *Config, log *Logger) *Database { return &Database{Config: cfg, Logger: log} })
	_ = c.Provide(func(log *Logger) *Cache { return &Cache{Logger: log} })
	_ = c.Provide(func(db *Database, cache *Cache) *Repository { return &Repository{DB: db, Cache: cache} })
	_ = c.Provide(func(repo *Repository, log *Logger) *Service { return &Service{Repo: repo, Logger: log} })
	return c
}

func fxChain() []fx.Option {
	return []fx.Option{
		fx.Provide(newConfig),
		fx.Provide(newLogger),
		fx.Provide(func(cfg *Config, log *Logger) *Database { return &Database{Config: cfg, Logger: log} }),
		fx.Provide(func(log *Logger) *Cache { return &Cache{Logger: log} }),
		fx.Provide(func(db *Database, cache *Cache) *Repository { return &Repository{DB: db, Cache: cache} }),
		fx.Provide(func(repo *Repository, log *Logger) *Service { return &Service{Repo: repo, Logger: log} }),
	}
}
