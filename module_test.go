package stitch_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/stitch"
)

func TestModule_Apply(t *testing.T) {
	t.Parallel()

	infra := stitch.NewModule("infra")
	stitch.ModuleBindSelf[*Config](infra, stitch.Singleton)
	stitch.ModuleBindSelf[*Logger](infra, stitch.Transient)

	app := stitch.NewModule("app").Include(infra)
	stitch.ModuleBind[Repository, *memoryRepo](app, stitch.Transient)
	app.Register(reflect.TypeFor[*UserService](), reflect.TypeFor[*UserService](), stitch.Transient,
		stitch.WithConstructors(NewUserService))
	stitch.ModuleCollection[Plugin](app, stitch.Singleton, pluginTypes...)

	assert.Equal(t, "app", app.Name())

	c := stitch.New(quiet())
	require.NoError(t, c.Apply(app))
	require.NoError(t, c.Compile())

	assert.Equal(t, reflect.TypeFor[*Config](), c.Keys()[0], "included modules apply first")
	svc := stitch.MustResolve[*UserService](c)
	assert.Equal(t, "user-1", svc.Repo.Find(1))
	assert.Len(t, stitch.MustResolve[[]Plugin](c), 3)
}

func TestModule_ApplyFailure(t *testing.T) {
	t.Parallel()

	first := stitch.NewModule("first")
	stitch.ModuleBindSelf[*Config](first, stitch.Singleton)
	second := stitch.NewModule("second")
	stitch.ModuleBindSelf[*Config](second, stitch.Transient)

	c := stitch.New(quiet())
	err := c.Apply(first, second)
	require.Error(t, err)
	assert.True(t, stitch.IsModuleApplyFailed(err))
	assert.True(t, stitch.IsDuplicateBinding(err))
	assert.Contains(t, err.Error(), "second")
}
