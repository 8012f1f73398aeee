package stitch_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/stitch"
)

func TestGraph(t *testing.T) {
	t.Parallel()

	c := newApp(t)
	require.NoError(t, c.Compile())

	services := map[string]stitch.ServiceInfo{}
	for _, svc := range c.Graph().Services {
		services[svc.Key] = svc
	}

	repo := services["stitch_test.Repository"]
	assert.Equal(t, "*stitch_test.memoryRepo", repo.Concrete)
	assert.Equal(t, "transient", repo.Lifestyle)
	assert.Equal(t, []string{"*stitch_test.Config"}, repo.Dependencies)
	assert.Equal(t, []string{"*stitch_test.UserService"}, repo.Dependents)

	cfg := services["*stitch_test.Config"]
	assert.False(t, cfg.Instantiated)
	_ = stitch.MustResolve[*Config](c)
	for _, svc := range c.Graph().Services {
		if svc.Key == "*stitch_test.Config" {
			assert.True(t, svc.Instantiated)
		}
	}
}

func TestGraph_Sorted(t *testing.T) {
	t.Parallel()

	info := newApp(t).Graph()
	require.Len(t, info.Services, 4)
	for i := 1; i < len(info.Services); i++ {
		assert.Less(t, info.Services[i-1].Key, info.Services[i].Key)
	}
}

func TestFprintGraph(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	stitch.New(quiet()).FprintGraph(&buf)
	assert.Equal(t, "(empty container)\n", buf.String())

	c := newApp(t)
	require.NoError(t, c.Compile())
	_ = stitch.MustResolve[*Config](c)

	out := c.SprintGraph()
	assert.Contains(t, out, "● *stitch_test.Config [singleton]")
	assert.Contains(t, out, "○ stitch_test.Repository [transient] ← *stitch_test.Config")
}

func TestFprintGraphDOT(t *testing.T) {
	t.Parallel()

	c := scopedApp(t)
	out := c.SprintGraphDOT()

	assert.Contains(t, out, "digraph dependencies {")
	assert.Contains(t, out, `"*stitch_test.Session" [label="stitch_test.Session", style=dashed];`)
	assert.Contains(t, out, `"*stitch_test.Request" -> "*stitch_test.Session";`)
}
