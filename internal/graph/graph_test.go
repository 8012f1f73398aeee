package graph

import (
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	nodeA struct{}
	nodeB struct{}
	nodeC struct{}
	nodeD struct{}
)

var (
	typeA = reflect.TypeFor[*nodeA]()
	typeB = reflect.TypeFor[*nodeB]()
	typeC = reflect.TypeFor[*nodeC]()
	typeD = reflect.TypeFor[*nodeD]()
)

func deps(types ...reflect.Type) []reflect.Type { return types }

func TestGraph_AddNode(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode(typeA, deps(typeB, typeC))

	assert.True(t, g.HasNode(typeA))
	assert.False(t, g.HasNode(typeB))
	assert.Equal(t, deps(typeB, typeC), g.GetDependencies(typeA))
	assert.Nil(t, g.GetDependencies(typeD))
}

func TestGraph_AddNodeCopiesDependencies(t *testing.T) {
	t.Parallel()

	in := deps(typeB)
	g := New()
	g.AddNode(typeA, in)
	in[0] = typeC

	assert.Equal(t, deps(typeB), g.GetDependencies(typeA))
}

func TestGraph_NodesKeepInsertionOrder(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode(typeC, nil)
	g.AddNode(typeA, nil)
	g.AddNode(typeB, nil)
	g.AddNode(typeA, deps(typeB))

	assert.Equal(t, deps(typeC, typeA, typeB), g.Nodes())
	assert.Equal(t, 3, g.Size())
}

func TestGraph_GetDependents(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode(typeA, deps(typeC))
	g.AddNode(typeB, deps(typeC))
	g.AddNode(typeC, nil)

	assert.Equal(t, deps(typeA, typeB), g.GetDependents(typeC))
	assert.Empty(t, g.GetDependents(typeA))
}

func TestGraph_Validate(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode(typeA, deps(typeB, typeC))
	g.AddNode(typeB, deps(typeC, typeD))

	assert.Equal(t, deps(typeC, typeD), g.Validate())
}

func TestGraph_DetectCycles_NoCycle(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode(typeA, deps(typeB))
	g.AddNode(typeB, deps(typeC))
	g.AddNode(typeC, nil)

	assert.Empty(t, g.DetectCycles())
	assert.False(t, g.HasCycle())
}

func TestGraph_DetectCycles_SimpleCycle(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode(typeA, deps(typeB))
	g.AddNode(typeB, deps(typeA))

	cycles := g.DetectCycles()
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, deps(typeA, typeB), cycles[0])
}

func TestGraph_DetectCycles_SelfCycle(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode(typeA, deps(typeA))

	cycles := g.DetectCycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, deps(typeA), cycles[0])
}

func TestGraph_DetectCycles_IgnoresMissing(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode(typeA, deps(typeB, typeD))
	g.AddNode(typeB, nil)

	assert.Empty(t, g.DetectCycles())
}

func TestGraph_DetectCycles_TwoComponents(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode(typeA, deps(typeB))
	g.AddNode(typeB, deps(typeA))
	g.AddNode(typeC, deps(typeD))
	g.AddNode(typeD, deps(typeC))

	assert.Len(t, g.DetectCycles(), 2)
	assert.Len(t, g.GetAllCyclePaths(), 2)
}

func TestGraph_HasCycleInvalidatedByAddNode(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode(typeA, deps(typeB))
	g.AddNode(typeB, nil)
	require.False(t, g.HasCycle())

	g.AddNode(typeB, deps(typeA))
	assert.True(t, g.HasCycle())
}

func TestGraph_FindCyclePath(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode(typeA, deps(typeB))
	g.AddNode(typeB, deps(typeC))
	g.AddNode(typeC, deps(typeA))

	path := g.FindCyclePath(typeA)
	assert.Equal(t, deps(typeA, typeB, typeC, typeA), path)
}

func TestGraph_FindCyclePath_FromOutsideCycle(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode(typeD, deps(typeA))
	g.AddNode(typeA, deps(typeB))
	g.AddNode(typeB, deps(typeA))

	assert.Equal(t, deps(typeA, typeB, typeA), g.FindCyclePath(typeD))
}

func TestGraph_FindCyclePath_NoCycle(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode(typeA, deps(typeB))
	g.AddNode(typeB, nil)

	assert.Nil(t, g.FindCyclePath(typeA))
	assert.Nil(t, g.GetAllCyclePaths())
}

func TestGraph_TopologicalSort(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode(typeA, deps(typeB, typeC))
	g.AddNode(typeB, deps(typeD))
	g.AddNode(typeC, deps(typeD))
	g.AddNode(typeD, nil)

	sorted, err := g.TopologicalSort()
	require.NoError(t, err)
	require.Len(t, sorted, 4)

	pos := func(id reflect.Type) int { return slices.Index(sorted, id) }
	assert.Less(t, pos(typeD), pos(typeB))
	assert.Less(t, pos(typeD), pos(typeC))
	assert.Less(t, pos(typeB), pos(typeA))
	assert.Less(t, pos(typeC), pos(typeA))
}

func TestGraph_TopologicalSort_WithCycle(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode(typeA, deps(typeB))
	g.AddNode(typeB, deps(typeA))

	_, err := g.TopologicalSort()
	assert.True(t, errors.Is(err, ErrCycleDetected))
}
