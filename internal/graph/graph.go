package graph

import (
	"reflect"
	"sync"
)

type Node struct {
	ID           reflect.Type
	Dependencies []reflect.Type
}

// Graph is a dependency graph keyed by type identity. Nodes are iterated in
// insertion order so every report it produces is deterministic.
type Graph struct {
	mu         sync.RWMutex
	nodes      map[reflect.Type]*Node
	order      []reflect.Type
	cycleValid bool
	hasCycle   bool
}

func New() *Graph {
	return &Graph{
		nodes: make(map[reflect.Type]*Node),
	}
}

func (g *Graph) AddNode(id reflect.Type, dependencies []reflect.Type) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; !exists {
		g.order = append(g.order, id)
	}

	deps := make([]reflect.Type, len(dependencies))
	copy(deps, dependencies)

	g.nodes[id] = &Node{
		ID:           id,
		Dependencies: deps,
	}
	g.cycleValid = false
}

func (g *Graph) HasNode(id reflect.Type) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, exists := g.nodes[id]
	return exists
}

func (g *Graph) GetDependencies(id reflect.Type) []reflect.Type {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, exists := g.nodes[id]
	if !exists {
		return nil
	}

	result := make([]reflect.Type, len(node.Dependencies))
	copy(result, node.Dependencies)
	return result
}

func (g *Graph) GetDependents(id reflect.Type) []reflect.Type {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var dependents []reflect.Type
	for _, nodeID := range g.order {
		for _, dep := range g.nodes[nodeID].Dependencies {
			if dep == id {
				dependents = append(dependents, nodeID)
				break
			}
		}
	}
	return dependents
}

func (g *Graph) Nodes() []reflect.Type {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]reflect.Type, len(g.order))
	copy(nodes, g.order)
	return nodes
}

func (g *Graph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes)
}

// Validate returns every dependency that has no node, once each, in the order
// first referenced.
func (g *Graph) Validate() []reflect.Type {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var missing []reflect.Type
	seen := make(map[reflect.Type]bool)

	for _, id := range g.order {
		for _, dep := range g.nodes[id].Dependencies {
			if _, exists := g.nodes[dep]; !exists && !seen[dep] {
				missing = append(missing, dep)
				seen[dep] = true
			}
		}
	}

	return missing
}
