package graph

import (
	"errors"
	"reflect"
)

var ErrCycleDetected = errors.New("cycle detected in graph")

// TopologicalSort orders nodes so that every node follows its dependencies.
// Ties keep insertion order.
func (g *Graph) TopologicalSort() ([]reflect.Type, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodeCount := len(g.nodes)
	dependents := make(map[reflect.Type][]reflect.Type, nodeCount)
	inDegree := make(map[reflect.Type]int, nodeCount)

	for _, id := range g.order {
		inDegree[id] = 0
	}

	for _, id := range g.order {
		for _, dep := range g.nodes[id].Dependencies {
			if _, exists := g.nodes[dep]; exists {
				dependents[dep] = append(dependents[dep], id)
				inDegree[id]++
			}
		}
	}

	var queue []reflect.Type
	for _, id := range g.order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]reflect.Type, 0, nodeCount)
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		sorted = append(sorted, node)

		for _, dependent := range dependents[node] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(sorted) != nodeCount {
		return nil, ErrCycleDetected
	}

	return sorted, nil
}
