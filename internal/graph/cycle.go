package graph

import "reflect"

type CycleDetector struct {
	graph   *Graph
	index   int
	stack   []reflect.Type
	onStack map[reflect.Type]bool
	indices map[reflect.Type]int
	lowlink map[reflect.Type]int
	sccs    [][]reflect.Type
}

// DetectCycles returns the strongly connected components that contain a
// cycle, including self-loops.
func (g *Graph) DetectCycles() [][]reflect.Type {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.detectCyclesUnsafe()
}

func (g *Graph) detectCyclesUnsafe() [][]reflect.Type {
	detector := &CycleDetector{
		graph:   g,
		stack:   make([]reflect.Type, 0),
		onStack: make(map[reflect.Type]bool),
		indices: make(map[reflect.Type]int),
		lowlink: make(map[reflect.Type]int),
		sccs:    make([][]reflect.Type, 0),
	}

	for _, id := range g.order {
		if _, visited := detector.indices[id]; !visited {
			detector.strongConnect(id)
		}
	}

	var cycles [][]reflect.Type
	for _, scc := range detector.sccs {
		if len(scc) > 1 {
			cycles = append(cycles, scc)
		} else if len(scc) == 1 {
			id := scc[0]
			for _, dep := range g.nodes[id].Dependencies {
				if dep == id {
					cycles = append(cycles, scc)
					break
				}
			}
		}
	}

	return cycles
}

func (d *CycleDetector) strongConnect(id reflect.Type) {
	d.indices[id] = d.index
	d.lowlink[id] = d.index
	d.index++
	d.stack = append(d.stack, id)
	d.onStack[id] = true

	for _, dep := range d.graph.nodes[id].Dependencies {
		if _, exists := d.graph.nodes[dep]; !exists {
			continue
		}

		if _, visited := d.indices[dep]; !visited {
			d.strongConnect(dep)
			d.lowlink[id] = min(d.lowlink[id], d.lowlink[dep])
		} else if d.onStack[dep] {
			d.lowlink[id] = min(d.lowlink[id], d.indices[dep])
		}
	}

	if d.lowlink[id] == d.indices[id] {
		var scc []reflect.Type
		for {
			n := len(d.stack) - 1
			w := d.stack[n]
			d.stack = d.stack[:n]
			d.onStack[w] = false
			scc = append(scc, w)
			if w == id {
				break
			}
		}
		d.sccs = append(d.sccs, scc)
	}
}

func (g *Graph) HasCycle() bool {
	g.mu.RLock()
	if g.cycleValid {
		result := g.hasCycle
		g.mu.RUnlock()
		return result
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cycleValid {
		return g.hasCycle
	}

	g.hasCycle = len(g.detectCyclesUnsafe()) > 0
	g.cycleValid = true
	return g.hasCycle
}

// FindCyclePath returns the first cycle reachable from start as a closed path
// (the first element repeats at the end), or nil.
func (g *Graph) FindCyclePath(start reflect.Type) []reflect.Type {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.findCyclePathUnsafe(start)
}

func (g *Graph) findCyclePathUnsafe(start reflect.Type) []reflect.Type {
	visited := make(map[reflect.Type]bool)
	path := make([]reflect.Type, 0)
	inPath := make(map[reflect.Type]bool)

	var dfs func(id reflect.Type) []reflect.Type
	dfs = func(id reflect.Type) []reflect.Type {
		if inPath[id] {
			cyclePath := make([]reflect.Type, 0)
			found := false
			for _, p := range path {
				if p == id {
					found = true
				}
				if found {
					cyclePath = append(cyclePath, p)
				}
			}
			cyclePath = append(cyclePath, id)
			return cyclePath
		}

		if visited[id] {
			return nil
		}

		visited[id] = true
		path = append(path, id)
		inPath[id] = true

		node, exists := g.nodes[id]
		if exists {
			for _, dep := range node.Dependencies {
				if _, exists := g.nodes[dep]; !exists {
					continue
				}
				if cycle := dfs(dep); cycle != nil {
					return cycle
				}
			}
		}

		path = path[:len(path)-1]
		inPath[id] = false
		return nil
	}

	return dfs(start)
}

func (g *Graph) GetAllCyclePaths() [][]reflect.Type {
	g.mu.RLock()
	defer g.mu.RUnlock()

	cycles := g.detectCyclesUnsafe()
	if len(cycles) == 0 {
		return nil
	}

	var allPaths [][]reflect.Type
	for _, scc := range cycles {
		if path := g.findCyclePathUnsafe(scc[len(scc)-1]); path != nil {
			allPaths = append(allPaths, path)
		}
	}

	return allPaths
}
