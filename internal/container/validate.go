package container

import (
	"reflect"

	"github.com/danpasecinic/stitch/internal/graph"
	"github.com/danpasecinic/stitch/internal/scope"
)

// buildGraph adds one node per binding, each dependency once. With strict set, edges into
// singletons are left out: those are the edges compilation does not follow.
func buildGraph(r *Registry, strict bool) *graph.Graph {
	g := graph.New()
	for _, b := range r.Bindings() {
		seen := make(map[reflect.Type]bool)
		var deps []reflect.Type
		for _, dep := range b.Dependencies() {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			if strict {
				if target, ok := r.Get(dep); ok && target.Lifestyle == scope.Singleton {
					continue
				}
			}
			deps = append(deps, dep)
		}
		g.AddNode(b.Abstract, deps)
	}
	return g
}

func captives(r *Registry) []error {
	var errs []error
	for _, b := range r.Bindings() {
		if b.Lifestyle != scope.Singleton {
			continue
		}
		visited := make(map[reflect.Type]bool)
		for _, dep := range b.Dependencies() {
			if scoped := reachScoped(r, dep, visited); scoped != nil {
				errs = append(errs, &MismatchError{Singleton: b.Abstract, Scoped: scoped})
				break
			}
		}
	}
	return errs
}

func reachScoped(r *Registry, t reflect.Type, visited map[reflect.Type]bool) reflect.Type {
	if visited[t] {
		return nil
	}
	visited[t] = true

	b, ok := r.Get(t)
	if !ok || b.Lifestyle == scope.Singleton {
		return nil
	}
	if b.Lifestyle == scope.Scoped {
		return t
	}
	for _, dep := range b.Dependencies() {
		if scoped := reachScoped(r, dep, visited); scoped != nil {
			return scoped
		}
	}
	return nil
}
