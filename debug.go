package stitch

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	ireflect "github.com/danpasecinic/stitch/internal/reflect"
)

type GraphInfo struct {
	Services []ServiceInfo
}

type ServiceInfo struct {
	Key          string
	Concrete     string
	Lifestyle    string
	Dependencies []string
	Dependents   []string
	// Instantiated is only ever true for singletons.
	Instantiated bool
}

func (c *Container) Graph() GraphInfo {
	graph := c.internal.Graph()

	realized := make(map[reflect.Type]bool)
	if compiled, err := c.internal.Compiled(); err == nil {
		for _, m := range compiled.Singletons() {
			if _, ok := m.Value(); ok {
				realized[m.Type()] = true
			}
		}
	}

	bindings := c.internal.Bindings()
	services := make([]ServiceInfo, 0, len(bindings))
	for _, b := range bindings {
		services = append(
			services, ServiceInfo{
				Key:          ireflect.TypeName(b.Abstract),
				Concrete:     ireflect.TypeName(b.Concrete()),
				Lifestyle:    b.Lifestyle.String(),
				Dependencies: typeNames(graph.GetDependencies(b.Abstract)),
				Dependents:   typeNames(graph.GetDependents(b.Abstract)),
				Instantiated: b.Lifestyle == Singleton && realized[b.Abstract],
			},
		)
	}

	sort.Slice(services, func(i, j int) bool {
		return services[i].Key < services[j].Key
	})

	return GraphInfo{Services: services}
}

func (c *Container) PrintGraph() {
	c.FprintGraph(os.Stdout)
}

func (c *Container) FprintGraph(w io.Writer) {
	info := c.Graph()

	if len(info.Services) == 0 {
		_, _ = fmt.Fprintln(w, "(empty container)")
		return
	}

	for _, svc := range info.Services {
		status := "○"
		if svc.Instantiated {
			status = "●"
		}

		if len(svc.Dependencies) == 0 {
			_, _ = fmt.Fprintf(w, "%s %s [%s]\n", status, svc.Key, svc.Lifestyle)
		} else {
			_, _ = fmt.Fprintf(w, "%s %s [%s] ← %s\n",
				status, svc.Key, svc.Lifestyle, strings.Join(svc.Dependencies, ", "))
		}
	}
}

func (c *Container) SprintGraph() string {
	var sb strings.Builder
	c.FprintGraph(&sb)
	return sb.String()
}

func (c *Container) PrintGraphDOT() {
	c.FprintGraphDOT(os.Stdout)
}

func (c *Container) FprintGraphDOT(w io.Writer) {
	info := c.Graph()

	_, _ = fmt.Fprintln(w, "digraph dependencies {")
	_, _ = fmt.Fprintln(w, "  rankdir=LR;")
	_, _ = fmt.Fprintln(w, "  node [shape=box];")

	for _, svc := range info.Services {
		label := escapeLabel(svc.Key)
		style := ""
		switch {
		case svc.Instantiated:
			style = ", style=filled, fillcolor=lightblue"
		case svc.Lifestyle == Scoped.String():
			style = ", style=dashed"
		}
		_, _ = fmt.Fprintf(w, "  %q [label=%q%s];\n", svc.Key, label, style)
	}

	_, _ = fmt.Fprintln(w)

	for _, svc := range info.Services {
		for _, dep := range svc.Dependencies {
			_, _ = fmt.Fprintf(w, "  %q -> %q;\n", svc.Key, dep)
		}
	}

	_, _ = fmt.Fprintln(w, "}")
}

func (c *Container) SprintGraphDOT() string {
	var sb strings.Builder
	c.FprintGraphDOT(&sb)
	return sb.String()
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "*", "")
	if idx := strings.LastIndex(s, "/"); idx != -1 {
		s = s[idx+1:]
	}
	return s
}
