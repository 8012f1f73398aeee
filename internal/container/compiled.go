package container

import (
	"reflect"

	"github.com/danpasecinic/stitch/internal/graph"
	"github.com/danpasecinic/stitch/internal/scope"
	"github.com/danpasecinic/stitch/internal/typekey"
)

// Compiled is the frozen result of compilation. It is immutable and safe
// for concurrent use.
type Compiled struct {
	factories  *typekey.Table[Factory]
	lifestyles *typekey.Table[scope.Lifestyle]
	singletons []*Memo
	graph      *graph.Graph
}

// Factory returns the factory for t. Unknown types get a factory that fails
// with ErrNotRegistered.
func (c *Compiled) Factory(t reflect.Type) Factory {
	return c.factories.Lookup(t)
}

func (c *Compiled) TryFactory(t reflect.Type) (Factory, bool) {
	return c.factories.TryGet(t)
}

func (c *Compiled) Lifestyle(t reflect.Type) (scope.Lifestyle, error) {
	l, err := c.lifestyles.Get(t)
	if err != nil {
		return 0, &MissingError{Type: t}
	}
	return l, nil
}

func (c *Compiled) Singletons() []*Memo {
	out := make([]*Memo, len(c.singletons))
	copy(out, c.singletons)
	return out
}
