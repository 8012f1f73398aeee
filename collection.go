package stitch

import (
	"iter"
	"reflect"
	"slices"

	"github.com/danpasecinic/stitch/internal/container"
)

// List is a read-only indexed view of a collection.
type List[T any] struct {
	items []T
}

func (l List[T]) Len() int {
	return len(l.items)
}

func (l List[T]) At(i int) T {
	return l.items[i]
}

func (l List[T]) All() iter.Seq2[int, T] {
	return slices.All(l.items)
}

func (l List[T]) Values() iter.Seq[T] {
	return slices.Values(l.items)
}

// Slice returns a copy of the elements.
func (l List[T]) Slice() []T {
	return slices.Clone(l.items)
}

// RegisterCollection binds iter.Seq[I], List[I] and []I to one ordered
// build of the concrete types. Each element is constructed fresh for the
// build; lifestyle applies to the build as a whole.
func RegisterCollection[I any](c *Container, lifestyle Lifestyle, concretes ...reflect.Type) error {
	element := reflect.TypeFor[I]()
	views := []container.View{
		{
			Type:    reflect.TypeFor[iter.Seq[I]](),
			Convert: func(v any) any { return slices.Values(v.([]I)) },
		},
		{
			Type:    reflect.TypeFor[List[I]](),
			Convert: func(v any) any { return List[I]{items: v.([]I)} },
		},
		{
			Type:    reflect.TypeFor[[]I](),
			Convert: func(v any) any { return v },
		},
	}

	if err := c.internal.RegisterCollection(element, lifestyle, concretes, views); err != nil {
		return wrapError(element, err)
	}
	return nil
}
