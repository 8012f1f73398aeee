package reflect

import (
	"reflect"
)

var errorType = reflect.TypeFor[error]()

func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// TypeKey is the fully qualified name of t. Unlike TypeName it includes the
// package path, so it separates same-named types from different packages.
func TypeKey(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Ptr:
		return "*" + TypeKey(t.Elem())
	case reflect.Slice:
		return "[]" + TypeKey(t.Elem())
	case reflect.Map:
		return "map[" + TypeKey(t.Key()) + "]" + TypeKey(t.Elem())
	default:
		if t.PkgPath() != "" {
			return t.PkgPath() + "." + t.Name()
		}
		return t.String()
	}
}

func IsNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}

// IsReferenceStruct reports whether t is a pointer to a struct, the only
// shape a concrete binding target may take.
func IsReferenceStruct(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct
}

// ValueFor converts a resolved instance into a value assignable to t. A nil
// instance becomes the zero value of t.
func ValueFor(instance any, t reflect.Type) reflect.Value {
	if instance == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(instance)
}

func returnsError(fnType reflect.Type, first int) (bool, bool) {
	switch fnType.NumOut() - first {
	case 0:
		return false, true
	case 1:
		return true, fnType.Out(first) == errorType
	default:
		return false, false
	}
}
