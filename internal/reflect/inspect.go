package reflect

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	TagKey       = "inject"
	SetterOption = "setter"
	MethodPrefix = "Inject"
)

var (
	ErrInvalidInjectionTarget = errors.New("invalid injection target")
	ErrInvalidConstructor     = errors.New("not an injectable constructor")
)

type Candidate struct {
	Fn     any
	Marked bool
}

type Constructor struct {
	Fn           reflect.Value
	Params       []reflect.Type
	ReturnsError bool
	Marked       bool
	Implicit     bool
}

type Field struct {
	Name  string
	Index []int
	Type  reflect.Type
}

type Method struct {
	Name         string
	Func         reflect.Value
	Params       []reflect.Type
	ReturnsError bool
}

// Constructors validates the candidate functions for concrete. With no
// candidates the implicit zero-argument constructor is returned.
func Constructors(concrete reflect.Type, candidates []Candidate) ([]Constructor, error) {
	if len(candidates) == 0 {
		return []Constructor{{Implicit: true}}, nil
	}

	ctors := make([]Constructor, 0, len(candidates))
	for i, c := range candidates {
		ctor, err := constructor(concrete, c)
		if err != nil {
			return nil, fmt.Errorf("constructor %d: %w", i, err)
		}
		ctors = append(ctors, ctor)
	}
	return ctors, nil
}

func constructor(concrete reflect.Type, c Candidate) (Constructor, error) {
	if c.Fn == nil {
		return Constructor{}, fmt.Errorf("%w: nil", ErrInvalidConstructor)
	}

	fn := reflect.ValueOf(c.Fn)
	fnType := fn.Type()
	if fnType.Kind() != reflect.Func {
		return Constructor{}, fmt.Errorf("%w: %s is not a function", ErrInvalidConstructor, fnType)
	}
	if fnType.IsVariadic() {
		return Constructor{}, fmt.Errorf("%w: %s is variadic", ErrInvalidConstructor, fnType)
	}
	if fnType.NumOut() == 0 || fnType.Out(0) != concrete {
		return Constructor{}, fmt.Errorf("%w: %s does not return %s", ErrInvalidConstructor, fnType, concrete)
	}

	withErr, ok := returnsError(fnType, 1)
	if !ok {
		return Constructor{}, fmt.Errorf("%w: %s must return (%s) or (%s, error)", ErrInvalidConstructor, fnType, concrete, concrete)
	}

	params := make([]reflect.Type, fnType.NumIn())
	for i := range params {
		params[i] = fnType.In(i)
	}

	return Constructor{
		Fn:           fn,
		Params:       params,
		ReturnsError: withErr,
		Marked:       c.Marked,
	}, nil
}

// InjectFields returns the struct fields tagged for direct assignment and the
// fields tagged for setter injection.
func InjectFields(concrete reflect.Type) ([]Field, []Method, error) {
	var fields []Field
	var setters []Method

	for _, f := range reflect.VisibleFields(concrete.Elem()) {
		tag, ok := f.Tag.Lookup(TagKey)
		if !ok {
			continue
		}

		if throughPointer(concrete.Elem(), f.Index) {
			return nil, nil, fmt.Errorf(
				"%w: field %s is promoted through an embedded pointer", ErrInvalidInjectionTarget, f.Name,
			)
		}

		switch strings.TrimSpace(tag) {
		case "":
			if !f.IsExported() {
				return nil, nil, fmt.Errorf(
					"%w: field %s is unexported; use `%s:%q`", ErrInvalidInjectionTarget, f.Name, TagKey, SetterOption,
				)
			}
			fields = append(fields, Field{Name: f.Name, Index: f.Index, Type: f.Type})
		case SetterOption:
			setter, err := setterFor(concrete, f)
			if err != nil {
				return nil, nil, err
			}
			setters = append(setters, setter)
		default:
			return nil, nil, fmt.Errorf("%w: field %s has unknown tag %q", ErrInvalidInjectionTarget, f.Name, tag)
		}
	}

	return fields, setters, nil
}

func setterFor(concrete reflect.Type, f reflect.StructField) (Method, error) {
	name := "Set" + capitalize(f.Name)

	m, ok := concrete.MethodByName(name)
	if !ok {
		return Method{}, fmt.Errorf("%w: field %s has no setter %s", ErrInvalidInjectionTarget, f.Name, name)
	}

	mt := m.Type
	withErr, okOut := returnsError(mt, 0)
	if mt.NumIn() != 2 || mt.In(1) != f.Type || !okOut {
		return Method{}, fmt.Errorf(
			"%w: setter %s must take exactly one %s", ErrInvalidInjectionTarget, name, f.Type,
		)
	}

	return Method{
		Name:         name,
		Func:         m.Func,
		Params:       []reflect.Type{f.Type},
		ReturnsError: withErr,
	}, nil
}

// InjectMethods returns the exported methods of concrete whose names start
// with MethodPrefix, in method-set order.
func InjectMethods(concrete reflect.Type) ([]Method, error) {
	var methods []Method

	for i := 0; i < concrete.NumMethod(); i++ {
		m := concrete.Method(i)
		if !strings.HasPrefix(m.Name, MethodPrefix) {
			continue
		}

		mt := m.Type
		withErr, ok := returnsError(mt, 0)
		if !ok {
			return nil, fmt.Errorf("%w: method %s must return nothing or error", ErrInvalidInjectionTarget, m.Name)
		}
		if mt.IsVariadic() {
			return nil, fmt.Errorf("%w: method %s is variadic", ErrInvalidInjectionTarget, m.Name)
		}

		params := make([]reflect.Type, mt.NumIn()-1)
		for j := range params {
			params[j] = mt.In(j + 1)
		}

		methods = append(
			methods, Method{
				Name:         m.Name,
				Func:         m.Func,
				Params:       params,
				ReturnsError: withErr,
			},
		)
	}

	return methods, nil
}

func throughPointer(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Ptr {
			return true
		}
		t = f.Type
	}
	return false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
