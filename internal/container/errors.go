package container

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	ireflect "github.com/danpasecinic/stitch/internal/reflect"
)

var (
	ErrDuplicateBinding = errors.New("type already bound")
	ErrAlreadyCompiled  = errors.New("container already compiled")
	ErrNotCompiled      = errors.New("container not compiled")
	ErrNotRegistered    = errors.New("type not registered")
	ErrInvalidLifestyle = errors.New("invalid lifestyle")
	ErrNilType          = errors.New("nil type")
	ErrClosed           = errors.New("container is closed")
)

// BindingError ties a registration failure to the abstract type being bound.
type BindingError struct {
	Abstract reflect.Type
	Cause    error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("bind %s: %v", ireflect.TypeName(e.Abstract), e.Cause)
}

func (e *BindingError) Unwrap() error {
	return e.Cause
}

type MissingError struct {
	Type      reflect.Type
	Requester reflect.Type
}

func (e *MissingError) Error() string {
	if e.Requester == nil {
		return fmt.Sprintf("%s is not registered", ireflect.TypeName(e.Type))
	}
	return fmt.Sprintf("%s is not registered (required by %s)",
		ireflect.TypeName(e.Type), ireflect.TypeName(e.Requester))
}

func (e *MissingError) Unwrap() error {
	return ErrNotRegistered
}

// CycleError carries a closed path: the first type repeats at the end.
type CycleError struct {
	Path []reflect.Type
}

func (e *CycleError) Error() string {
	return "circular reference: " + FormatPath(e.Path)
}

type MismatchError struct {
	Singleton reflect.Type
	Scoped    reflect.Type
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("singleton %s depends on scoped %s",
		ireflect.TypeName(e.Singleton), ireflect.TypeName(e.Scoped))
}

type ScopeRequiredError struct {
	Type reflect.Type
}

func (e *ScopeRequiredError) Error() string {
	return fmt.Sprintf("scoped %s resolved outside of a scope", ireflect.TypeName(e.Type))
}

func FormatPath(path []reflect.Type) string {
	names := make([]string, len(path))
	for i, t := range path {
		names[i] = ireflect.TypeName(t)
	}
	return strings.Join(names, " -> ")
}
