package stitch

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/danpasecinic/stitch/internal/container"
	"github.com/danpasecinic/stitch/internal/plan"
	ireflect "github.com/danpasecinic/stitch/internal/reflect"
	"github.com/danpasecinic/stitch/internal/scope"
)

type ErrorCode uint16

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeUnregisteredType
	ErrCodeAmbiguousConstructor
	ErrCodeNoInjectableConstructor
	ErrCodeMultipleInjectMarkers
	ErrCodeCircularReference
	ErrCodeAlreadyCompiled
	ErrCodeNotCompiled
	ErrCodeDisposedScope
	ErrCodeUnsupportedBindingTarget
	ErrCodeDuplicateBinding
	ErrCodeInvalidInjectionTarget
	ErrCodeLifestyleMismatch
	ErrCodeScopeRequired
	ErrCodeProviderFailed
	ErrCodeDisposeFailed
	ErrCodeValidationFailed
	ErrCodeModuleApplyFailed
	ErrCodeInvalidScopePolicy
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:                  "UNKNOWN",
	ErrCodeUnregisteredType:         "UNREGISTERED_TYPE",
	ErrCodeAmbiguousConstructor:     "AMBIGUOUS_CONSTRUCTOR",
	ErrCodeNoInjectableConstructor:  "NO_INJECTABLE_CONSTRUCTOR",
	ErrCodeMultipleInjectMarkers:    "MULTIPLE_INJECT_MARKERS",
	ErrCodeCircularReference:        "CIRCULAR_REFERENCE",
	ErrCodeAlreadyCompiled:          "ALREADY_COMPILED",
	ErrCodeNotCompiled:              "NOT_COMPILED",
	ErrCodeDisposedScope:            "DISPOSED_SCOPE",
	ErrCodeUnsupportedBindingTarget: "UNSUPPORTED_BINDING_TARGET",
	ErrCodeDuplicateBinding:         "DUPLICATE_BINDING",
	ErrCodeInvalidInjectionTarget:   "INVALID_INJECTION_TARGET",
	ErrCodeLifestyleMismatch:        "LIFESTYLE_MISMATCH",
	ErrCodeScopeRequired:            "SCOPE_REQUIRED",
	ErrCodeProviderFailed:           "PROVIDER_FAILED",
	ErrCodeDisposeFailed:            "DISPOSE_FAILED",
	ErrCodeValidationFailed:         "VALIDATION_FAILED",
	ErrCodeModuleApplyFailed:        "MODULE_APPLY_FAILED",
	ErrCodeInvalidScopePolicy:       "INVALID_SCOPE_POLICY",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", c)
}

type Error struct {
	Code    ErrorCode
	Message string
	Service string
	Cause   error
	Stack   []string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]", e.Code))

	if e.Service != "" {
		b.WriteString(fmt.Sprintf(" service=%q:", e.Service))
	}

	b.WriteString(" ")
	b.WriteString(e.Message)

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code, so errors.Is(err, &Error{Code: c})
// finds a code anywhere in a wrapped or joined chain.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) WithService(service string) *Error {
	e.Service = service
	return e
}

func (e *Error) WithStack(stack []string) *Error {
	e.Stack = stack
	return e
}

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func typeNames(path []reflect.Type) []string {
	names := make([]string, len(path))
	for i, t := range path {
		names[i] = ireflect.TypeName(t)
	}
	return names
}

// wrapError turns an internal error into a coded *Error. subject is the type
// the caller was working on, nil when there is none.
func wrapError(subject reflect.Type, err error) *Error {
	if err == nil {
		return nil
	}

	var coded *Error
	if errors.As(err, &coded) {
		return coded
	}

	service := ""
	if subject != nil {
		service = ireflect.TypeName(subject)
	}

	var (
		cycle     *container.CycleError
		mismatch  *container.MismatchError
		required  *container.ScopeRequiredError
		missing   *container.MissingError
		construct *plan.ConstructionError
	)

	switch {
	case errors.As(err, &cycle):
		return errCircularReference(cycle.Path)
	case errors.As(err, &mismatch):
		return newError(ErrCodeLifestyleMismatch, "singleton captures a scoped dependency", err).
			WithService(ireflect.TypeName(mismatch.Singleton))
	case errors.As(err, &required):
		return newError(ErrCodeScopeRequired, "scoped type resolved without a scope", err).
			WithService(ireflect.TypeName(required.Type))
	case errors.As(err, &missing):
		return errUnregisteredType(missing.Type, err)
	case errors.Is(err, container.ErrNotRegistered):
		return errUnregisteredType(subject, nil)
	case errors.As(err, &construct):
		return newError(ErrCodeProviderFailed,
			fmt.Sprintf("constructing %s failed", ireflect.TypeName(construct.Concrete)), err).
			WithService(service)
	case errors.Is(err, container.ErrAlreadyCompiled):
		return newError(ErrCodeAlreadyCompiled, "container is already compiled", nil).WithService(service)
	case errors.Is(err, container.ErrNotCompiled):
		return newError(ErrCodeNotCompiled, "container is not compiled", nil).WithService(service)
	case errors.Is(err, container.ErrClosed), errors.Is(err, scope.ErrDisposed):
		return newError(ErrCodeDisposedScope, "resolve after dispose", err).WithService(service)
	case errors.Is(err, container.ErrDuplicateBinding):
		return newError(ErrCodeDuplicateBinding, "type is already bound", err).WithService(service)
	case errors.Is(err, plan.ErrAmbiguousConstructor):
		return newError(ErrCodeAmbiguousConstructor, "cannot choose a constructor", err).WithService(service)
	case errors.Is(err, plan.ErrMultipleInjectMarkers):
		return newError(ErrCodeMultipleInjectMarkers, "more than one constructor is marked", err).WithService(service)
	case errors.Is(err, plan.ErrNoInjectableConstructor):
		return newError(ErrCodeNoInjectableConstructor, "no usable constructor", err).WithService(service)
	case errors.Is(err, plan.ErrInvalidInjectionTarget):
		return newError(ErrCodeInvalidInjectionTarget, "invalid injection target", err).WithService(service)
	case errors.Is(err, plan.ErrValueType),
		errors.Is(err, plan.ErrNotAssignable),
		errors.Is(err, container.ErrInvalidLifestyle),
		errors.Is(err, container.ErrNilType):
		return newError(ErrCodeUnsupportedBindingTarget, "unsupported binding target", err).WithService(service)
	default:
		return newError(ErrCodeUnknown, "unexpected failure", err).WithService(service)
	}
}

func errUnregisteredType(t reflect.Type, cause error) *Error {
	return newError(
		ErrCodeUnregisteredType,
		fmt.Sprintf("no binding registered for %s", ireflect.TypeName(t)),
		cause,
	).WithService(ireflect.TypeName(t))
}

func errCircularReference(path []reflect.Type) *Error {
	chain := typeNames(path)
	return newError(
		ErrCodeCircularReference,
		"circular reference: "+strings.Join(chain, " -> "),
		nil,
	).WithStack(chain)
}

func errValidationFailed(err error) *Error {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			errs = append(errs, wrapError(nil, e))
		}
	} else {
		errs = append(errs, wrapError(nil, err))
	}
	return newError(ErrCodeValidationFailed, "container validation failed", errors.Join(errs...))
}

func errDisposeFailed(subject string, cause error) *Error {
	return newError(ErrCodeDisposeFailed, "dispose failed", cause).WithService(subject)
}

func hasCode(err error, code ErrorCode) bool {
	return errors.Is(err, &Error{Code: code})
}

func IsUnregisteredType(err error) bool {
	return hasCode(err, ErrCodeUnregisteredType)
}

func IsAmbiguousConstructor(err error) bool {
	return hasCode(err, ErrCodeAmbiguousConstructor)
}

func IsNoInjectableConstructor(err error) bool {
	return hasCode(err, ErrCodeNoInjectableConstructor)
}

func IsMultipleInjectMarkers(err error) bool {
	return hasCode(err, ErrCodeMultipleInjectMarkers)
}

func IsCircularReference(err error) bool {
	return hasCode(err, ErrCodeCircularReference)
}

func IsAlreadyCompiled(err error) bool {
	return hasCode(err, ErrCodeAlreadyCompiled)
}

func IsNotCompiled(err error) bool {
	return hasCode(err, ErrCodeNotCompiled)
}

func IsDisposedScope(err error) bool {
	return hasCode(err, ErrCodeDisposedScope)
}

func IsUnsupportedBindingTarget(err error) bool {
	return hasCode(err, ErrCodeUnsupportedBindingTarget)
}

func IsDuplicateBinding(err error) bool {
	return hasCode(err, ErrCodeDuplicateBinding)
}

func IsInvalidInjectionTarget(err error) bool {
	return hasCode(err, ErrCodeInvalidInjectionTarget)
}

func IsLifestyleMismatch(err error) bool {
	return hasCode(err, ErrCodeLifestyleMismatch)
}

func IsScopeRequired(err error) bool {
	return hasCode(err, ErrCodeScopeRequired)
}

func IsProviderFailed(err error) bool {
	return hasCode(err, ErrCodeProviderFailed)
}

func IsDisposeFailed(err error) bool {
	return hasCode(err, ErrCodeDisposeFailed)
}

func IsValidationFailed(err error) bool {
	return hasCode(err, ErrCodeValidationFailed)
}

func IsModuleApplyFailed(err error) bool {
	return hasCode(err, ErrCodeModuleApplyFailed)
}

func IsInvalidScopePolicy(err error) bool {
	return hasCode(err, ErrCodeInvalidScopePolicy)
}
