package ioc

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/junioryono/ioc/internal/graph"
	"github.com/junioryono/ioc/internal/reflection"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// Typed errors below wrap these so callers can match with errors.Is.

var (
	// Configuration errors.
	ErrNilToken          = errors.New("token cannot be nil")
	ErrNilInstance       = errors.New("instance cannot be nil")
	ErrMissingMetadata   = errors.New("injectable metadata not found")
	ErrMissingToken      = errors.New("implementation token is required")
	ErrAlreadyRegistered = errors.New("token already registered")
	ErrDuplicateInstance = errors.New("instance already exists")

	// Resolution errors.
	ErrUnresolvable       = errors.New("cannot resolve token")
	ErrCircularDependency = graph.ErrCircularDependency
	ErrInvalidTarget      = errors.New("resolve target must be a *Token or a constructor")

	// Materialization errors.
	ErrEmptyPlan   = errors.New("resolution plan is empty")
	ErrInvalidPlan = errors.New("resolution plan is malformed")

	// Context errors.
	ErrNoContainerInContext = errors.New("no container found in context")

	// Constructor shape errors.
	ErrNilConstructor = reflection.ErrNilConstructor
	ErrNotConstructor = reflection.ErrNotConstructor
)

var (
	_ error = MissingMetadataError{}
	_ error = MissingTokenError{}
	_ error = AlreadyRegisteredError{}
	_ error = DuplicateInstanceError{}
	_ error = UnresolvableTokenError{}
	_ error = (*CircularDependencyError)(nil)
	_ error = InvalidTargetError{}
	_ error = RegistrationError{}
	_ error = PlanError{}
	_ error = TypeMismatchError{}
	_ error = ConstructorInvocationError{}
	_ error = ConstructorPanicError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// ConstructorInvocationError wraps an error returned by a constructor.
type ConstructorInvocationError = reflection.InvocationError

// ConstructorPanicError indicates a constructor panicked while being invoked.
type ConstructorPanicError = reflection.PanicError

// MissingMetadataError indicates a constructor has no metadata record.
type MissingMetadataError struct {
	Constructor string
}

func (e MissingMetadataError) Error() string {
	return fmt.Sprintf("no metadata found on %s: forgot to declare it with Injectable?", e.Constructor)
}

func (e MissingMetadataError) Unwrap() error {
	return ErrMissingMetadata
}

// MissingTokenError indicates a registered constructor declares no
// implementation token.
type MissingTokenError struct {
	Constructor string
}

func (e MissingTokenError) Error() string {
	return fmt.Sprintf("implementation token is required to register %s", e.Constructor)
}

func (e MissingTokenError) Unwrap() error {
	return ErrMissingToken
}

// AlreadyRegisteredError indicates a token already has a binding in the
// container.
type AlreadyRegisteredError struct {
	Token       *Token
	Existing    string
	Constructor string
}

func (e AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("cannot register %q twice: bound to %s, got %s",
		e.Token.Name(), e.Existing, e.Constructor)
}

func (e AlreadyRegisteredError) Unwrap() error {
	return ErrAlreadyRegistered
}

// DuplicateInstanceError indicates the instance cache already holds a value
// for the token.
type DuplicateInstanceError struct {
	Token *Token
}

func (e DuplicateInstanceError) Error() string {
	return fmt.Sprintf("instance of %q already exists", e.Token.Name())
}

func (e DuplicateInstanceError) Unwrap() error {
	return ErrDuplicateInstance
}

// UnresolvableTokenError indicates no container in the scope chain can
// provide the token and the token has no default.
type UnresolvableTokenError struct {
	Token     *Token
	Container string
}

func (e UnresolvableTokenError) Error() string {
	if e.Container != "" {
		return fmt.Sprintf("cannot resolve %q from container %q", e.Token.Name(), e.Container)
	}
	return fmt.Sprintf("cannot resolve %q", e.Token.Name())
}

func (e UnresolvableTokenError) Unwrap() error {
	return ErrUnresolvable
}

// CircularDependencyError is returned by Get and Consume when the
// resolution found a cycle. It carries the full cycle for diagnostics.
type CircularDependencyError struct {
	Resolution *CircularResolution
}

func (e *CircularDependencyError) Error() string {
	return "circular dependency: " + FormatCycle(e.Resolution)
}

func (e *CircularDependencyError) Unwrap() error {
	return ErrCircularDependency
}

// InvalidTargetError indicates Resolve was called with something that is
// neither a token nor a constructor.
type InvalidTargetError struct {
	Target any
	Cause  error
}

func (e InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid resolve target %T: %v", e.Target, e.Cause)
}

func (e InvalidTargetError) Is(target error) bool {
	return target == ErrInvalidTarget
}

func (e InvalidTargetError) Unwrap() error {
	return e.Cause
}

// RegistrationError wraps constructor shape failures found at Register.
type RegistrationError struct {
	Constructor string
	Cause       error
}

func (e RegistrationError) Error() string {
	return fmt.Sprintf("failed to register %s: %v", e.Constructor, e.Cause)
}

func (e RegistrationError) Unwrap() error {
	return e.Cause
}

// PlanError indicates Create was given a plan that violates the ordering
// contract.
type PlanError struct {
	Index  int
	Reason string
}

func (e PlanError) Error() string {
	return fmt.Sprintf("resolution plan is malformed at node %d: %s", e.Index, e.Reason)
}

func (e PlanError) Unwrap() error {
	return ErrInvalidPlan
}

// TypeMismatchError indicates a resolved instance is not of the requested type.
type TypeMismatchError struct {
	Expected reflect.Type
	Actual   reflect.Type
	Context  string
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Context, formatType(e.Expected), formatType(e.Actual))
}

// IsCircularDependency reports whether err is or wraps a circular dependency.
func IsCircularDependency(err error) bool {
	return errors.Is(err, ErrCircularDependency)
}

// IsNotFound reports whether err is or wraps an unresolvable token.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnresolvable)
}

func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
