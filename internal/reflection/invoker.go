package reflection

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"runtime/debug"
	"strings"
	"unsafe"
)

var (
	ErrNilConstructor     = errors.New("constructor cannot be nil")
	ErrNotConstructor     = errors.New("constructor must be a function or *Factory")
	ErrConstructorNoValue = errors.New("constructor must return a value, optionally followed by an error")
	ErrFactoryNoBuild     = errors.New("factory has no Build function")
	ErrArgumentCount      = errors.New("argument count does not match constructor parameters")
	ErrArgumentType       = errors.New("argument is not assignable to constructor parameter")
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// Factory is a constructor value with its own identity and display name,
// for constructors assembled at runtime from untyped arguments.
type Factory struct {
	Name  string
	Build func(args []any) (any, error)
}

// funcKey identifies a function value by the closure it points to. Top-level
// functions share one static closure per function; every evaluation of a
// capturing literal or method value gets its own.
type funcKey struct {
	fn unsafe.Pointer
}

// eface mirrors the runtime layout of an empty interface.
type eface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// Key returns the comparable identity of a constructor.
func Key(ctor any) (any, error) {
	if ctor == nil {
		return nil, ErrNilConstructor
	}

	if f, ok := ctor.(*Factory); ok {
		if f == nil {
			return nil, ErrNilConstructor
		}
		return f, nil
	}

	val := reflect.ValueOf(ctor)
	if val.Kind() != reflect.Func {
		return nil, ErrNotConstructor
	}
	if val.IsNil() {
		return nil, ErrNilConstructor
	}

	return funcKey{fn: (*eface)(unsafe.Pointer(&ctor)).data}, nil
}

// Same reports whether two constructors share an identity.
func Same(a, b any) bool {
	ka, err := Key(a)
	if err != nil {
		return false
	}
	kb, err := Key(b)
	if err != nil {
		return false
	}
	return ka == kb
}

// Name returns a short display name for a constructor: the function name
// without its package path, or the factory's Name.
func Name(ctor any) string {
	if f, ok := ctor.(*Factory); ok {
		if f == nil || f.Name == "" {
			return "Factory"
		}
		return f.Name
	}

	val := reflect.ValueOf(ctor)
	if !val.IsValid() {
		return "<nil>"
	}
	if val.Kind() != reflect.Func || val.IsNil() {
		return fmt.Sprintf("%T", ctor)
	}

	fn := runtime.FuncForPC(val.Pointer())
	if fn == nil {
		return val.Type().String()
	}

	name := fn.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

// Check validates the shape of a constructor and, when arity is not negative,
// that it accepts exactly that many positional arguments.
func Check(ctor any, arity int) error {
	if _, err := Key(ctor); err != nil {
		return err
	}

	if f, ok := ctor.(*Factory); ok {
		if f.Build == nil {
			return ErrFactoryNoBuild
		}
		return nil
	}

	typ := reflect.TypeOf(ctor)
	switch typ.NumOut() {
	case 1:
		if typ.Out(0) == errType {
			return ErrConstructorNoValue
		}
	case 2:
		if typ.Out(1) != errType {
			return ErrConstructorNoValue
		}
	default:
		return ErrConstructorNoValue
	}

	if arity >= 0 && !acceptsArity(typ, arity) {
		return fmt.Errorf("%w: %s takes %d, %d declared", ErrArgumentCount, Name(ctor), typ.NumIn(), arity)
	}

	return nil
}

func acceptsArity(typ reflect.Type, n int) bool {
	if typ.IsVariadic() {
		return n >= typ.NumIn()-1
	}
	return n == typ.NumIn()
}

// Invoker performs the construction of one value from positional arguments.
type Invoker interface {
	Invoke(ctor any, args []any) (any, error)
}

// ConstructorInvoker invokes function constructors through reflection and
// *Factory constructors directly.
type ConstructorInvoker struct{}

// NewConstructorInvoker creates a new constructor invoker.
func NewConstructorInvoker() *ConstructorInvoker {
	return &ConstructorInvoker{}
}

// Invoke calls a constructor with its resolved arguments.
func (ci *ConstructorInvoker) Invoke(ctor any, args []any) (result any, err error) {
	if err := Check(ctor, -1); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = PanicError{
				Constructor: Name(ctor),
				Panic:       r,
				Stack:       debug.Stack(),
			}
		}
	}()

	if f, ok := ctor.(*Factory); ok {
		value, buildErr := f.Build(args)
		if buildErr != nil {
			return nil, InvocationError{Constructor: f.Name, Cause: buildErr}
		}
		return value, nil
	}

	val := reflect.ValueOf(ctor)
	in, err := ci.buildArguments(val.Type(), args)
	if err != nil {
		return nil, InvocationError{Constructor: Name(ctor), Cause: err}
	}

	results := val.Call(in)

	if len(results) == 2 && !results[1].IsNil() {
		return nil, InvocationError{
			Constructor: Name(ctor),
			Cause:       results[1].Interface().(error),
		}
	}

	return results[0].Interface(), nil
}

// buildArguments converts positional values to call arguments. A nil value
// becomes the zero value of its parameter type.
func (ci *ConstructorInvoker) buildArguments(typ reflect.Type, args []any) ([]reflect.Value, error) {
	if !acceptsArity(typ, len(args)) {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrArgumentCount, typ.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		paramType := paramAt(typ, i)

		if arg == nil {
			in[i] = reflect.Zero(paramType)
			continue
		}

		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(paramType) {
			return nil, fmt.Errorf("%w: parameter %d wants %s, got %s", ErrArgumentType, i, paramType, v.Type())
		}
		in[i] = v
	}

	return in, nil
}

func paramAt(typ reflect.Type, i int) reflect.Type {
	if typ.IsVariadic() && i >= typ.NumIn()-1 {
		return typ.In(typ.NumIn() - 1).Elem()
	}
	return typ.In(i)
}

// InvocationError wraps an error returned by a constructor.
type InvocationError struct {
	Constructor string
	Cause       error
}

func (e InvocationError) Error() string {
	return fmt.Sprintf("failed to invoke %s: %v", e.Constructor, e.Cause)
}

func (e InvocationError) Unwrap() error {
	return e.Cause
}

// PanicError indicates a constructor panicked during invocation.
type PanicError struct {
	Constructor string
	Panic       any
	Stack       []byte
}

func (e PanicError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("constructor %s panicked: %v\n", e.Constructor, e.Panic))

	if len(e.Stack) > 0 {
		b.WriteString("\nStack trace:\n")
		b.Write(e.Stack)
	}

	return b.String()
}
