package ioc

import (
	"go.uber.org/zap"

	"github.com/junioryono/ioc/internal/reflection"
)

// Invoker builds one value from a constructor and its positional arguments.
// It does not validate the arguments; the container passes exactly the
// values of the constructor's declared requirements, in order.
type Invoker = reflection.Invoker

// Factory is a constructor value with its own identity, for constructors
// created at runtime.
//
//	widget := &ioc.Factory{
//	    Name:  "Widget",
//	    Build: func(args []any) (any, error) { return newWidget(args[0].(Logger)), nil },
//	}
type Factory = reflection.Factory

// Option configures a Container.
type Option interface {
	apply(*containerOptions)
}

type containerOptions struct {
	name     string
	parent   *Container
	logger   *zap.Logger
	metadata MetadataProvider
	invoker  Invoker
	metrics  *Metrics
}

type optionFunc func(*containerOptions)

func (f optionFunc) apply(opts *containerOptions) {
	f(opts)
}

// WithName sets the display name of the container.
func WithName(name string) Option {
	return optionFunc(func(opts *containerOptions) {
		opts.name = name
	})
}

// WithParent sets the container consulted when a token cannot be resolved
// locally. The parent is never mutated by lookups, only by materializing
// nodes it owns.
func WithParent(parent *Container) Option {
	return optionFunc(func(opts *containerOptions) {
		opts.parent = parent
	})
}

// WithLogger sets the logger for registration and resolution events.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(opts *containerOptions) {
		if logger != nil {
			opts.logger = logger
		}
	})
}

// WithMetadata sets where constructor metadata is read from. Defaults to
// the package-level table filled by Injectable.
func WithMetadata(provider MetadataProvider) Option {
	return optionFunc(func(opts *containerOptions) {
		if provider != nil {
			opts.metadata = provider
		}
	})
}

// WithInvoker replaces the construction primitive.
func WithInvoker(invoker Invoker) Option {
	return optionFunc(func(opts *containerOptions) {
		if invoker != nil {
			opts.invoker = invoker
		}
	})
}

// WithMetrics records resolutions and constructions into m. A nil m
// disables collection.
func WithMetrics(m *Metrics) Option {
	return optionFunc(func(opts *containerOptions) {
		opts.metrics = m
	})
}

func defaultContainerOptions() *containerOptions {
	return &containerOptions{
		logger:   zap.NewNop(),
		metadata: defaultMetadata,
		invoker:  reflection.NewConstructorInvoker(),
	}
}
