package ioc

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/junioryono/ioc/internal/reflection"
)

// Container owns token bindings and the instances built from them. A
// container may have a parent, consulted when a token is not resolvable
// locally.
//
// Container is NOT safe for concurrent use. Callers sharing a container,
// or a parent chain, across goroutines must serialize access.
//
// Example:
//
//	c := ioc.New(ioc.WithName("app"))
//	if err := c.Register(NewUserService); err != nil {
//	    log.Fatal(err)
//	}
//	svc, err := ioc.GetAs[*UserService](c, UserServiceToken)
type Container struct {
	id     string
	name   string
	parent *Container

	bindings  map[*Token]any
	order     []*Token
	instances map[*Token]any

	metadata MetadataProvider
	invoker  Invoker
	logger   *zap.Logger
	metrics  *Metrics
}

// New creates an empty container.
func New(opts ...Option) *Container {
	options := defaultContainerOptions()
	for _, opt := range opts {
		opt.apply(options)
	}

	c := &Container{
		id:        uuid.NewString(),
		name:      options.name,
		parent:    options.parent,
		bindings:  make(map[*Token]any),
		instances: make(map[*Token]any),
		metadata:  options.metadata,
		invoker:   options.invoker,
		metrics:   options.metrics,
	}
	c.logger = options.logger.With(zap.String("container", c.displayName()))

	return c
}

// NewChild creates a container whose parent is c. Unless overridden, the
// child shares c's logger, metrics, metadata provider and invoker.
func (c *Container) NewChild(opts ...Option) *Container {
	inherited := []Option{
		WithParent(c),
		WithLogger(c.logger),
		WithMetadata(c.metadata),
		WithInvoker(c.invoker),
		WithMetrics(c.metrics),
	}
	return New(append(inherited, opts...)...)
}

// ID returns the unique identifier of the container.
func (c *Container) ID() string {
	return c.id
}

// Name returns the display name given with WithName.
func (c *Container) Name() string {
	return c.name
}

// Parent returns the parent container, or nil for a root container.
func (c *Container) Parent() *Container {
	return c.parent
}

// Add seeds the instance cache with a pre-built value for token.
func (c *Container) Add(token *Token, instance any) error {
	if token == nil {
		return ErrNilToken
	}
	if instance == nil {
		return ErrNilInstance
	}
	if _, exists := c.instances[token]; exists {
		return DuplicateInstanceError{Token: token}
	}

	c.instances[token] = instance
	c.logger.Debug("instance added", zap.String("token", token.Name()))
	return nil
}

// Register binds a constructor to the token its metadata implements.
func (c *Container) Register(ctor any) error {
	if _, err := reflection.Key(ctor); err != nil {
		return RegistrationError{Constructor: reflection.Name(ctor), Cause: err}
	}

	meta, ok := c.metadata.Metadata(ctor)
	if !ok {
		return MissingMetadataError{Constructor: reflection.Name(ctor)}
	}

	token := meta.Implements
	if token == nil {
		return MissingTokenError{Constructor: reflection.Name(ctor)}
	}

	if existing, exists := c.bindings[token]; exists {
		return AlreadyRegisteredError{
			Token:       token,
			Existing:    reflection.Name(existing),
			Constructor: reflection.Name(ctor),
		}
	}

	if err := reflection.Check(ctor, len(meta.Requires)); err != nil {
		return RegistrationError{Constructor: reflection.Name(ctor), Cause: err}
	}
	for _, dep := range meta.Requires {
		if dep == nil {
			return RegistrationError{Constructor: reflection.Name(ctor), Cause: ErrNilToken}
		}
	}

	c.bindings[token] = ctor
	c.order = append(c.order, token)

	c.logger.Debug("constructor registered",
		zap.String("token", token.Name()),
		zap.String("constructor", reflection.Name(ctor)),
		zap.Int("requires", len(meta.Requires)),
	)
	return nil
}

// IsRegistered reports whether token has a binding in this container.
// Parents are not consulted.
func (c *Container) IsRegistered(token *Token) bool {
	_, ok := c.bindings[token]
	return ok
}

// Binding returns the constructor bound to token in this container.
func (c *Container) Binding(token *Token) (any, bool) {
	ctor, ok := c.bindings[token]
	return ctor, ok
}

// HasInstance reports whether this container's cache holds a value for token.
func (c *Container) HasInstance(token *Token) bool {
	_, ok := c.instances[token]
	return ok
}

// Tokens returns the tokens bound in this container in registration order.
func (c *Container) Tokens() []*Token {
	return append([]*Token(nil), c.order...)
}

func (c *Container) displayName() string {
	if c == nil {
		return ""
	}
	if c.name != "" {
		return c.name
	}
	return c.id
}

func (c *Container) requires(ctor any) []*Token {
	meta, ok := c.metadata.Metadata(ctor)
	if !ok {
		return nil
	}
	return meta.Requires
}
