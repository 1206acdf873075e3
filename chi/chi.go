// Package chi provides ioc integration for the Chi router.
//
// This package provides middleware that gives each request its own child
// container and type-safe handler wrappers for resolving controllers.
//
// Example usage:
//
//	root := ioc.New(ioc.WithName("app"))
//	_ = root.Register(NewUserController)
//
//	r := chi.NewRouter()
//	r.Use(iocchi.ScopeMiddleware(root))
//
//	r.Get("/users/{id}", iocchi.Handle(UserControllerToken, (*UserController).GetByID))
package chi

import (
	"context"
	"net/http"
	"sync"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/junioryono/ioc"
)

var (
	// RequestToken is bound to the current *http.Request in every request
	// container.
	RequestToken = ioc.NewToken("http.request")

	// RouteContextToken is bound to the chi *Context of the request when the
	// middleware runs inside a chi router.
	RouteContextToken = ioc.NewToken("chi.route-context")
)

// Config holds the configuration for the scope middleware.
type Config struct {
	// ErrorHandler is called when seeding the request container or a
	// middleware fails. If nil, a default handler returning 500 Internal
	// Server Error is used.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)

	// Middlewares are functions that run after the request container is
	// created. They can seed request values with Container.Add.
	Middlewares []func(*ioc.Container, *http.Request) error

	// Logger receives request container events. Defaults to a no-op logger.
	Logger *zap.Logger

	// ScopeName names every request container. It is shared by all requests
	// so metrics labelled by container stay bounded. Defaults to "request".
	ScopeName string
}

// Option configures the scope middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for request container failures.
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a middleware function that runs after the request
// container is created. Multiple middlewares run in the order they are added.
func WithMiddleware(mw func(*ioc.Container, *http.Request) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

// WithLogger sets the logger used by the middleware.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithScopeName sets the name given to every request container.
func WithScopeName(name string) Option {
	return func(c *Config) {
		c.ScopeName = name
	}
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
		Logger:    zap.NewNop(),
		ScopeName: "request",
	}
}

type lockKey struct{}

// ScopeMiddleware creates a Chi middleware that gives each request a child
// container of root. The child is attached to the request context and can be
// retrieved with ioc.FromContext.
//
// Containers are not safe for concurrent use and resolving from a child
// caches instances in root, so every request served by this middleware
// shares one lock. Resolve through Handle or Resolve to hold it.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(iocchi.ScopeMiddleware(root))
func ScopeMiddleware(root *ioc.Container, opts ...Option) func(http.Handler) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	mu := &sync.Mutex{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			scope, err := newRequestScope(root, cfg.ScopeName, r)
			if err == nil {
				for _, mw := range cfg.Middlewares {
					if err = mw(scope, r); err != nil {
						break
					}
				}
			}
			mu.Unlock()

			if err != nil {
				cfg.Logger.Debug("request container setup failed",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				cfg.ErrorHandler(w, r, err)
				return
			}

			ctx := ioc.WithContainer(r.Context(), scope)
			ctx = context.WithValue(ctx, lockKey{}, mu)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newRequestScope(root *ioc.Container, name string, r *http.Request) (*ioc.Container, error) {
	scope := root.NewChild(ioc.WithName(name))

	if err := scope.Add(RequestToken, r); err != nil {
		return nil, err
	}
	if rctx := gochi.RouteContext(r.Context()); rctx != nil {
		if err := scope.Add(RouteContextToken, rctx); err != nil {
			return nil, err
		}
	}
	return scope, nil
}

// Resolve gets token from the request container and asserts it to T while
// holding the middleware lock.
func Resolve[T any](r *http.Request, token *ioc.Token) (T, error) {
	scope, err := ioc.FromContext(r.Context())
	if err != nil {
		var zero T
		return zero, err
	}

	if mu, ok := r.Context().Value(lockKey{}).(*sync.Mutex); ok {
		mu.Lock()
		defer mu.Unlock()
	}
	return ioc.GetAs[T](scope, token)
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(http.ResponseWriter, *http.Request, any)

	// ScopeErrorHandler is called when the request has no container.
	ScopeErrorHandler func(http.ResponseWriter, *http.Request, error)

	// ResolutionErrorHandler is called when the controller cannot be built.
	ResolutionErrorHandler func(http.ResponseWriter, *http.Request, error)
}

// HandlerOption configures the Handle wrapper.
type HandlerOption func(*HandlerConfig)

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicRecovery = enabled
	}
}

// WithPanicHandler sets the handler for panics.
func WithPanicHandler(h func(http.ResponseWriter, *http.Request, any)) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithScopeErrorHandler sets the error handler for requests without a
// container.
func WithScopeErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ScopeErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for controller resolution failures.
func WithResolutionErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicRecovery: false,
		PanicHandler: func(w http.ResponseWriter, r *http.Request, v any) {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
		ScopeErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
		ResolutionErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
	}
}

// Handle wraps a controller method for type-safe resolution from the request
// container. The controller bound to token is asserted to T.
//
// The method signature should be: func(T, http.ResponseWriter, *http.Request)
//
// Example:
//
//	r.Get("/users/{id}", iocchi.Handle(UserControllerToken, (*UserController).GetByID))
func Handle[T any](token *ioc.Token, method func(T, http.ResponseWriter, *http.Request), opts ...HandlerOption) http.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					cfg.PanicHandler(w, r, v)
				}
			}()
		}

		if _, err := ioc.FromContext(r.Context()); err != nil {
			cfg.ScopeErrorHandler(w, r, err)
			return
		}

		controller, err := Resolve[T](r, token)
		if err != nil {
			cfg.ResolutionErrorHandler(w, r, err)
			return
		}

		method(controller, w, r)
	}
}
