// Package ioc provides a token-based inversion of control container.
//
// # Overview
//
// Capabilities are named by tokens. Constructors declare, through metadata,
// which token they implement and which tokens they require in parameter
// order. A container binds tokens to constructors, computes a construction
// plan for a token or constructor, detects circular dependencies, and builds
// each token's instance at most once.
//
//   - Tokens are unique by identity, never by name
//   - One binding per token per container
//   - Diamond dependencies are built once per resolution and cached
//   - Parent containers are consulted for tokens not resolvable locally
//   - Cycles are returned as values from Resolve and as errors from Get
//
// # Basic Usage
//
//	var (
//	    ConfigToken = ioc.NewToken("config", ioc.WithDefault(&Config{Env: "dev"}))
//	    DBToken     = ioc.NewToken("db")
//	    RepoToken   = ioc.NewToken("repo")
//	)
//
//	var NewDB = ioc.Injectable(func(cfg *Config) *DB { return openDB(cfg) }, ioc.Metadata{
//	    Implements: DBToken,
//	    Requires:   []*ioc.Token{ConfigToken},
//	})
//
//	var NewRepo = ioc.Injectable(func(db *DB) *Repo { return &Repo{db: db} }, ioc.Metadata{
//	    Implements: RepoToken,
//	    Requires:   []*ioc.Token{DBToken},
//	})
//
//	c := ioc.New(ioc.WithName("app"))
//	_ = c.Register(NewDB)
//	_ = c.Register(NewRepo)
//
//	repo, err := ioc.GetAs[*Repo](c, RepoToken)
//
// # Resolution
//
// Resolve walks the dependency graph depth first without building anything.
// Each token is looked up in the container's instance cache, then its
// bindings, then the token default, then the parent container. The result is
// either a *NormalResolution, a flat plan in which every node follows its
// dependencies, or a *CircularResolution naming the cycle:
//
//	res, err := c.Resolve(RepoToken)
//	if circular, ok := res.(*ioc.CircularResolution); ok {
//	    fmt.Println(ioc.FormatCycle(circular))
//	}
//
// Create builds a plan. Get and Consume resolve and create in one step and
// return a *CircularDependencyError when the graph has a cycle.
//
// # Scopes
//
// A child container consults its parent for tokens it does not bind.
// Instances are cached in the container that owns the binding, so a child
// shares its parent's instances:
//
//	request := c.NewChild(ioc.WithName("request"))
//	_ = request.Add(RequestIDToken, id)
//
// # Observability
//
// WithLogger attaches a zap logger for registration and resolution events.
// WithMetrics records resolutions and constructions into Prometheus
// collectors created by NewMetrics. Children inherit both.
//
// # Concurrency
//
// Containers hold no locks. Serialize access to a container and its parent
// chain when sharing them across goroutines.
package ioc
