package ioc

// NodeKind identifies the variant of a ResolveNode.
type NodeKind int

const (
	// CreateKind constructs a value from already resolved dependencies.
	CreateKind NodeKind = iota
	// InstanceKind uses a value that is already available.
	InstanceKind
	// ReferenceKind reuses the value of an earlier Create node in the same plan.
	ReferenceKind
)

func (k NodeKind) String() string {
	switch k {
	case CreateKind:
		return "Create"
	case InstanceKind:
		return "Instance"
	case ReferenceKind:
		return "Reference"
	default:
		return "Unknown"
	}
}

// ResolveNode is one entry of a resolution plan. It is implemented by
// *CreateNode, *InstanceNode and *ReferenceNode only.
type ResolveNode interface {
	Kind() NodeKind

	// NodeToken returns the token the node satisfies. It is nil for a Create
	// node of a directly consumed constructor.
	NodeToken() *Token

	// NodeOwner returns the container the node belongs to.
	NodeOwner() *Container

	resolveNode()
}

var (
	_ ResolveNode = (*CreateNode)(nil)
	_ ResolveNode = (*InstanceNode)(nil)
	_ ResolveNode = (*ReferenceNode)(nil)
)

// CreateNode constructs Constructor with the values of Deps. Once the plan is
// materialized the node holds the built instance.
type CreateNode struct {
	Owner       *Container
	Token       *Token
	Constructor any
	Deps        []*Token

	instance any
	built    bool
}

func (n *CreateNode) Kind() NodeKind        { return CreateKind }
func (n *CreateNode) NodeToken() *Token     { return n.Token }
func (n *CreateNode) NodeOwner() *Container { return n.Owner }
func (n *CreateNode) resolveNode()          {}

// Instance returns the value built for this node and whether it was built.
func (n *CreateNode) Instance() (any, bool) {
	return n.instance, n.built
}

// InstanceNode wraps a cached instance or a token default.
type InstanceNode struct {
	Owner    *Container
	Token    *Token
	Instance any
}

func (n *InstanceNode) Kind() NodeKind        { return InstanceKind }
func (n *InstanceNode) NodeToken() *Token     { return n.Token }
func (n *InstanceNode) NodeOwner() *Container { return n.Owner }
func (n *InstanceNode) resolveNode()          {}

// ReferenceNode points at a Create node earlier in the same plan. Index is
// the position of that node in the plan path.
type ReferenceNode struct {
	Owner *Container
	Token *Token
	Index int
}

func (n *ReferenceNode) Kind() NodeKind        { return ReferenceKind }
func (n *ReferenceNode) NodeToken() *Token     { return n.Token }
func (n *ReferenceNode) NodeOwner() *Container { return n.Owner }
func (n *ReferenceNode) resolveNode()          {}

// Resolution is the result of Container.Resolve: either a *NormalResolution
// or a *CircularResolution.
type Resolution interface {
	Circular() bool
	resolution()
}

var (
	_ Resolution = (*NormalResolution)(nil)
	_ Resolution = (*CircularResolution)(nil)
)

// NormalResolution is a construction plan in which every node appears after
// all of its dependencies.
type NormalResolution struct {
	Path []ResolveNode
}

func (r *NormalResolution) Circular() bool { return false }
func (r *NormalResolution) resolution()    {}

// CircularResolution describes a dependency cycle. Path holds the Create
// nodes that were in progress when the cycle closed, followed by the node
// that closed it again; Begin is the index where the repeating segment starts.
type CircularResolution struct {
	Begin int
	Path  []*CreateNode
}

func (r *CircularResolution) Circular() bool { return true }
func (r *CircularResolution) resolution()    {}

// Cycle returns the repeating segment of the path, including the closing node.
func (r *CircularResolution) Cycle() []*CreateNode {
	if r.Begin < 0 || r.Begin >= len(r.Path) {
		return nil
	}
	return r.Path[r.Begin:]
}
