package ioc

import (
	"go.uber.org/zap"

	"github.com/junioryono/ioc/internal/reflection"
)

type resolveState int

const (
	resolving resolveState = iota + 1
	resolved
)

// resolveStatus tracks one token during a single Resolve call. While
// resolving, index is the stack depth at which the token was pushed; once
// resolved, index is the plan position of its Create node.
type resolveStatus struct {
	state resolveState
	index int
	node  *CreateNode
}

// resolveFrame is an in-progress Create node with a cursor over its
// dependencies.
type resolveFrame struct {
	node   *CreateNode
	cursor int
}

// Resolve computes how to build target, which is either a *Token or a
// constructor. It returns a *NormalResolution holding a plan in which every
// node follows its dependencies, or a *CircularResolution describing the
// first cycle found. Nothing is constructed.
//
// Tokens are looked up in this order: the instance cache, the local binding,
// the token's default, then the parent container.
func (c *Container) Resolve(target any) (Resolution, error) {
	res, err := c.resolve(target)
	c.metrics.observeResolution(res, err)
	return res, err
}

func (c *Container) resolve(target any) (Resolution, error) {
	seed, err := c.resolveSeed(target)
	if err != nil {
		return nil, err
	}

	if instance, ok := seed.(*InstanceNode); ok {
		return &NormalResolution{Path: []ResolveNode{instance}}, nil
	}

	first := seed.(*CreateNode)
	statuses := make(map[*Token]*resolveStatus)
	if first.Token != nil {
		statuses[first.Token] = &resolveStatus{state: resolving, index: 0, node: first}
	}

	stack := []*resolveFrame{{node: first}}
	var path []ResolveNode

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		node := frame.node

		if frame.cursor == len(node.Deps) {
			path = append(path, node)
			stack = stack[:len(stack)-1]
			if node.Token != nil {
				statuses[node.Token] = &resolveStatus{state: resolved, index: len(path) - 1, node: node}
			}
			continue
		}

		dep := node.Deps[frame.cursor]
		frame.cursor++

		if status, ok := statuses[dep]; ok {
			if status.state == resolving {
				cycle := make([]*CreateNode, 0, len(stack)+1)
				for _, f := range stack {
					cycle = append(cycle, f.node)
				}
				cycle = append(cycle, status.node)

				c.logger.Debug("circular dependency detected",
					zap.String("token", dep.Name()),
					zap.Int("begin", status.index),
					zap.Int("length", len(cycle)),
				)
				return &CircularResolution{Begin: status.index, Path: cycle}, nil
			}

			path = append(path, &ReferenceNode{Owner: c, Token: dep, Index: status.index})
			continue
		}

		next, err := c.lookup(dep)
		if err != nil {
			return nil, err
		}

		switch n := next.(type) {
		case *InstanceNode:
			path = append(path, n)
		case *CreateNode:
			statuses[dep] = &resolveStatus{state: resolving, index: len(stack), node: n}
			stack = append(stack, &resolveFrame{node: n})
		}
	}

	c.logger.Debug("resolved", zap.Int("nodes", len(path)))
	return &NormalResolution{Path: path}, nil
}

// resolveSeed produces the first node for target. A constructor that is the
// current local binding of its own implements-token resolves through the
// token, so the result is cached and shared; any other constructor becomes a
// Create node without a token.
func (c *Container) resolveSeed(target any) (ResolveNode, error) {
	if token, ok := target.(*Token); ok {
		if token == nil {
			return nil, ErrNilToken
		}
		return c.lookup(token)
	}

	if _, err := reflection.Key(target); err != nil {
		return nil, InvalidTargetError{Target: target, Cause: err}
	}

	meta, ok := c.metadata.Metadata(target)
	if !ok {
		return nil, MissingMetadataError{Constructor: reflection.Name(target)}
	}

	if meta.Implements != nil {
		if bound, exists := c.bindings[meta.Implements]; exists && reflection.Same(bound, target) {
			return c.lookup(meta.Implements)
		}
	}

	return &CreateNode{
		Owner:       c,
		Constructor: target,
		Deps:        meta.Requires,
	}, nil
}

// lookup finds the node for a single token, walking the parent chain.
func (c *Container) lookup(token *Token) (ResolveNode, error) {
	for current := c; current != nil; current = current.parent {
		if instance, ok := current.instances[token]; ok {
			return &InstanceNode{Owner: current, Token: token, Instance: instance}, nil
		}

		if ctor, ok := current.bindings[token]; ok {
			return &CreateNode{
				Owner:       current,
				Token:       token,
				Constructor: ctor,
				Deps:        current.requires(ctor),
			}, nil
		}

		if def, ok := token.Default(); ok {
			return &InstanceNode{Owner: current, Token: token, Instance: def}, nil
		}
	}

	c.logger.Debug("token unresolvable", zap.String("token", token.Name()))
	return nil, UnresolvableTokenError{Token: token, Container: c.displayName()}
}
