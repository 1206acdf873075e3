package ioc

import (
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/junioryono/ioc/internal/reflection"
)

// Create materializes a plan produced by Resolve. Nodes are processed left
// to right on a value stack: instances and references push a value, and a
// Create node pops one value per dependency, builds its constructor with
// them in declared order and pushes the result. Every built node with a
// token is cached in the container that owns it.
//
// The first construction failure aborts the plan; instances built before it
// stay cached.
func (c *Container) Create(path []ResolveNode) (any, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPlan
	}

	stack := make([]any, 0, len(path))

	for i, entry := range path {
		switch node := entry.(type) {
		case *InstanceNode:
			stack = append(stack, node.Instance)

		case *ReferenceNode:
			if node.Index < 0 || node.Index >= i {
				return nil, PlanError{Index: i, Reason: fmt.Sprintf("reference to node %d", node.Index)}
			}
			target, ok := path[node.Index].(*CreateNode)
			if !ok {
				return nil, PlanError{Index: i, Reason: fmt.Sprintf("node %d is not a Create node", node.Index)}
			}
			instance, built := target.Instance()
			if !built {
				return nil, PlanError{Index: i, Reason: fmt.Sprintf("node %d was not built", node.Index)}
			}
			stack = append(stack, instance)

		case *CreateNode:
			n := len(node.Deps)
			if n > len(stack) {
				return nil, PlanError{Index: i, Reason: fmt.Sprintf("needs %d values, %d available", n, len(stack))}
			}

			args := make([]any, n)
			copy(args, stack[len(stack)-n:])
			stack = stack[:len(stack)-n]

			owner := node.Owner
			if owner == nil {
				owner = c
			}

			start := time.Now()
			instance, err := owner.invoker.Invoke(node.Constructor, args)
			c.metrics.observeConstruction(owner, time.Since(start), err)
			if err != nil {
				c.logger.Debug("construction failed",
					zap.String("constructor", reflection.Name(node.Constructor)),
					zap.Error(err),
				)
				return nil, err
			}

			node.instance = instance
			node.built = true
			if node.Token != nil {
				owner.instances[node.Token] = instance
			}
			stack = append(stack, instance)

			c.logger.Debug("instance created",
				zap.String("token", node.Token.Name()),
				zap.String("constructor", reflection.Name(node.Constructor)),
				zap.String("owner", owner.displayName()),
			)

		default:
			return nil, PlanError{Index: i, Reason: fmt.Sprintf("unknown node %T", entry)}
		}
	}

	return stack[len(stack)-1], nil
}

// Get resolves and builds the value for token.
func (c *Container) Get(token *Token) (any, error) {
	if token == nil {
		return nil, ErrNilToken
	}
	return c.resolveAndCreate(token)
}

// Consume builds ctor with its declared dependencies. If ctor is the current
// binding of its implements-token, the cached instance is reused.
func (c *Container) Consume(ctor any) (any, error) {
	return c.resolveAndCreate(ctor)
}

func (c *Container) resolveAndCreate(target any) (any, error) {
	res, err := c.Resolve(target)
	if err != nil {
		return nil, err
	}

	switch r := res.(type) {
	case *CircularResolution:
		return nil, &CircularDependencyError{Resolution: r}
	case *NormalResolution:
		return c.Create(r.Path)
	}

	return nil, ErrInvalidPlan
}

// GetAs resolves token and asserts the instance to T.
func GetAs[T any](c *Container, token *Token) (T, error) {
	instance, err := c.Get(token)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](instance, "get "+token.Name())
}

// ConsumeAs builds ctor and asserts the instance to T.
func ConsumeAs[T any](c *Container, ctor any) (T, error) {
	instance, err := c.Consume(ctor)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](instance, "consume "+reflection.Name(ctor))
}

// MustGet is like GetAs but panics on error.
func MustGet[T any](c *Container, token *Token) T {
	v, err := GetAs[T](c, token)
	if err != nil {
		panic(err)
	}
	return v
}

func as[T any](instance any, context string) (T, error) {
	v, ok := instance.(T)
	if !ok {
		var zero T
		return zero, TypeMismatchError{
			Expected: reflect.TypeOf((*T)(nil)).Elem(),
			Actual:   reflect.TypeOf(instance),
			Context:  context,
		}
	}
	return v, nil
}
