package ioc

import (
	"context"
)

type containerKey struct{}

// WithContainer returns a copy of ctx carrying c.
func WithContainer(ctx context.Context, c *Container) context.Context {
	return context.WithValue(ctx, containerKey{}, c)
}

// FromContext returns the container attached by WithContainer.
func FromContext(ctx context.Context) (*Container, error) {
	if ctx == nil {
		return nil, ErrNoContainerInContext
	}
	c, ok := ctx.Value(containerKey{}).(*Container)
	if !ok || c == nil {
		return nil, ErrNoContainerInContext
	}
	return c, nil
}
