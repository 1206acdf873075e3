package ioc

import (
	"github.com/google/uuid"
)

// Token is an opaque handle naming an abstract capability. Tokens are
// compared by identity: two tokens created with the same name are distinct.
//
// A Token is immutable once created.
//
// Example:
//
//	var LoggerToken = ioc.NewToken("logger")
//	var ClockToken = ioc.NewToken("clock", ioc.WithDefault(systemClock{}))
type Token struct {
	id         uuid.UUID
	name       string
	def        any
	hasDefault bool
}

// TokenOption configures a token at creation time.
type TokenOption func(*Token)

// WithDefault sets the value used when no container in the scope chain
// binds the token. A nil value leaves the token without a default.
func WithDefault(impl any) TokenOption {
	return func(t *Token) {
		if impl == nil {
			return
		}
		t.def = impl
		t.hasDefault = true
	}
}

// NewToken allocates a fresh token. The name is used for diagnostics only.
func NewToken(name string, opts ...TokenOption) *Token {
	t := &Token{
		id:   uuid.New(),
		name: name,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the display name of the token.
func (t *Token) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// ID returns the unique identifier allocated for the token.
func (t *Token) ID() uuid.UUID {
	if t == nil {
		return uuid.Nil
	}
	return t.id
}

// Default returns the default implementation, if one was configured.
func (t *Token) Default() (any, bool) {
	if t == nil {
		return nil, false
	}
	return t.def, t.hasDefault
}

func (t *Token) String() string {
	if t == nil {
		return "<nil>"
	}
	return "Token(" + t.name + ")"
}
