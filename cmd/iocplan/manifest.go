package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/junioryono/ioc"
)

var (
	ErrNoContainers     = errors.New("manifest declares no containers")
	ErrNoTarget         = errors.New("manifest target must name a token or a binding")
	ErrUnknownContainer = errors.New("unknown container")
	ErrUnknownToken     = errors.New("unknown token")
	ErrUnknownBinding   = errors.New("unknown binding")
	ErrDuplicateName    = errors.New("duplicate name")
)

// Manifest describes containers, tokens and bindings to plan without
// running any real constructor.
type Manifest struct {
	Containers []ContainerSpec `yaml:"containers"`
	Tokens     []TokenSpec     `yaml:"tokens"`
	Bindings   []BindingSpec   `yaml:"bindings"`
	Target     TargetSpec      `yaml:"target"`
}

type ContainerSpec struct {
	Name   string `yaml:"name"`
	Parent string `yaml:"parent"`
}

type TokenSpec struct {
	Name    string `yaml:"name"`
	Default any    `yaml:"default"`
}

// BindingSpec declares a constructor. It is registered in Container unless
// Register is false, in which case it can only be consumed as a target.
type BindingSpec struct {
	Name       string   `yaml:"name"`
	Container  string   `yaml:"container"`
	Implements string   `yaml:"implements"`
	Requires   []string `yaml:"requires"`
	Register   *bool    `yaml:"register"`
}

// TargetSpec names what to resolve: a token or a binding, from Container.
// Container defaults to the last declared container.
type TargetSpec struct {
	Container string `yaml:"container"`
	Token     string `yaml:"token"`
	Binding   string `yaml:"binding"`
}

// Built is the value every manifest constructor produces.
type Built struct {
	Binding string
	Args    []any
}

func (b *Built) String() string {
	args := make([]string, len(b.Args))
	for i, arg := range b.Args {
		if built, ok := arg.(*Built); ok {
			args[i] = built.Binding
		} else {
			args[i] = fmt.Sprint(arg)
		}
	}
	return b.Binding + "(" + strings.Join(args, ", ") + ")"
}

// LoadManifest reads a YAML manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	return DecodeManifest(f)
}

// DecodeManifest parses a YAML manifest.
func DecodeManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// Workspace holds the containers built from a manifest.
type Workspace struct {
	Containers map[string]*ioc.Container
	Tokens     map[string]*ioc.Token
	Bindings   map[string]*ioc.Factory

	// Built records constructor invocations in call order.
	Built []*Built

	order []string
}

// Build creates tokens, containers and bindings. Every container shares one
// metadata table and logs to logger.
func (m *Manifest) Build(logger *zap.Logger) (*Workspace, error) {
	if len(m.Containers) == 0 {
		return nil, ErrNoContainers
	}

	ws := &Workspace{
		Containers: make(map[string]*ioc.Container),
		Tokens:     make(map[string]*ioc.Token),
		Bindings:   make(map[string]*ioc.Factory),
	}

	for _, spec := range m.Tokens {
		if _, exists := ws.Tokens[spec.Name]; exists {
			return nil, fmt.Errorf("%w: token %q", ErrDuplicateName, spec.Name)
		}
		ws.Tokens[spec.Name] = ioc.NewToken(spec.Name, ioc.WithDefault(spec.Default))
	}

	table := ioc.NewMetadataTable()
	for _, spec := range m.Containers {
		if _, exists := ws.Containers[spec.Name]; exists {
			return nil, fmt.Errorf("%w: container %q", ErrDuplicateName, spec.Name)
		}

		opts := []ioc.Option{ioc.WithName(spec.Name), ioc.WithMetadata(table), ioc.WithLogger(logger)}
		if spec.Parent != "" {
			parent, ok := ws.Containers[spec.Parent]
			if !ok {
				return nil, fmt.Errorf("%w: %q is not declared before %q", ErrUnknownContainer, spec.Parent, spec.Name)
			}
			opts = append(opts, ioc.WithParent(parent))
		}

		ws.Containers[spec.Name] = ioc.New(opts...)
		ws.order = append(ws.order, spec.Name)
	}

	for _, spec := range m.Bindings {
		if err := ws.bind(table, spec); err != nil {
			return nil, fmt.Errorf("binding %q: %w", spec.Name, err)
		}
	}

	return ws, nil
}

func (ws *Workspace) bind(table *ioc.MetadataTable, spec BindingSpec) error {
	if _, exists := ws.Bindings[spec.Name]; exists {
		return ErrDuplicateName
	}

	meta := ioc.Metadata{}
	if spec.Implements != "" {
		token, err := ws.token(spec.Implements)
		if err != nil {
			return err
		}
		meta.Implements = token
	}
	for _, name := range spec.Requires {
		token, err := ws.token(name)
		if err != nil {
			return err
		}
		meta.Requires = append(meta.Requires, token)
	}

	name := spec.Name
	factory := &ioc.Factory{
		Name: name,
		Build: func(args []any) (any, error) {
			built := &Built{Binding: name, Args: append([]any(nil), args...)}
			ws.Built = append(ws.Built, built)
			return built, nil
		},
	}
	if err := table.Set(factory, meta); err != nil {
		return err
	}
	ws.Bindings[name] = factory

	if spec.Register != nil && !*spec.Register {
		return nil
	}

	c, err := ws.container(spec.Container)
	if err != nil {
		return err
	}
	return c.Register(factory)
}

func (ws *Workspace) token(name string) (*ioc.Token, error) {
	token, ok := ws.Tokens[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownToken, name)
	}
	return token, nil
}

// container returns the named container, or the last declared one when
// name is empty.
func (ws *Workspace) container(name string) (*ioc.Container, error) {
	if name == "" {
		name = ws.order[len(ws.order)-1]
	}
	c, ok := ws.Containers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContainer, name)
	}
	return c, nil
}

// ContainerNames returns container names in declaration order.
func (ws *Workspace) ContainerNames() []string {
	return append([]string(nil), ws.order...)
}

// Target returns the container and the resolve target named by spec.
func (ws *Workspace) Target(spec TargetSpec) (*ioc.Container, any, error) {
	c, err := ws.container(spec.Container)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case spec.Token != "" && spec.Binding != "":
		return nil, nil, ErrNoTarget
	case spec.Token != "":
		token, err := ws.token(spec.Token)
		if err != nil {
			return nil, nil, err
		}
		return c, token, nil
	case spec.Binding != "":
		factory, ok := ws.Bindings[spec.Binding]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBinding, spec.Binding)
		}
		return c, factory, nil
	}

	return nil, nil, ErrNoTarget
}
