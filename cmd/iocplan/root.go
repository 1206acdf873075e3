package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the CLI configuration, read from flags, IOCPLAN_* environment
// variables and an optional config file.
type Config struct {
	Manifest string `mapstructure:"manifest"`
	Format   string `mapstructure:"format"`
	Color    bool   `mapstructure:"color"`
	Verbose  bool   `mapstructure:"verbose"`
}

// app carries state shared by the subcommands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     Config
	logger  *zap.Logger
	palette palette
}

type palette struct {
	ok, fail, heading, muted *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		ok:      color.New(color.FgGreen, color.Bold),
		fail:    color.New(color.FgRed, color.Bold),
		heading: color.New(color.FgCyan, color.Bold),
		muted:   color.New(color.FgHiBlack),
	}
	if !enabled {
		for _, c := range []*color.Color{p.ok, p.fail, p.heading, p.muted} {
			c.DisableColor()
		}
	}
	return p
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "iocplan",
		Short: "Plan and validate token-based dependency graphs",
		Long: `iocplan reads a YAML manifest of containers, tokens and bindings and
shows how a target would be constructed, without running real constructors.

Examples:
  # Print the construction plan for the manifest target
  iocplan plan -m ioc.yaml

  # Render the binding graph as Graphviz DOT
  iocplan graph -m ioc.yaml --format dot | dot -Tsvg > graph.svg

  # Check every binding in every container
  iocplan validate -m ioc.yaml`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default: ./.iocplan.yaml)")
	flags.StringP("manifest", "m", "ioc.yaml", "path to the manifest")
	flags.String("format", "text", "graph output format: text or dot")
	flags.Bool("color", true, "colorize output")
	flags.BoolP("verbose", "v", false, "log container events")

	for _, key := range []string{"manifest", "format", "color", "verbose"} {
		_ = a.v.BindPFlag(key, flags.Lookup(key))
	}

	root.AddCommand(newPlanCmd(a), newBuildCmd(a), newGraphCmd(a), newValidateCmd(a))
	return root
}

func (a *app) init() error {
	a.v.SetEnvPrefix("IOCPLAN")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigName(".iocplan")
		a.v.SetConfigType("yaml")
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	if err := a.v.Unmarshal(&a.cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}

	switch a.cfg.Format {
	case "text", "dot":
	default:
		return fmt.Errorf("unknown format %q: want text or dot", a.cfg.Format)
	}

	if a.cfg.Verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		a.logger = logger
	} else {
		a.logger = zap.NewNop()
	}

	a.palette = newPalette(a.cfg.Color)
	return nil
}

// load reads the manifest and builds its workspace.
func (a *app) load() (*Manifest, *Workspace, error) {
	m, err := LoadManifest(a.cfg.Manifest)
	if err != nil {
		return nil, nil, err
	}

	ws, err := m.Build(a.logger)
	if err != nil {
		return nil, nil, err
	}

	a.logger.Debug("manifest loaded",
		zap.String("path", a.cfg.Manifest),
		zap.Int("containers", len(ws.Containers)),
		zap.Int("tokens", len(ws.Tokens)),
		zap.Int("bindings", len(ws.Bindings)),
	)
	return m, ws, nil
}
