package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/junioryono/ioc"
)

// ErrValidation is returned when validate finds problems.
var ErrValidation = errors.New("validation failed")

func newPlanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the construction plan for the manifest target",
		Long: `Print the construction plan for the manifest target.

Each line is one step: Create builds a constructor from the values before it,
Instance uses a cached value or a token default, and Reference reuses an
earlier Create step. A dependency cycle is printed instead and the command
fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ws, err := a.load()
			if err != nil {
				return err
			}

			c, target, err := ws.Target(m.Target)
			if err != nil {
				return err
			}

			res, err := c.Resolve(target)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch r := res.(type) {
			case *ioc.CircularResolution:
				a.palette.fail.Fprintln(out, "circular dependency")
				fmt.Fprintln(out, ioc.FormatCycle(r))
				return fmt.Errorf("plan for %s: %w", describe(target), ioc.ErrCircularDependency)
			case *ioc.NormalResolution:
				a.palette.heading.Fprintf(out, "plan for %s in %q\n", describe(target), c.Name())
				fmt.Fprint(out, ioc.FormatPlan(r))
			}
			return nil
		},
	}
}

func newBuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Construct the manifest target and list constructor calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ws, err := a.load()
			if err != nil {
				return err
			}

			c, target, err := ws.Target(m.Target)
			if err != nil {
				return err
			}

			var value any
			if token, ok := target.(*ioc.Token); ok {
				value, err = c.Get(token)
			} else {
				value, err = c.Consume(target)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, built := range ws.Built {
				a.palette.muted.Fprintf(out, "%d ", i)
				fmt.Fprintln(out, built)
			}
			a.palette.ok.Fprintf(out, "built %v\n", value)
			return nil
		},
	}
}

func newGraphCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the binding graph seen from the target container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ws, err := a.load()
			if err != nil {
				return err
			}

			c, err := ws.container(m.Target.Container)
			if err != nil {
				return err
			}

			if a.cfg.Format == "dot" {
				return c.WriteDOT(cmd.OutOrStdout())
			}
			return c.WriteText(cmd.OutOrStdout())
		},
	}
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Resolve every binding of every container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ws, err := a.load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, name := range ws.ContainerNames() {
				c := ws.Containers[name]
				if err := c.Validate(); err != nil {
					failed++
					a.palette.fail.Fprintf(out, "✗ %s\n", name)
					fmt.Fprintf(out, "  %v\n", err)
					continue
				}
				a.palette.ok.Fprintf(out, "✓ %s", name)
				a.palette.muted.Fprintf(out, " (%d bindings)\n", len(c.Tokens()))
			}

			if failed > 0 {
				return fmt.Errorf("%w: %d of %d containers", ErrValidation, failed, len(ws.Containers))
			}
			return nil
		},
	}
}

func describe(target any) string {
	if token, ok := target.(*ioc.Token); ok {
		return "<" + token.Name() + ">"
	}
	if factory, ok := target.(*ioc.Factory); ok {
		return factory.Name
	}
	return fmt.Sprint(target)
}
