package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingrea/framereel/internal/config"
	"github.com/kingrea/framereel/plugins"
)

// app carries the output streams and the exit code chosen by a command.
type app struct {
	stdout io.Writer
	stderr io.Writer
	exit   int
}

// fail prints err and returns its exit code.
func (a *app) fail(err error) int {
	fmt.Fprintf(a.stderr, "framereel: %v\n", err)
	return exitCode(err)
}

func (a *app) rootCommand() *cobra.Command {
	root := a.renderCommand("framereel [plugin]", false)
	root.Short = "Render a plugin-defined animation frame by frame and encode it with ffmpeg"
	root.Version = version
	root.AddCommand(a.renderCommand("render [plugin]", false))
	root.AddCommand(a.renderCommand("assemble [plugin]", true))
	root.AddCommand(a.listCommand())
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		defaultHelp(cmd, args)
		if cmd != root {
			return
		}
		dir := os.Getenv(config.PluginsDirEnv)
		if flag := cmd.Flags().Lookup("plugins-dir"); flag != nil && flag.Changed {
			dir = flag.Value.String()
		}
		if dir == "" {
			dir = "."
		}
		fmt.Fprintln(cmd.OutOrStdout())
		_ = writePluginList(cmd.OutOrStdout(), plugins.DefaultRegistry(), dir)
	})
	return root
}

// renderCommand builds a command that runs the render pipeline. assemble
// commands skip frame generation.
func (a *app) renderCommand(use string, assemble bool) *cobra.Command {
	cfg := config.Default()
	var flags *config.Flags
	cmd := &cobra.Command{
		Use:           use,
		Args:          usageArgs(cobra.MaximumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.Plugin = strings.TrimSpace(args[0])
			}
			if assemble {
				// Marked as set so a config file cannot turn it off.
				if err := cmd.Flags().Set("only-render-movie", "true"); err != nil {
					return &usageError{err: err}
				}
			}
			resolved, err := flags.Resolve()
			if err != nil {
				return &usageError{err: err}
			}
			a.exit = a.execute(cmd.Context(), resolved)
			return nil
		},
	}
	if assemble {
		cmd.Short = "Assemble previously rendered frames into a video"
		cmd.Long = "Assemble frames already present in the output directory. With --frame-name-format the\n" +
			"plugin is not consulted at all; otherwise the plugin's frame selection decides the names."
	} else {
		cmd.Short = "Render frames and assemble the video"
	}
	flags = config.BindFlags(cmd.Flags(), &cfg)
	cmd.Flags().SortFlags = false
	return cmd
}

func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

func (a *app) listCommand() *cobra.Command {
	dir := os.Getenv(config.PluginsDirEnv)
	if dir == "" {
		dir = "."
	}
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List builtin plugins and plugin scripts",
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writePluginList(cmd.OutOrStdout(), plugins.DefaultRegistry(), dir)
		},
	}
	cmd.Flags().StringVar(&dir, "plugins-dir", dir, "directory searched for plugin scripts (env "+config.PluginsDirEnv+")")
	return cmd
}

func writePluginList(w io.Writer, reg *plugins.Registry, dir string) error {
	fmt.Fprintln(w, "Builtin plugins:")
	for _, name := range reg.Names() {
		b, _ := reg.Lookup(name)
		fmt.Fprintf(w, "  %-16s %s\n", name, b.Description)
		for _, opt := range b.Options.Keys() {
			fmt.Fprintf(w, "  %-16s   -O %s=%s\n", "", opt, b.Options[opt])
		}
	}
	found, err := plugins.Discover(dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Plugin scripts in %s:\n", dir)
	if len(found) == 0 {
		fmt.Fprintln(w, "  (none)")
		return nil
	}
	for _, c := range found {
		if c.Valid {
			fmt.Fprintf(w, "  %-16s %s\n", c.Name, c.Path)
			continue
		}
		fmt.Fprintf(w, "  %-16s invalid: %s\n", c.Name, c.Reason)
	}
	return nil
}
