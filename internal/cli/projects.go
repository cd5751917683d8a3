package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/macropower/rat/pkg/config"
	"github.com/macropower/rat/pkg/project"
)

type ProjectsAddArgs struct {
	*RootArgs

	Formats []string
	Rules   []string
	Filter  string
}

func NewProjectsCmd(rootArgs *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage the configured projects",
	}

	cmd.AddCommand(
		newProjectsAddCmd(rootArgs),
		newProjectsRemoveCmd(rootArgs),
		newProjectsListCmd(rootArgs),
	)

	bindEnvVars(cmd)

	return cmd
}

func newProjectsAddCmd(rootArgs *RootArgs) *cobra.Command {
	args := &ProjectsAddArgs{RootArgs: rootArgs}

	cmd := &cobra.Command{
		Use:   "add [path]",
		Short: "Register a project for synchronization",
		Example: `  # Register the current directory:
  rat projects add

  # Register a project with a rule selection:
  rat projects add ~/src/service --rules 'go/**' --formats claude,agents`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveFilterDirs
		},
		RunE: func(cmd *cobra.Command, paths []string) error {
			path := "."
			if len(paths) > 0 {
				path = paths[0]
			}

			cfg, configPath, err := loadConfig(args.RootArgs)
			if err != nil {
				return err
			}

			var opts []project.Opt
			if len(args.Rules) > 0 {
				opts = append(opts, project.WithRules(args.Rules...))
			}
			if len(args.Formats) > 0 {
				opts = append(opts, project.WithFormats(args.Formats...))
			}
			if args.Filter != "" {
				opts = append(opts, project.WithFilter(args.Filter))
			}

			proj, err := project.New(path, opts...)
			if err != nil {
				return err //nolint:wrapcheck // Error already names the project.
			}

			before := len(cfg.Projects)

			err = config.AddProject(cfg, configPath, proj)
			if err != nil {
				return fmt.Errorf("add project: %w", err)
			}

			if len(cfg.Projects) == before {
				mustN(fmt.Fprintf(cmd.OutOrStdout(), "%s is already configured\n", proj.Path))

				return nil
			}

			mustN(fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", proj.Path))

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&args.Formats, "formats", nil, "Output formats to render for this project")
	cmd.Flags().StringSliceVar(&args.Rules, "rules", nil, "Rule selection patterns, `!` prefix excludes")
	cmd.Flags().StringVar(&args.Filter, "filter", "", "CEL expression filtering rules by path")

	bindEnvVars(cmd)

	return cmd
}

func newProjectsRemoveCmd(rootArgs *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove [path]",
		Short: "Remove a project from the configuration",
		Args:  cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveFilterDirs
		},
		RunE: func(cmd *cobra.Command, paths []string) error {
			path := "."
			if len(paths) > 0 {
				path = paths[0]
			}

			cfg, configPath, err := loadConfig(rootArgs)
			if err != nil {
				return err
			}

			err = config.RemoveProject(cfg, configPath, path)
			if err != nil {
				return fmt.Errorf("remove project: %w", err)
			}

			mustN(fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", path))

			return nil
		},
	}

	bindEnvVars(cmd)

	return cmd
}

func newProjectsListCmd(rootArgs *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the configured projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(rootArgs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if len(cfg.Projects) == 0 {
				mustN(fmt.Fprintln(out, "No projects configured. Add one with `rat projects add`."))

				return nil
			}

			for _, p := range cfg.Projects {
				line := p.Path
				if len(p.Formats) > 0 {
					line += "\tformats=" + strings.Join(p.Formats, ",")
				}
				if len(p.Rules) > 0 {
					line += "\trules=" + strings.Join(p.Rules, ",")
				}
				if p.Filter != "" {
					line += "\tfilter=" + p.Filter
				}

				mustN(fmt.Fprintln(out, line))
			}

			return nil
		},
	}

	bindEnvVars(cmd)

	return cmd
}
