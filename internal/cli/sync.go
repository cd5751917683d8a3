package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macropower/rat/pkg/config"
	"github.com/macropower/rat/pkg/sync"
)

type SyncArgs struct {
	*RootArgs
	TrustArgs

	Watch   bool
	DryRun  bool
	Verbose bool
}

func NewSyncArgs(rootArgs *RootArgs) *SyncArgs {
	return &SyncArgs{
		RootArgs: rootArgs,
	}
}

func (sa *SyncArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&sa.Watch, "watch", "w", false, "Watch the rule source and re-sync on changes")
	cmd.Flags().BoolVar(&sa.DryRun, "dry-run", false, "Plan and validate without writing any files")
	cmd.Flags().BoolVarP(&sa.Verbose, "verbose", "v", false, "Print every written file")
	sa.TrustArgs.AddFlags(cmd)
}

func NewSyncCmd(rootArgs *RootArgs) *cobra.Command {
	args := NewSyncArgs(rootArgs)

	cmd := &cobra.Command{
		Use:   "sync [project-path...]",
		Short: "Synchronize rule files into projects",
		Example: `  # Sync every configured project:
  rat sync

  # Sync specific projects:
  rat sync ~/src/service ~/src/web

  # Re-sync whenever the rule source changes:
  rat sync --watch`,
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveFilterDirs
		},
		RunE: func(cmd *cobra.Command, paths []string) error {
			cfg, _, err := loadConfig(args.RootArgs)
			if err != nil {
				return err
			}

			gate := loadTrustGate(args.Mode())

			projects, err := resolveTargets(cfg, paths, config.WithTrustGate(gate))
			if err != nil {
				return err
			}

			planner, err := sync.NewPlanner(cfg.Rules.Dir, cfg.Formats)
			if err != nil {
				return fmt.Errorf("create planner: %w", err)
			}

			syncer := sync.NewSyncer(planner,
				sync.WithSyncDryRun(args.DryRun),
				sync.WithSyncVerbose(args.Verbose),
				sync.WithSyncOutput(cmd.OutOrStdout()),
			)

			results, err := syncer.SyncAll(cmd.Context(), projects)
			for _, res := range results {
				printSyncResult(cmd, res)
			}
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}

			if args.Watch {
				watcher, err := sync.NewWatcher(syncer, projects)
				if err != nil {
					return fmt.Errorf("create watcher: %w", err)
				}
				defer watcher.Close()

				return watcher.Watch(cmd.Context()) //nolint:wrapcheck // Watcher errors carry context.
			}

			return nil
		},
	}

	args.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func printSyncResult(cmd *cobra.Command, res *sync.Result) {
	if res.DryRun {
		mustN(fmt.Fprintf(cmd.OutOrStdout(), "Planned %s (%d files, dry-run)\n", res.Project, len(res.Written)))

		return
	}

	mustN(fmt.Fprintf(cmd.OutOrStdout(), "Synced %s (%d files)\n", res.Project, len(res.Written)))
}
