package cli

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/macropower/rat/pkg/config"
	"github.com/macropower/rat/pkg/rule"
	"github.com/macropower/rat/pkg/sync"
)

type RulesArgs struct {
	*RootArgs
	TrustArgs
}

func NewRulesArgs(rootArgs *RootArgs) *RulesArgs {
	return &RulesArgs{
		RootArgs: rootArgs,
	}
}

func NewRulesCmd(rootArgs *RootArgs) *cobra.Command {
	args := NewRulesArgs(rootArgs)

	cmd := &cobra.Command{
		Use:   "rules [project-path]",
		Short: "List rule documents",
		Long: `List rule documents from the rule source.

With a project path, only the rules the project selects are listed. Without
one, every rule in the source directory is listed.`,
		Example: `  # List every rule in the source:
  rat rules

  # List the rules a project selects:
  rat rules ~/src/service`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveFilterDirs
		},
		RunE: func(cmd *cobra.Command, paths []string) error {
			cfg, _, err := loadConfig(args.RootArgs)
			if err != nil {
				return err
			}

			planner, err := sync.NewPlanner(cfg.Rules.Dir, cfg.Formats)
			if err != nil {
				return fmt.Errorf("create planner: %w", err)
			}

			var (
				rules     []rule.Rule
				unmatched []string
			)

			if len(paths) == 0 {
				res, err := rule.Load(planner.SourceDir(), nil)
				if err != nil {
					return fmt.Errorf("load rules: %w", err)
				}

				rules, unmatched = res.Rules, res.Unmatched
			} else {
				gate := loadTrustGate(args.Mode())

				proj, err := config.Resolve(cfg, paths[0], config.WithTrustGate(gate))
				if err != nil {
					return fmt.Errorf("resolve %q: %w", paths[0], err)
				}

				plan, err := planner.Plan(proj)
				if err != nil {
					return fmt.Errorf("plan %q: %w", paths[0], err)
				}

				rules, unmatched = plan.Rules, plan.Unmatched
			}

			for _, pattern := range unmatched {
				slog.Warn("pattern matched no rules", slog.String("pattern", pattern))
			}

			out := cmd.OutOrStdout()
			for _, r := range rules {
				mustN(fmt.Fprintf(out, "%s\t%s\n", r.Path, humanize.Bytes(uint64(r.Size())))) //nolint:gosec // Sizes are non-negative.
			}

			mustN(fmt.Fprintf(out, "%d rules\n", len(rules)))

			return nil
		},
	}

	args.TrustArgs.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}
