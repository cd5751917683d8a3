package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macropower/rat/pkg/config"
	"github.com/macropower/rat/pkg/sync"
)

// ErrDriftDetected is returned when verification finds files that diverge
// from the rule source, so scripts get a non-zero exit.
var ErrDriftDetected = errors.New("drift detected")

type VerifyArgs struct {
	*RootArgs
	TrustArgs

	Diff bool
}

func NewVerifyArgs(rootArgs *RootArgs) *VerifyArgs {
	return &VerifyArgs{
		RootArgs: rootArgs,
	}
}

func (va *VerifyArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&va.Diff, "diff", false, "Print a unified diff for every modified file")
	va.TrustArgs.AddFlags(cmd)
}

func NewVerifyCmd(rootArgs *RootArgs) *cobra.Command {
	args := NewVerifyArgs(rootArgs)

	cmd := &cobra.Command{
		Use:   "verify [project-path...]",
		Short: "Check projects for drift without writing anything",
		Example: `  # Verify every configured project:
  rat verify

  # Show what changed in one project:
  rat verify ~/src/service --diff`,
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

			verifier := sync.NewVerifier(planner, sync.WithDiff(args.Diff))

			results, err := verifier.VerifyAll(cmd.Context(), projects)
			if err != nil {
				return fmt.Errorf("verify: %w", err)
			}

			drifted := 0
			for _, res := range results {
				if !res.Synced() {
					drifted++
				}

				printVerifyResult(cmd, res)
			}

			if drifted > 0 {
				return fmt.Errorf("%w in %d of %d projects", ErrDriftDetected, drifted, len(results))
			}

			return nil
		},
	}

	args.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func printVerifyResult(cmd *cobra.Command, res *sync.VerifyResult) {
	out := cmd.OutOrStdout()

	if res.Synced() {
		mustN(fmt.Fprintf(out, "%s: in sync\n", res.Project))

		return
	}

	mustN(fmt.Fprintf(out, "%s: %d files out of sync\n", res.Project, len(res.Issues)))
	for _, issue := range res.Issues {
		mustN(fmt.Fprintf(out, "  %s: %s\n", issue.Kind, issue.Path))
		if issue.Diff != "" {
			mustN(fmt.Fprint(out, issue.Diff))
		}
	}
}
