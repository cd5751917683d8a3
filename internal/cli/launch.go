package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/macropower/rat/api/v1beta1/configs"
	"github.com/macropower/rat/pkg/config"
	"github.com/macropower/rat/pkg/format"
	"github.com/macropower/rat/pkg/launch"
	"github.com/macropower/rat/pkg/log"
	"github.com/macropower/rat/pkg/sync"
)

type LaunchArgs struct {
	*RootArgs
	TrustArgs

	Sync bool
}

func NewLaunchArgs(rootArgs *RootArgs) *LaunchArgs {
	return &LaunchArgs{
		RootArgs: rootArgs,
	}
}

func (la *LaunchArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&la.Sync, "sync", false, "Synchronize before launching instead of prompting on drift")
	la.TrustArgs.AddFlags(cmd)
}

func NewLaunchCmd(rootArgs *RootArgs) *cobra.Command {
	args := NewLaunchArgs(rootArgs)

	cmd := &cobra.Command{
		Use:   "launch <format> [-- tool-args...]",
		Short: "Launch a downstream tool with its rules up to date",
		Long: `Launch the downstream tool behind a format, verifying the current project
first. On drift you are prompted to sync before the tool starts; --sync skips
the prompt and synchronizes unconditionally.`,
		Example: `  # Launch Claude Code in the current project:
  rat launch claude

  # Pass arguments through to the tool:
  rat launch claude -- --continue

  # Synchronize first without prompting:
  rat launch claude --sync`,
		Args: func(cmd *cobra.Command, args []string) error {
			dashPos := cmd.ArgsLenAtDash()
			if dashPos == -1 {
				if len(args) != 1 {
					return fmt.Errorf("accepts 1 arg, received %d", len(args))
				}

				return nil
			}
			if dashPos != 1 {
				return fmt.Errorf("accepts 1 arg before --, received %d", dashPos)
			}

			return nil
		},
		ValidArgsFunction: launchCompletion(args),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			formatName := cmdArgs[0]

			var extraArgs []string
			if dashPos := cmd.ArgsLenAtDash(); dashPos != -1 {
				extraArgs = cmdArgs[dashPos:]
			}

			cfg, _, err := loadConfig(args.RootArgs)
			if err != nil {
				return err
			}

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}

			gate := loadTrustGate(args.Mode())

			proj, err := config.Resolve(cfg, cwd, config.WithTrustGate(gate))
			if err != nil {
				return fmt.Errorf("resolve %q: %w", cwd, err)
			}

			planner, err := sync.NewPlanner(cfg.Rules.Dir, cfg.Formats)
			if err != nil {
				return fmt.Errorf("create planner: %w", err)
			}

			// The downstream tool owns the terminal, so hold logs until it
			// exits.
			logBuf := log.NewCircularBuffer(100)
			logHandler, err := log.CreateHandlerWithStrings(logBuf, args.LogLevel, args.LogFormat)
			if err != nil {
				return fmt.Errorf("create log handler: %w", err)
			}

			slog.SetDefault(slog.New(logHandler))

			launcher := launch.New(planner, cfg.Formats,
				launch.WithForceSync(args.Sync),
				launch.WithStdio(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
			)

			err = launcher.Launch(cmd.Context(), proj, formatName, extraArgs...)
			flushLogs(cmd.ErrOrStderr(), logBuf)
			if err != nil {
				if errors.Is(err, launch.ErrOutOfSync) {
					return fmt.Errorf("%w (pass --sync to synchronize first)", err)
				}

				return err //nolint:wrapcheck // Error already names the format.
			}

			return nil
		},
	}

	args.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func launchCompletion(la *LaunchArgs) func(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
		// First argument: format completion.
		if len(args) == 0 {
			return tryGetFormatNames(la.ConfigPath), cobra.ShellCompDirectiveNoFileComp
		}

		// Dash argument: extra args completion.
		dashPos := argsLenAtDash(os.Args)
		if dashPos != -1 && len(args) >= dashPos {
			return nil, cobra.ShellCompDirectiveDefault
		}

		// No more arguments accepted.
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}

// Try to load config to get available formats.
func tryGetFormatNames(configPath string) []cobra.Completion {
	if configPath == "" {
		configPath = configs.GetPath()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil
	}

	completions := make([]cobra.Completion, 0, len(cfg.Formats))
	for name, f := range cfg.Formats {
		completions = append(completions, cobra.CompletionWithDesc(name, describeFormat(f)))
	}

	return completions
}

func describeFormat(f *format.Format) string {
	var desc string

	switch {
	case f.SingleFile != nil:
		desc = fmt.Sprintf("writes %s", f.SingleFile.Path)
	case f.MultiFile != nil:
		desc = fmt.Sprintf("writes %s/", f.MultiFile.Dir)
	}

	if f.Launch != nil {
		desc = fmt.Sprintf("%s, launches %s", desc, f.Launch.Command)
	}

	return desc
}

// Hack to find the position of the first dash argument.
// Can be removed after https://github.com/spf13/cobra/pull/2259 is merged.
func argsLenAtDash(args []string) int {
	var dashPos int
	for _, arg := range args {
		if arg == "__complete" {
			// Ignore the __complete argument.
			continue
		}

		if arg == "--" {
			return dashPos - 1
		}

		dashPos++
	}

	return -1 // No dash argument found.
}

func flushLogs(w io.Writer, buf *log.CircularBuffer) {
	slog.Debug("flush logs to console",
		slog.Int("count", buf.Size()),
		slog.Int("max", buf.Capacity()),
		slog.Bool("truncated", buf.IsFull()),
	)

	_, err := buf.WriteTo(w)
	if err != nil {
		panic(err)
	}
}
