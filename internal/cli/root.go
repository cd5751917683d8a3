package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/rat/api/v1beta1/configs"
	"github.com/macropower/rat/api/v1beta1/policies"
	"github.com/macropower/rat/pkg/config"
	"github.com/macropower/rat/pkg/log"
	"github.com/macropower/rat/pkg/policy"
	"github.com/macropower/rat/pkg/project"
)

// ErrNoProjects is returned when no projects are configured and no paths
// were passed on the command line.
var ErrNoProjects = errors.New("no projects configured")

const (
	cmdName = "rat"
	cmdDesc = `Synchronize canonical rule documents into your projects, rendered per tool format.`

	cmdExamples = `  # Sync every configured project:
  rat sync

  # Sync one project and watch the rule source for changes:
  rat sync ~/src/service --watch

  # Check for drift without writing anything:
  rat verify --diff

  # List the rules a project selects:
  rat rules ~/src/service

  # Launch Claude Code with rules up to date:
  rat launch claude -- --continue`
)

type RootArgs struct {
	ConfigPath   string
	LogLevel     string
	LogFormat    string
	OTLPEndpoint string
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.ConfigPath, "config", "", "Path to the rat configuration file")
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "info", fmt.Sprintf("Log level, one of: %s", log.AllLevels))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", log.AllFormats))
	cmd.PersistentFlags().
		StringVar(&ra.OTLPEndpoint, "otlp-endpoint", "", "Export traces to the OTLP gRPC endpoint")

	var err error

	err = cmd.MarkPersistentFlagFilename("config", "yaml", "yml")
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.AllLevels, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}
}

func NewRootCmd() *cobra.Command {
	args := NewRootArgs()

	cmd := &cobra.Command{
		Use:               cmdName,
		Short:             cmdDesc,
		Example:           cmdExamples,
		PersistentPreRunE: setup(args),
	}

	args.AddFlags(cmd)

	cmd.AddCommand(
		NewSyncCmd(args),
		NewVerifyCmd(args),
		NewRulesCmd(args),
		NewLaunchCmd(args),
		NewMCPCmd(args),
		NewProjectsCmd(args),
		NewConfigCmd(args),
	)

	bindEnvVars(cmd)

	return cmd
}

// setup configures global logging and tracing before any command runs.
func setup(ra *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logHandler, err := log.CreateHandlerWithStrings(cmd.ErrOrStderr(), ra.LogLevel, ra.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		slog.SetDefault(slog.New(logHandler))

		err = setupTracing(cmd.Context(), ra.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("setup tracing: %w", err)
		}

		return nil
	}
}

// loadConfig loads the global configuration, writing the default files on
// first run. The config path flag wins over the XDG location.
func loadConfig(ra *RootArgs) (*configs.Config, string, error) {
	var configPath string
	if ra.ConfigPath != "" {
		configPath = ra.ConfigPath
	} else {
		configPath = configs.GetPath()
	}

	err := config.Init(configPath, false)
	if err != nil {
		slog.Error("write default config", slog.Any("err", err))
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, configPath, err //nolint:wrapcheck // Error already names the file.
	}

	return cfg, configPath, nil
}

// resolveTargets turns command line paths into resolved projects. With no
// paths it falls back to every configured project.
func resolveTargets(cfg *configs.Config, paths []string, opts ...config.ResolveOpt) ([]*project.Project, error) {
	if len(paths) == 0 {
		projects, err := config.ResolveAll(cfg, opts...)
		if err != nil {
			return nil, fmt.Errorf("resolve projects: %w", err)
		}
		if len(projects) == 0 {
			return nil, fmt.Errorf("%w: add one with `rat projects add` or pass a path", ErrNoProjects)
		}

		return projects, nil
	}

	projects := make([]*project.Project, 0, len(paths))
	for _, path := range paths {
		proj, err := config.Resolve(cfg, path, opts...)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", path, err)
		}

		projects = append(projects, proj)
	}

	return projects, nil
}

// TrustArgs holds the flags deciding whether project config files apply.
type TrustArgs struct {
	Trust   bool
	NoTrust bool
}

func (ta *TrustArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&ta.Trust, "trust", false, "Apply project config files without prompting")
	cmd.Flags().BoolVar(&ta.NoTrust, "no-trust", false, "Ignore untrusted project config files without prompting")
	cmd.MarkFlagsMutuallyExclusive("trust", "no-trust")
}

// Mode returns the trust mode the flags select.
func (ta *TrustArgs) Mode() policy.TrustMode {
	switch {
	case ta.Trust:
		return policy.TrustModeAllow
	case ta.NoTrust:
		return policy.TrustModeSkip
	default:
		return policy.TrustModePrompt
	}
}

// loadPolicy loads the trust policy. A policy that fails to load is treated
// as empty, so nothing is silently trusted.
func loadPolicy() (*policies.Policy, string) {
	policyPath := policies.GetPath()

	pol, err := policy.Load(policyPath)
	if err != nil {
		slog.Warn("load policy", slog.Any("err", err))

		pol = policies.New()
	}

	return pol, policyPath
}

// loadTrustGate builds the gate controlling project config files, prompting
// on the terminal for projects the policy does not cover.
func loadTrustGate(mode policy.TrustMode) *policy.TrustManager {
	pol, policyPath := loadPolicy()

	return policy.NewTrustManager(pol, policyPath,
		policy.WithPrompter(policy.NewTermPrompter()),
		policy.WithMode(mode),
	)
}
