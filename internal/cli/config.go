package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/rat/api/v1beta1/configs"
	"github.com/macropower/rat/pkg/config"
)

type ConfigInitArgs struct {
	*RootArgs

	Force bool
}

func NewConfigCmd(rootArgs *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the rat configuration",
	}

	cmd.AddCommand(
		newConfigInitCmd(rootArgs),
		newConfigShowCmd(rootArgs),
	)

	bindEnvVars(cmd)

	return cmd
}

func newConfigInitCmd(rootArgs *RootArgs) *cobra.Command {
	args := &ConfigInitArgs{RootArgs: rootArgs}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration files",
		Long: `Write the default config.yaml plus its JSON schema. An existing config is
left untouched unless --force is set, which backs it up first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath := rootArgs.ConfigPath
			if configPath == "" {
				configPath = configs.GetPath()
			}

			err := config.Init(configPath, args.Force)
			if err != nil {
				return fmt.Errorf("write default config: %w", err)
			}

			mustN(fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath))

			return nil
		},
	}

	cmd.Flags().BoolVar(&args.Force, "force", false, "Back up and replace an existing config file")

	bindEnvVars(cmd)

	return cmd
}

func newConfigShowCmd(rootArgs *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the active configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, configPath, err := loadConfig(rootArgs)
			if err != nil {
				return err
			}

			slog.Info("active configuration", slog.String("path", configPath))

			yamlBytes, err := cfg.MarshalYAML()
			if err != nil {
				return fmt.Errorf("marshal config yaml: %w", err)
			}

			mustN(fmt.Fprint(cmd.OutOrStdout(), string(yamlBytes)))

			return nil
		},
	}

	bindEnvVars(cmd)

	return cmd
}
