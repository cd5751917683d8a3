package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macropower/rat/pkg/mcp"
	"github.com/macropower/rat/pkg/policy"
)

type MCPArgs struct {
	*RootArgs

	Address string
}

func NewMCPArgs(rootArgs *RootArgs) *MCPArgs {
	return &MCPArgs{
		RootArgs: rootArgs,
	}
}

func (ma *MCPArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ma.Address, "address", "", "Serve over HTTP at the specified address instead of stdio")
}

func NewMCPCmd(rootArgs *RootArgs) *cobra.Command {
	args := NewMCPArgs(rootArgs)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve rule synchronization tools over the Model Context Protocol",
		Example: `  # Serve on stdio (for MCP client configuration):
  rat mcp

  # Serve over HTTP:
  rat mcp --address localhost:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(args.RootArgs)
			if err != nil {
				return err
			}

			// MCP sessions cannot prompt, so only projects already on the
			// policy's trust list have their config files applied.
			pol, policyPath := loadPolicy()
			gate := policy.NewTrustManager(pol, policyPath)

			server, err := mcp.NewServer(args.Address, cfg, mcp.WithTrustGate(gate))
			if err != nil {
				return fmt.Errorf("create MCP server: %w", err)
			}

			return server.Serve(cmd.Context()) //nolint:wrapcheck // Server errors carry context.
		},
	}

	args.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}
