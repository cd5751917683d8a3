package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// bindEnvVars wires cmd's flags to RAT_* environment variables. Each flag
// reads from the variable named after it, uppercased with dashes replaced
// by underscores, so `--log-level` reads $RAT_LOG_LEVEL. Explicit arguments
// win over the environment, which wins over flag defaults. Flag usage text
// is extended with the variable name so it shows up in help output.
func bindEnvVars(cmd *cobra.Command) {
	for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()} {
		fs.VisitAll(bindFlag)
	}
}

func bindFlag(flag *pflag.Flag) {
	envName := envVarName(flag.Name)

	if !strings.Contains(flag.Usage, envName) {
		flag.Usage = fmt.Sprintf("%s ($%s)", flag.Usage, envName)
	}

	// An explicit argument always wins.
	if flag.Changed {
		return
	}

	envValue, ok := os.LookupEnv(envName)
	if !ok {
		return
	}

	err := flag.Value.Set(envValue)
	if err != nil {
		// Keep the flag default rather than failing startup on a bad variable.
		slog.Error("set flag from environment",
			slog.String("flag", flag.Name),
			slog.String("env", envName),
			slog.String("value", envValue),
			slog.Any("error", err),
		)
	}
}

// envVarName converts a flag name to its environment variable.
// Example: "log-level" -> "RAT_LOG_LEVEL".
func envVarName(flagName string) string {
	return strings.ToUpper(cmdName + "_" + strings.ReplaceAll(flagName, "-", "_"))
}
