package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/macropower/rat/api/v1beta1/configs"
)

// Load reads the configuration at path, validates it against the embedded
// schema, and returns the parsed result. Schema failures are annotated with
// their position in the source.
func Load(path string) (*configs.Config, error) {
	cl, err := NewLoaderFromFile(path, configs.New, configs.DefaultValidator)
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	err = cl.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}

	cfg, err := cl.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration %s: %w", path, err)
	}

	// Run Go validation on the config (for requirements that can't be
	// represented in the schema).
	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}

	return cfg, nil
}

// Init writes the embedded default config.yaml to the specified path.
// Using `force` will back up and replace any existing file.
func Init(path string, force bool) error {
	err := configs.WriteDefault(path, force)
	if err != nil {
		return err //nolint:wrapcheck // Return the original error.
	}

	// Write the JSON schema file alongside the config file.
	schemaPath := filepath.Join(filepath.Dir(path), "configs.v1beta1.json")
	slog.Debug("write JSON schema",
		slog.String("path", schemaPath),
	)

	err = os.WriteFile(schemaPath, configs.Schema(), 0o600)
	if err != nil {
		return fmt.Errorf("write schema file: %w", err)
	}

	return nil
}
