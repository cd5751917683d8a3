// Package configs provides the global Config configuration type for rat.
package configs

import (
	"fmt"
	"path/filepath"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/rat/api"
	"github.com/macropower/rat/api/v1beta1"
	"github.com/macropower/rat/pkg/format"
	"github.com/macropower/rat/pkg/guard"
	"github.com/macropower/rat/pkg/project"
	"github.com/macropower/rat/pkg/yaml"
)

//go:generate go run ../../../internal/schemagen/config/main.go -o configs.v1beta1.json

var (
	//go:embed config.yaml
	defaultConfigYAML []byte

	//go:embed configs.v1beta1.json
	schemaJSON []byte

	// ValidKinds contains the valid kind values for global configurations.
	ValidKinds = []string{"Configuration"}

	// DefaultValidator validates global configuration against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/configs.v1beta1.json", schemaJSON)

	// Compile-time interface checks.
	_ v1beta1.Object = (*Config)(nil)
)

// DefaultRulesDir is the rule source directory used when none is configured.
const DefaultRulesDir = "~/rules"

// RulesConfig locates the central rule repository.
type RulesConfig struct {
	// Dir is the directory holding the source rule documents. A leading `~`
	// is expanded to the user's home directory.
	Dir string `json:"dir,omitempty" jsonschema:"title=Rules Directory"`
}

// EnsureDefaults initializes empty fields to their default values.
func (c *RulesConfig) EnsureDefaults() {
	if c.Dir == "" {
		c.Dir = DefaultRulesDir
	}
}

// Config represents the global rat configuration.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type Config struct {
	// Rules locates the central rule repository.
	Rules *RulesConfig `json:"rules,omitempty" jsonschema:"title=Rules"`
	// Formats defines the output formats available to projects, by name.
	// Entries here override the built-in formats of the same name.
	Formats map[string]*format.Format `json:"formats,omitempty" jsonschema:"title=Formats"`
	// Projects lists the directories receiving synchronized rules.
	Projects         []*project.Project `json:"projects,omitempty" jsonschema:"title=Projects"`
	v1beta1.TypeMeta `json:",inline"`
}

// New creates a new global [Config] with default values.
func New() *Config {
	c := &Config{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       "Configuration",
		},
	}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults initializes nil fields to their default values. Built-in
// formats are filled in unless the configuration overrides them.
func (c *Config) EnsureDefaults() {
	if c.Rules == nil {
		c.Rules = &RulesConfig{}
	}

	c.Rules.EnsureDefaults()

	if c.Formats == nil {
		c.Formats = map[string]*format.Format{}
	}

	for name, f := range format.DefaultFormats() {
		if _, ok := c.Formats[name]; !ok {
			c.Formats[name] = f
		}
	}
}

// Validate compiles the configured formats and projects, and checks that
// every project references a known format.
func (c *Config) Validate() error {
	for name, f := range c.Formats {
		if f == nil {
			return fmt.Errorf("format %q: %w: empty definition", name, format.ErrInvalidFormat)
		}

		err := f.Build()
		if err != nil {
			return fmt.Errorf("format %q: %w", name, err)
		}
	}

	for _, p := range c.Projects {
		err := p.Build()
		if err != nil {
			return fmt.Errorf("project %q: %w", p.Path, err)
		}

		for _, name := range p.Formats {
			_, err := format.Get(c.Formats, name)
			if err != nil {
				return fmt.Errorf("project %q: %w", p.Path, err)
			}
		}
	}

	return nil
}

// FindProject returns the configured project entry whose path matches the
// given path, or nil when none matches. Paths are compared after home
// expansion and absolutization.
func (c *Config) FindProject(path string) *project.Project {
	want, err := canonicalPath(path)
	if err != nil {
		return nil
	}

	for _, p := range c.Projects {
		got, err := canonicalPath(p.Path)
		if err != nil {
			continue
		}

		if got == want {
			return p
		}
	}

	return nil
}

func canonicalPath(path string) (string, error) {
	expanded, err := guard.ExpandHome(path)
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}

	return filepath.Clean(abs), nil
}

func (c Config) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// MarshalYAML serializes the config to YAML.
func (c Config) MarshalYAML() ([]byte, error) {
	type alias Config

	b, err := api.MarshalYAML(alias(c))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	return b, nil
}

// Write writes the config to the specified path if it doesn't already exist.
func (c Config) Write(path string) error {
	b, err := c.MarshalYAML()
	if err != nil {
		return err
	}

	err = api.WriteIfNotExists(path, b)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// WriteDefault writes the embedded default config.yaml to the specified path.
func WriteDefault(path string, force bool) error {
	err := api.WriteDefaultFile(path, defaultConfigYAML, force, "configuration")
	if err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	return nil
}

// Schema returns the embedded JSON schema for this kind.
func Schema() []byte {
	return schemaJSON
}

// GetPath returns the path to the global configuration file.
func GetPath() string {
	return api.GetConfigPath("config.yaml")
}
