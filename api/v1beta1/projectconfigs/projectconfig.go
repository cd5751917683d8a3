// Package projectconfigs defines the ProjectConfig kind: the `.rat.yaml`
// file a project keeps in its own tree to choose rules and formats without
// a central configuration entry.
package projectconfigs

import (
	"fmt"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/rat/api"
	"github.com/macropower/rat/api/v1beta1"
	"github.com/macropower/rat/pkg/project"
	"github.com/macropower/rat/pkg/yaml"
)

//go:generate go run ../../../internal/schemagen/project/main.go -o projectconfigs.v1beta1.json

var (
	// FileNames are the recognized project file names, in shadowing order.
	FileNames = []string{
		".rat.yaml",
		"rat.yaml",
	}

	//go:embed projectconfigs.v1beta1.json
	projectSchemaJSON []byte

	// DefaultValidator validates project configuration against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/projectconfigs.v1beta1.json", projectSchemaJSON)

	// ValidKinds contains the valid kind values for project configurations.
	ValidKinds = []string{"ProjectConfig"}

	// Compile-time interface checks.
	_ v1beta1.Object = (*ProjectConfig)(nil)
)

// ProjectConfig is a project.Project stored as its own document. The
// inline embedding keeps `.rat.yaml` flat: rules, formats, and hooks sit
// at the top level next to apiVersion and kind.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type ProjectConfig struct {
	Project          *project.Project `json:",inline,omitempty"`
	v1beta1.TypeMeta `json:",inline"`
}

// New creates an empty [ProjectConfig].
func New() *ProjectConfig {
	return &ProjectConfig{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       "ProjectConfig",
		},
		Project: &project.Project{},
	}
}

// EnsureDefaults initializes nil fields to their default values.
func (c *ProjectConfig) EnsureDefaults() {
	if c.Project == nil {
		c.Project = &project.Project{}
	}
}

// Validate compiles the embedded project. The project path must be
// populated first; loaders default it to the directory containing the
// config file.
func (c *ProjectConfig) Validate() error {
	if c.Project == nil {
		return nil
	}

	err := c.Project.Build()
	if err != nil {
		return fmt.Errorf("validate project config: %w", err)
	}

	return nil
}

func (c ProjectConfig) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// Find locates the nearest project file at or above targetPath, trying
// [FileNames] in each directory on the way up. It returns an empty string
// when no directory has one.
func Find(targetPath string) (string, error) {
	path, err := api.FindConfigFile(targetPath, FileNames)
	if err != nil {
		return "", fmt.Errorf("find project config: %w", err)
	}

	return path, nil
}
