// Package policies defines the Policy kind: machine-level settings for rat,
// including the list of project directories whose configuration files are
// trusted.
package policies

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/rat/api"
	"github.com/macropower/rat/api/v1beta1"
	"github.com/macropower/rat/pkg/yaml"
)

//go:generate go run ../../../internal/schemagen/policy/main.go -o policies.v1beta1.json

var (
	//go:embed policy.yaml
	defaultPolicyYAML []byte

	//go:embed policies.v1beta1.json
	policySchemaJSON []byte

	// ValidKinds contains the valid kind values for policy configurations.
	ValidKinds = []string{"Policy"}

	// DefaultValidator validates policy configuration against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/policies.v1beta1.json", policySchemaJSON)

	// Compile-time interface checks.
	_ v1beta1.Object = (*Policy)(nil)
)

// TrustedProject marks one project directory whose configuration file may be
// applied without prompting.
type TrustedProject struct {
	// Path is the absolute project directory.
	Path string `json:"path" jsonschema:"title=Path"`
}

// ProjectsPolicyConfig decides which project configuration files rat applies.
type ProjectsPolicyConfig struct {
	// Trust lists projects whose configuration files are applied without
	// prompting. The `--trust` and `--no-trust` flags override prompting
	// for a single run without touching this list.
	Trust []*TrustedProject `json:"trust,omitempty" jsonschema:"title=Trust"`
}

// EnsureDefaults initializes nil fields to their default values.
func (c *ProjectsPolicyConfig) EnsureDefaults() {
	if c.Trust == nil {
		c.Trust = []*TrustedProject{}
	}
}

// Policy is the machine-level policy file. Unlike the main configuration it
// is never shared between machines, so decisions recorded here (like trusted
// projects) stay local.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type Policy struct {
	Projects         *ProjectsPolicyConfig `json:"projects,omitempty" jsonschema:"title=Projects"`
	v1beta1.TypeMeta `json:",inline"`
}

// New creates a new [Policy] with default values.
func New() *Policy {
	p := &Policy{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       "Policy",
		},
	}
	p.EnsureDefaults()

	return p
}

// EnsureDefaults initializes nil fields to their default values.
func (p *Policy) EnsureDefaults() {
	if p.Projects == nil {
		p.Projects = &ProjectsPolicyConfig{}
	}

	p.Projects.EnsureDefaults()
}

// IsTrusted reports whether projectPath is on the trust list. Paths compare
// after Abs and Clean, so `.` matches an entry for the current directory.
func (p *Policy) IsTrusted(projectPath string) bool {
	if p.Projects == nil {
		return false
	}

	abs, err := filepath.Abs(projectPath)
	if err != nil {
		return false
	}

	abs = filepath.Clean(abs)

	return slices.ContainsFunc(p.Projects.Trust, func(tp *TrustedProject) bool {
		return filepath.Clean(tp.Path) == abs
	})
}

// TrustProject adds projectPath to the trust list and persists the change to
// the policy file at policyPath, preserving its comments. Trusting a project
// twice is a no-op.
func (p *Policy) TrustProject(projectPath, policyPath string) error {
	p.EnsureDefaults()

	if p.IsTrusted(projectPath) {
		return nil
	}

	abs, err := filepath.Abs(projectPath)
	if err != nil {
		abs = projectPath
	}

	p.Projects.Trust = append(p.Projects.Trust, &TrustedProject{Path: filepath.Clean(abs)})

	data, err := api.ReadFile(policyPath)
	if err != nil {
		return fmt.Errorf("read policy: %w", err)
	}

	// Rewrite only the projects section so the rest of the file, comments
	// included, stays as the user wrote it.
	patch := struct {
		Projects *ProjectsPolicyConfig `json:"projects"`
	}{
		Projects: p.Projects,
	}

	merged, err := yaml.MergeRootFromValue(data, patch)
	if err != nil {
		return fmt.Errorf("merge projects section: %w", err)
	}

	err = os.WriteFile(policyPath, merged, 0o600)
	if err != nil {
		return fmt.Errorf("write policy: %w", err)
	}

	return nil
}

func (p Policy) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// MarshalYAML serializes the policy to YAML.
func (p Policy) MarshalYAML() ([]byte, error) {
	type alias Policy

	b, err := api.MarshalYAML(alias(p))
	if err != nil {
		return nil, fmt.Errorf("marshal policy: %w", err)
	}

	return b, nil
}

// Write writes the policy to path unless a file already exists there.
func (p Policy) Write(path string) error {
	b, err := p.MarshalYAML()
	if err != nil {
		return err
	}

	err = api.WriteIfNotExists(path, b)
	if err != nil {
		return fmt.Errorf("write policy: %w", err)
	}

	return nil
}

// WriteDefault writes the embedded default policy.yaml to the specified path.
func WriteDefault(path string, force bool) error {
	err := api.WriteDefaultFile(path, defaultPolicyYAML, force, "policy")
	if err != nil {
		return fmt.Errorf("write default policy: %w", err)
	}

	return nil
}

// Schema returns the embedded JSON schema for this kind.
func Schema() []byte {
	return policySchemaJSON
}

// GetPath returns the path to the policy configuration file.
func GetPath() string {
	return api.GetConfigPath("policy.yaml")
}
