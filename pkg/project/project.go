package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/google/cel-go/cel"

	"github.com/macropower/rat/pkg/expr"
	"github.com/macropower/rat/pkg/guard"
	"github.com/macropower/rat/pkg/rule"
)

// ErrNoPath indicates a project entry without a path.
var ErrNoPath = errors.New("project path is required")

// Project represents one client directory receiving synchronized rules.
type Project struct {
	filterProgram *expr.LazyProgram

	// Hooks run around sync operations for this project.
	Hooks *Hooks `json:"hooks,omitempty" jsonschema:"title=Hooks"`

	// Path is the project root directory. `~` and relative paths are
	// allowed in configuration; the syncer canonicalizes before use.
	Path string `json:"path" jsonschema:"title=Project Path"`

	// Filter is a CEL expression evaluated once per loaded rule with `path`
	// bound to the rule's relative path. Rules evaluating false are dropped
	// before planning.
	//
	// Examples:
	//   - `pathDir(path).startsWith("go")` - only rules under go/
	//   - `!pathBase(path).matches(".*draft.*")` - skip drafts
	Filter string `json:"filter,omitempty" jsonschema:"title=Rule Filter"`

	// Rules selects rule documents by glob pattern. A `!` prefix excludes.
	// Empty selects every Markdown file in the source.
	Rules []string `json:"rules,omitempty" jsonschema:"title=Rule Patterns" yaml:"rules,flow,omitempty"`

	// Formats names entries of the format registry to render.
	Formats []string `json:"formats,omitempty" jsonschema:"title=Output Formats" yaml:"formats,flow,omitempty"`
}

// Opt is a functional option for configuring a [Project].
type Opt func(*Project)

// New creates a new project with the given path and options.
func New(path string, opts ...Opt) (*Project, error) {
	p := &Project{Path: path}
	for _, opt := range opts {
		opt(p)
	}

	err := p.Build()
	if err != nil {
		return nil, fmt.Errorf("project %q: %w", path, err)
	}

	return p, nil
}

// MustNew creates a new project and panics if there's an error.
func MustNew(path string, opts ...Opt) *Project {
	p, err := New(path, opts...)
	if err != nil {
		panic(err)
	}

	return p
}

// WithRules sets the rule patterns.
func WithRules(patterns ...string) Opt {
	return func(p *Project) {
		p.Rules = patterns
	}
}

// WithFormats sets the output formats.
func WithFormats(formats ...string) Opt {
	return func(p *Project) {
		p.Formats = formats
	}
}

// WithFilter sets the rule filter expression.
func WithFilter(expression string) Opt {
	return func(p *Project) {
		p.Filter = expression
	}
}

// WithHooks sets the project hooks.
func WithHooks(h *Hooks) Opt {
	return func(p *Project) {
		p.Hooks = h
	}
}

// Build validates the project and compiles its filter and hooks.
func (p *Project) Build() error {
	if p.Path == "" {
		return ErrNoPath
	}

	if p.Filter != "" && p.filterProgram == nil {
		env, err := expr.NewEnvironment(
			cel.Variable("path", cel.StringType),
		)
		if err != nil {
			return fmt.Errorf("environment: %w", err)
		}

		p.filterProgram = expr.NewLazyProgram(p.Filter, env)
	}
	if p.filterProgram != nil {
		_, err := p.filterProgram.Get()
		if err != nil {
			return fmt.Errorf("filter: %w", err)
		}
	}

	if p.Hooks != nil {
		err := p.Hooks.Build()
		if err != nil {
			return fmt.Errorf("build hooks: %w", err)
		}
	}

	return nil
}

// AbsPath returns the project path with `~` expanded and made absolute.
func (p *Project) AbsPath() (string, error) {
	path, err := guard.ExpandHome(p.Path)
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}

	return abs, nil
}

// FilterRules applies the project's filter expression to the loaded rules.
// Without a filter the input is returned unchanged. Evaluation errors fail
// the whole operation rather than silently dropping rules.
func (p *Project) FilterRules(rules []rule.Rule) ([]rule.Rule, error) {
	if p.filterProgram == nil {
		return rules, nil
	}

	program, err := p.filterProgram.Get()
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}

	kept := make([]rule.Rule, 0, len(rules))
	for _, r := range rules {
		result, _, err := program.Eval(map[string]any{"path": r.Path})
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", p.Filter, err)
		}

		keep, ok := result.Value().(bool)
		if !ok {
			return nil, fmt.Errorf("filter %q: expression must return a boolean", p.Filter)
		}

		if keep {
			kept = append(kept, r)
		}
	}

	return kept, nil
}

// Merge returns a copy of p with any non-empty fields of override applied.
// The result must be rebuilt before use.
func (p *Project) Merge(override *Project) *Project {
	merged := &Project{
		Path:    p.Path,
		Rules:   slices.Clone(p.Rules),
		Formats: slices.Clone(p.Formats),
		Filter:  p.Filter,
		Hooks:   p.Hooks,
	}

	if override == nil {
		return merged
	}

	if override.Path != "" {
		merged.Path = override.Path
	}
	if len(override.Rules) > 0 {
		merged.Rules = slices.Clone(override.Rules)
	}
	if len(override.Formats) > 0 {
		merged.Formats = slices.Clone(override.Formats)
	}
	if override.Filter != "" {
		merged.Filter = override.Filter
	}
	if override.Hooks != nil {
		merged.Hooks = override.Hooks
	}

	return merged
}

func (p *Project) String() string {
	return p.Path
}
