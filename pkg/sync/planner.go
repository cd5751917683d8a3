package sync

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/macropower/rat/pkg/format"
	"github.com/macropower/rat/pkg/guard"
	"github.com/macropower/rat/pkg/project"
	"github.com/macropower/rat/pkg/rule"
)

// Planner derives write intents for projects from the rule source tree.
//
// Planning reads the source directory but never touches project
// filesystems, so a plan can be inspected, diffed, or discarded without
// side effects.
type Planner struct {
	formats   map[string]*format.Format
	sourceDir string
}

// NewPlanner creates a [Planner] that reads rules from sourceDir and
// renders them with the given formats. The source directory is resolved
// to an absolute path, expanding a leading `~` to the current user's
// home directory.
func NewPlanner(sourceDir string, formats map[string]*format.Format) (*Planner, error) {
	if strings.TrimSpace(sourceDir) == "" {
		return nil, fmt.Errorf("%w: empty source directory", guard.ErrInvalidPath)
	}

	dir, err := guard.ExpandHome(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("expand source directory: %w", err)
	}

	dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve source directory: %w", err)
	}

	return &Planner{sourceDir: dir, formats: formats}, nil
}

// SourceDir returns the absolute rule source directory.
func (p *Planner) SourceDir() string {
	return p.sourceDir
}

// Plan is the full set of write intents derived for one project.
type Plan struct {
	// Project is the project the plan was derived for.
	Project *project.Project
	// ProjectDir is the canonical absolute project directory.
	ProjectDir string
	// Rules holds the effective rules after pattern selection and
	// filtering, sorted by path.
	Rules []rule.Rule
	// Unmatched lists rule patterns that selected no files.
	Unmatched []string
	// Formats holds the per-format portions of the plan, in the order
	// the project requested them.
	Formats []FormatPlan
}

// FormatPlan is the portion of a [Plan] produced by one output format.
type FormatPlan struct {
	Format  *format.Format
	Name    string
	Intents []format.WriteIntent
}

// Intents returns every write intent in the plan, in format order.
func (p *Plan) Intents() []format.WriteIntent {
	var intents []format.WriteIntent
	for _, fp := range p.Formats {
		intents = append(intents, fp.Intents...)
	}

	return intents
}

// Plan loads rules, applies the project's filter, and plans every format
// the project requests. The returned plan carries one intent per file
// that sync would write.
func (p *Planner) Plan(proj *project.Project) (*Plan, error) {
	err := proj.Build()
	if err != nil {
		return nil, fmt.Errorf("build project: %w", err)
	}

	projectDir, err := proj.AbsPath()
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}

	res, err := rule.Load(p.sourceDir, proj.Rules)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	rules, err := proj.FilterRules(res.Rules)
	if err != nil {
		return nil, fmt.Errorf("filter rules: %w", err)
	}

	if len(proj.Formats) == 0 {
		return nil, fmt.Errorf("%w: project %q requests no output formats", format.ErrUnknownFormat, proj.Path)
	}

	plan := &Plan{
		Project:    proj,
		ProjectDir: projectDir,
		Rules:      rules,
		Unmatched:  res.Unmatched,
	}

	for _, name := range proj.Formats {
		f, err := format.Get(p.formats, name)
		if err != nil {
			return nil, err
		}

		plan.Formats = append(plan.Formats, FormatPlan{
			Name:    name,
			Format:  f,
			Intents: f.Planner().Plan(projectDir, rules),
		})
	}

	return plan, nil
}
