package format

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/macropower/rat/pkg/rule"
)

const (
	// GuidanceLine is the fixed instruction block written after the title of
	// every non-empty single-file document.
	GuidanceLine = "To modify rules, edit the source .md files and run sync to regenerate."

	// PlaceholderLine is written when no rules apply to the document.
	PlaceholderLine = "No rules configured."

	// RuleSeparator joins trimmed rule bodies in single-file documents.
	RuleSeparator = "\n\n---\n\n"

	defaultTitle = "Rules"
)

// SingleFile renders every rule into one concatenated Markdown document at a
// fixed path under the project root.
type SingleFile struct {
	// Path is the output file, relative to the project root.
	Path string `json:"path" jsonschema:"title=Output Path"`

	// Title becomes the document's top-level heading.
	Title string `json:"title,omitempty" jsonschema:"title=Document Title"`

	// Ignore drops rules whose relative path matches any of these globs.
	Ignore []string `json:"ignore,omitempty" jsonschema:"title=Ignore Patterns"`
}

// Build validates the configuration and applies defaults.
func (f *SingleFile) Build() error {
	if f.Path == "" {
		return fmt.Errorf("singleFile: path is required")
	}
	if f.Title == "" {
		f.Title = defaultTitle
	}
	for _, pattern := range f.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("singleFile: %w: %q", rule.ErrInvalidPattern, pattern)
		}
	}

	return nil
}

// Plan renders the rules into exactly one [WriteIntent]. The document always
// exists and is always valid Markdown: an empty effective rule set produces
// the placeholder body instead of an empty file.
func (f *SingleFile) Plan(projectPath string, rules []rule.Rule) []WriteIntent {
	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(f.Title)
	sb.WriteString("\n\n")

	kept := f.keep(rules)
	if len(kept) == 0 {
		sb.WriteString(PlaceholderLine)
		sb.WriteString("\n")
	} else {
		sb.WriteString(GuidanceLine)
		sb.WriteString("\n\n")

		bodies := make([]string, 0, len(kept))
		for _, r := range kept {
			bodies = append(bodies, strings.TrimSpace(r.Content))
		}

		sb.WriteString(strings.Join(bodies, RuleSeparator))
		sb.WriteString("\n")
	}

	return []WriteIntent{{
		Path:    filepath.Join(projectPath, filepath.FromSlash(f.Path)),
		Content: sb.String(),
	}}
}

// keep filters out rules matching any ignore glob. Patterns are validated in
// Build, so match errors cannot occur here.
func (f *SingleFile) keep(rules []rule.Rule) []rule.Rule {
	if len(f.Ignore) == 0 {
		return rules
	}

	kept := make([]rule.Rule, 0, len(rules))
	for _, r := range rules {
		ignored := false
		for _, pattern := range f.Ignore {
			if ok, _ := doublestar.Match(pattern, r.Path); ok {
				ignored = true

				break
			}
		}

		if !ignored {
			kept = append(kept, r)
		}
	}

	return kept
}
