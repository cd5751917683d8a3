package format

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/macropower/rat/pkg/rule"
)

// MultiFile renders each rule byte-for-byte as its own file under an output
// directory inside the project.
type MultiFile struct {
	// Dir is the output directory, relative to the project root.
	Dir string `json:"dir" jsonschema:"title=Output Directory"`

	// Flatten joins nested rule paths with `-` so the output directory has
	// no subdirectories.
	Flatten bool `json:"flatten,omitempty" jsonschema:"title=Flatten Paths"`
}

// Build validates the configuration.
func (f *MultiFile) Build() error {
	if f.Dir == "" {
		return fmt.Errorf("multiFile: dir is required")
	}

	return nil
}

// Plan emits one [WriteIntent] per rule at `<projectPath>/<Dir>/<rule.Path>`
// with content unchanged. Zero rules yield zero intents; directory creation
// is the executor's concern, never planned explicitly.
func (f *MultiFile) Plan(projectPath string, rules []rule.Rule) []WriteIntent {
	intents := make([]WriteIntent, 0, len(rules))
	for _, r := range rules {
		rel := r.Path
		if f.Flatten {
			rel = strings.ReplaceAll(rel, "/", "-")
		}

		intents = append(intents, WriteIntent{
			Path:    filepath.Join(projectPath, filepath.FromSlash(f.Dir), filepath.FromSlash(rel)),
			Content: r.Content,
		})
	}

	return intents
}

// OutputDir returns the absolute output directory for a project.
func (f *MultiFile) OutputDir(projectPath string) string {
	return filepath.Join(projectPath, filepath.FromSlash(f.Dir))
}
