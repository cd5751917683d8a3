// Package format renders loaded rules into downstream tool representations.
//
// Each format is one of a closed set of variants (single-file or multi-file)
// plus an optional launch command for the tool it serves. Planners are pure:
// they describe writes as [WriteIntent] values and never touch the
// filesystem themselves.
package format

import (
	"errors"
	"fmt"
	"os"

	"github.com/macropower/rat/pkg/execs"
	"github.com/macropower/rat/pkg/rule"
)

var (
	// ErrUnknownFormat indicates a format name with no configured entry.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrInvalidFormat indicates a format whose configuration is not usable.
	ErrInvalidFormat = errors.New("invalid format")
)

// WriteIntent is a planned, not-yet-applied file write. Path is absolute and
// normalized; Content is the exact UTF-8 payload to write.
type WriteIntent struct {
	Path    string
	Content string
}

// Planner computes the write intents that render a rule set into a project.
type Planner interface {
	Plan(projectPath string, rules []rule.Rule) []WriteIntent
}

// Format is one downstream tool's on-disk representation of the rule set.
// Exactly one of SingleFile or MultiFile must be set.
type Format struct {
	// SingleFile renders all rules into one concatenated document.
	SingleFile *SingleFile `json:"singleFile,omitempty" jsonschema:"title=Single File Output"`

	// MultiFile renders each rule as its own file under an output directory.
	MultiFile *MultiFile `json:"multiFile,omitempty" jsonschema:"title=Multi File Output"`

	// Launch optionally names the downstream tool command this format feeds,
	// used by `rat launch`.
	Launch *execs.Command `json:"launch,omitempty" jsonschema:"title=Launch Command"`
}

// New creates a [Format] with the given options.
func New(opts ...Opt) (*Format, error) {
	f := &Format{}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.Build(); err != nil {
		return nil, err
	}

	return f, nil
}

// MustNew creates a [Format] and panics on error.
func MustNew(opts ...Opt) *Format {
	f, err := New(opts...)
	if err != nil {
		panic(err)
	}

	return f
}

// Opt is a functional option for configuring a [Format].
type Opt func(*Format)

// WithSingleFile sets the single-file variant.
func WithSingleFile(sf *SingleFile) Opt {
	return func(f *Format) {
		f.SingleFile = sf
	}
}

// WithMultiFile sets the multi-file variant.
func WithMultiFile(mf *MultiFile) Opt {
	return func(f *Format) {
		f.MultiFile = mf
	}
}

// WithLaunch sets the launch command.
func WithLaunch(cmd *execs.Command) Opt {
	return func(f *Format) {
		f.Launch = cmd
	}
}

// Build validates the variant selection and prepares the chosen planner.
func (f *Format) Build() error {
	switch {
	case f.SingleFile != nil && f.MultiFile != nil:
		return fmt.Errorf("%w: singleFile and multiFile are mutually exclusive", ErrInvalidFormat)

	case f.SingleFile != nil:
		if err := f.SingleFile.Build(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
		}

	case f.MultiFile != nil:
		if err := f.MultiFile.Build(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
		}

	default:
		return fmt.Errorf("%w: one of singleFile or multiFile must be set", ErrInvalidFormat)
	}

	if f.Launch != nil {
		f.Launch.SetBaseEnv(os.Environ())
		if err := f.Launch.CompilePatterns(); err != nil {
			return fmt.Errorf("%w: launch: %w", ErrInvalidFormat, err)
		}
	}

	return nil
}

// Planner returns the configured variant's planner. Build must have
// succeeded first.
//
//nolint:ireturn // Variant dispatch intentionally returns the interface.
func (f *Format) Planner() Planner {
	if f.SingleFile != nil {
		return f.SingleFile
	}

	return f.MultiFile
}

// Get looks up a named format in the registry.
func Get(formats map[string]*Format, name string) (*Format, error) {
	f, ok := formats[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}

	return f, nil
}

// DefaultFormats returns the built-in format registry. Entries can be
// overridden or extended by configuration.
func DefaultFormats() map[string]*Format {
	return map[string]*Format{
		"claude": MustNew(
			WithSingleFile(&SingleFile{Path: "CLAUDE.md", Title: "Claude Code instructions"}),
			WithLaunch(&execs.Command{Command: "claude"}),
		),
		"agents": MustNew(
			WithSingleFile(&SingleFile{Path: "AGENTS.md", Title: "Agent instructions"}),
		),
		"cursor": MustNew(
			WithMultiFile(&MultiFile{Dir: ".cursor/rules"}),
		),
		"copilot": MustNew(
			WithMultiFile(&MultiFile{Dir: ".github/instructions", Flatten: true}),
		),
	}
}
