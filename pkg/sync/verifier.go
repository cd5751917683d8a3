package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/rat/pkg/format"
	"github.com/macropower/rat/pkg/log"
	"github.com/macropower/rat/pkg/project"
)

// IssueKind classifies a divergence found by [Verifier.Verify].
type IssueKind string

const (
	// IssueMissing marks a planned file that does not exist or cannot be
	// read.
	IssueMissing IssueKind = "missing"
	// IssueModified marks a planned file whose content differs from the
	// plan.
	IssueModified IssueKind = "modified"
	// IssueExtra marks a file inside a managed output directory that the
	// plan does not produce.
	IssueExtra IssueKind = "extra"
)

// Issue is a single divergence between the plan and the filesystem.
type Issue struct {
	Kind IssueKind
	Path string
	// Diff holds a unified diff for modified files when diffs are
	// enabled.
	Diff string
}

// VerifyResult lists every divergence found for one project.
type VerifyResult struct {
	Project string
	Issues  []Issue
}

// Synced reports whether the project matches its plan exactly.
func (r *VerifyResult) Synced() bool {
	return len(r.Issues) == 0
}

// Verifier replays plans against the filesystem without writing anything.
type Verifier struct {
	planner  *Planner
	tracer   trace.Tracer
	withDiff bool
}

// VerifierOpt is an option that configures a [Verifier].
type VerifierOpt func(*Verifier)

// NewVerifier creates a [Verifier] around the given planner.
func NewVerifier(planner *Planner, opts ...VerifierOpt) *Verifier {
	v := &Verifier{
		planner: planner,
		tracer:  otel.Tracer("verifier"),
	}
	for _, opt := range opts {
		opt(v)
	}

	return v
}

// WithDiff attaches a unified diff to every modified issue.
func WithDiff(withDiff bool) VerifierOpt {
	return func(v *Verifier) {
		v.withDiff = withDiff
	}
}

// Verify re-derives the project's plan and compares it to the files on
// disk. Planned files that are unreadable are reported missing, files
// whose normalized content diverges are reported modified, and files
// inside multi-file output directories that the plan does not produce
// are reported extra.
func (v *Verifier) Verify(ctx context.Context, proj *project.Project) (*VerifyResult, error) {
	ctx, span := v.tracer.Start(ctx, "verify", trace.WithAttributes(
		attribute.String("project", proj.Path),
	))
	defer span.End()

	plan, err := v.planner.Plan(proj)
	if err != nil {
		return nil, fmt.Errorf("plan %q: %w", proj.Path, err)
	}

	expected := make(map[string]struct{})
	for _, intent := range plan.Intents() {
		expected[intent.Path] = struct{}{}
	}

	res := &VerifyResult{Project: plan.ProjectDir}

	for _, fp := range plan.Formats {
		for _, intent := range fp.Intents {
			issue, ok := v.check(intent)
			if ok {
				res.Issues = append(res.Issues, issue)
			}
		}
	}

	// Extra files are only meaningful inside directories that sync owns,
	// i.e. multi-file output directories. Single-file targets live next
	// to unrelated project files.
	seen := make(map[string]struct{})
	for _, fp := range plan.Formats {
		if fp.Format.MultiFile == nil {
			continue
		}

		dir := fp.Format.MultiFile.OutputDir(plan.ProjectDir)
		if _, ok := seen[dir]; ok {
			continue
		}

		seen[dir] = struct{}{}

		extras, err := findExtras(dir, expected)
		if err != nil {
			return nil, fmt.Errorf("scan %q: %w", dir, err)
		}

		for _, path := range extras {
			res.Issues = append(res.Issues, Issue{Kind: IssueExtra, Path: path})
		}
	}

	log.WithContext(ctx).DebugContext(ctx, "verified project",
		slog.String("project", plan.ProjectDir),
		slog.Int("issues", len(res.Issues)),
	)

	return res, nil
}

// VerifyAll verifies every project in order, stopping at the first
// operational failure. Drift is reported in the results, not as an
// error.
func (v *Verifier) VerifyAll(ctx context.Context, projects []*project.Project) ([]*VerifyResult, error) {
	results := make([]*VerifyResult, 0, len(projects))
	for _, proj := range projects {
		res, err := v.Verify(ctx, proj)
		if err != nil {
			return results, err
		}

		results = append(results, res)
	}

	return results, nil
}

func (v *Verifier) check(intent format.WriteIntent) (Issue, bool) {
	data, err := os.ReadFile(intent.Path)
	if err != nil {
		return Issue{Kind: IssueMissing, Path: intent.Path}, true
	}

	if Normalize(intent.Content) == Normalize(string(data)) {
		return Issue{}, false
	}

	issue := Issue{Kind: IssueModified, Path: intent.Path}
	if v.withDiff {
		issue.Diff = udiff.Unified("expected", "actual", intent.Content, string(data))
	}

	return issue, true
}

// Normalize prepares document content for drift comparison. Line endings
// are unified to LF, trailing whitespace is stripped from every line,
// and blank lines at the start and end of the document are dropped.
// Leading indentation is preserved, it can be significant inside code
// blocks.
func Normalize(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}

	start := 0
	for start < len(lines) && lines[start] == "" {
		start++
	}

	end := len(lines)
	for end > start && lines[end-1] == "" {
		end--
	}

	return strings.Join(lines[start:end], "\n")
}

func findExtras(dir string, expected map[string]struct{}) ([]string, error) {
	var extras []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if _, ok := expected[path]; !ok {
			extras = append(extras, path)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// A directory that was never created has nothing extra in it.
			return nil, nil
		}

		return nil, err
	}

	slices.Sort(extras)

	return extras, nil
}
