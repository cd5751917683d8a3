package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/rat/pkg/format"
	"github.com/macropower/rat/pkg/guard"
)

// ErrWrite indicates a failed filesystem mutation.
var ErrWrite = errors.New("write")

// Executor applies write intents to the filesystem.
//
// Every intent path is validated against the executor's guard before any
// I/O happens, so a single bad path aborts the whole batch with nothing
// written. Execution is fail-fast: the first filesystem error stops the
// run and is surfaced with the action and path that failed.
type Executor struct {
	guard   *guard.Guard
	tracer  trace.Tracer
	out     io.Writer
	dryRun  bool
	verbose bool
}

// ExecutorOpt is an option that configures an [Executor].
type ExecutorOpt func(*Executor)

// NewExecutor creates an [Executor] whose writes are confined by g.
func NewExecutor(g *guard.Guard, opts ...ExecutorOpt) *Executor {
	e := &Executor{
		guard:  g,
		tracer: otel.Tracer("executor"),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// WithDryRun makes the executor report intents without touching the
// filesystem.
func WithDryRun(dryRun bool) ExecutorOpt {
	return func(e *Executor) {
		e.dryRun = dryRun
	}
}

// WithVerbose makes the executor emit one line per intent to its output
// writer.
func WithVerbose(verbose bool) ExecutorOpt {
	return func(e *Executor) {
		e.verbose = verbose
	}
}

// WithOutput sets the writer that verbose lines are emitted to.
func WithOutput(w io.Writer) ExecutorOpt {
	return func(e *Executor) {
		e.out = w
	}
}

// Execute validates and applies the given intents, returning the paths
// written in order. In dry-run mode it returns the paths that would have
// been written.
//
// Validation covers the entire batch before the first write, so any
// guard violation means no file was touched.
func (e *Executor) Execute(ctx context.Context, intents []format.WriteIntent) ([]string, error) {
	_, span := e.tracer.Start(ctx, "execute", trace.WithAttributes(
		attribute.Int("intents", len(intents)),
		attribute.Bool("dryRun", e.dryRun),
	))
	defer span.End()

	validated := make([]format.WriteIntent, 0, len(intents))
	for _, intent := range intents {
		path, err := e.guard.Validate(intent.Path)
		if err != nil {
			return nil, fmt.Errorf("validate %q: %w", intent.Path, err)
		}

		validated = append(validated, format.WriteIntent{Path: path, Content: intent.Content})
	}

	written := make([]string, 0, len(validated))
	for _, intent := range validated {
		if e.dryRun {
			e.printf("[Dry-run] [Write] %s", intent.Path)
			written = append(written, intent.Path)

			continue
		}

		e.printf("Writing to: %s", intent.Path)

		dir := filepath.Dir(intent.Path)

		err := os.MkdirAll(dir, 0o755)
		if err != nil {
			return nil, fmt.Errorf("%w: create directory %q: %w", ErrWrite, dir, err)
		}

		err = os.WriteFile(intent.Path, []byte(intent.Content), 0o644)
		if err != nil {
			return nil, fmt.Errorf("%w: write file %q: %w", ErrWrite, intent.Path, err)
		}

		written = append(written, intent.Path)
	}

	return written, nil
}

func (e *Executor) printf(format string, args ...any) {
	if !e.verbose {
		return
	}

	fmt.Fprintf(e.out, format+"\n", args...)
}
