// Package launch starts downstream tools with their rule files up to date.
//
// A launch verifies the target project first. Drift is either synchronized
// (forced or confirmed interactively) or acknowledged before the format's
// configured tool takes over the terminal. The launcher never touches rule
// paths or content itself.
package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/rat/pkg/execs"
	"github.com/macropower/rat/pkg/format"
	"github.com/macropower/rat/pkg/log"
	"github.com/macropower/rat/pkg/project"
	"github.com/macropower/rat/pkg/sync"
)

var (
	// ErrNoLaunchCommand indicates a format with no launch command configured.
	ErrNoLaunchCommand = errors.New("no launch command for format")

	// ErrOutOfSync indicates drift that was not resolved before launching.
	ErrOutOfSync = errors.New("project out of sync")
)

// Launcher verifies a project, optionally brings it up to date, and hands
// the terminal to a format's downstream tool.
type Launcher struct {
	planner   *sync.Planner
	formats   map[string]*format.Format
	confirm   Confirmer
	tracer    trace.Tracer
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	forceSync bool
}

// Opt is an option that configures a [Launcher].
type Opt func(*Launcher)

// New creates a [Launcher] around the given planner and format registry.
func New(planner *sync.Planner, formats map[string]*format.Format, opts ...Opt) *Launcher {
	l := &Launcher{
		planner: planner,
		formats: formats,
		confirm: TermConfirm,
		tracer:  otel.Tracer("launcher"),
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// WithForceSync synchronizes drifted projects without prompting.
func WithForceSync(force bool) Opt {
	return func(l *Launcher) {
		l.forceSync = force
	}
}

// WithConfirmer sets the prompt used when drift is found.
func WithConfirmer(c Confirmer) Opt {
	return func(l *Launcher) {
		l.confirm = c
	}
}

// WithStdio connects the launched tool to the given streams.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Opt {
	return func(l *Launcher) {
		l.stdin = stdin
		l.stdout = stdout
		l.stderr = stderr
	}
}

// Launch verifies the project, resolves any drift, then runs the named
// format's launch command in the project directory with extraArgs appended.
// It blocks until the tool exits.
func (l *Launcher) Launch(ctx context.Context, proj *project.Project, name string, extraArgs ...string) error {
	ctx, span := l.tracer.Start(ctx, "launch", trace.WithAttributes(
		attribute.String("project", proj.Path),
		attribute.String("format", name),
	))
	defer span.End()

	f, err := format.Get(l.formats, name)
	if err != nil {
		//nolint:wrapcheck // Error already names the format.
		return err
	}

	if f.Launch == nil {
		return fmt.Errorf("%w: %q", ErrNoLaunchCommand, name)
	}

	verifier := sync.NewVerifier(l.planner)

	res, err := verifier.Verify(ctx, proj)
	if err != nil {
		return fmt.Errorf("verify %q: %w", proj.Path, err)
	}

	if !res.Synced() {
		err = l.resolveDrift(ctx, proj, res)
		if err != nil {
			return err
		}
	}

	executor := execs.NewExecutor(*f.Launch, extraArgs...)

	log.WithContext(ctx).InfoContext(ctx, "launching",
		slog.String("command", executor.String()),
		slog.String("project", res.Project),
	)

	err = executor.ExecAttached(ctx, res.Project, l.stdin, l.stdout, l.stderr)
	if err != nil {
		return fmt.Errorf("launch %q: %w", name, err)
	}

	return nil
}

// resolveDrift decides what happens to a drifted project before launch.
// Force-synced launches sync immediately; otherwise the confirmer is asked,
// and a declined prompt launches with the drift left in place.
func (l *Launcher) resolveDrift(ctx context.Context, proj *project.Project, res *sync.VerifyResult) error {
	logger := log.WithContext(ctx)

	syncFirst := l.forceSync
	if !syncFirst {
		var err error

		syncFirst, err = l.confirm(ctx, res)
		if err != nil {
			return fmt.Errorf("%w: %d files differ: %w", ErrOutOfSync, len(res.Issues), err)
		}
	}

	if !syncFirst {
		logger.WarnContext(ctx, "launching with unsynced rules",
			slog.String("project", res.Project),
			slog.Int("issues", len(res.Issues)),
		)

		return nil
	}

	syncer := sync.NewSyncer(l.planner, sync.WithSyncOutput(l.stderr))

	sres, err := syncer.Sync(ctx, proj)
	if err != nil {
		return fmt.Errorf("sync %q: %w", proj.Path, err)
	}

	logger.InfoContext(ctx, "synced before launch",
		slog.String("project", sres.Project),
		slog.Int("files", len(sres.Written)),
	)

	return nil
}
