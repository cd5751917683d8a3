package sync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/rat/pkg/guard"
	"github.com/macropower/rat/pkg/log"
	"github.com/macropower/rat/pkg/project"
)

// Syncer runs the plan, validate, and write pipeline for projects.
type Syncer struct {
	planner *Planner
	tracer  trace.Tracer
	out     io.Writer
	dryRun  bool
	verbose bool
}

// SyncerOpt is an option that configures a [Syncer].
type SyncerOpt func(*Syncer)

// NewSyncer creates a [Syncer] around the given planner.
func NewSyncer(planner *Planner, opts ...SyncerOpt) *Syncer {
	s := &Syncer{
		planner: planner,
		tracer:  otel.Tracer("syncer"),
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithSyncDryRun plans and validates but skips hooks and writes.
func WithSyncDryRun(dryRun bool) SyncerOpt {
	return func(s *Syncer) {
		s.dryRun = dryRun
	}
}

// WithSyncVerbose emits one line per written file to the output writer.
func WithSyncVerbose(verbose bool) SyncerOpt {
	return func(s *Syncer) {
		s.verbose = verbose
	}
}

// WithSyncOutput sets the writer used for verbose execution lines.
func WithSyncOutput(w io.Writer) SyncerOpt {
	return func(s *Syncer) {
		s.out = w
	}
}

// Result summarizes one project sync.
type Result struct {
	// Project is the canonical project directory that was synced.
	Project string
	// Written lists the file paths written, in plan order. In dry-run
	// mode these are the paths that would have been written.
	Written []string
	// Unmatched lists rule patterns that selected no files.
	Unmatched []string
	// DryRun reports whether the filesystem was left untouched.
	DryRun bool
}

// Sync plans and applies all output formats for one project.
//
// All planned paths are validated against the project directory before
// any hook runs or any file is written. Dry-run skips hooks as well as
// writes.
func (s *Syncer) Sync(ctx context.Context, proj *project.Project) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "sync", trace.WithAttributes(
		attribute.String("project", proj.Path),
		attribute.Bool("dryRun", s.dryRun),
	))
	defer span.End()

	logger := log.WithContext(ctx)

	plan, err := s.planner.Plan(proj)
	if err != nil {
		return nil, fmt.Errorf("plan %q: %w", proj.Path, err)
	}

	for _, pattern := range plan.Unmatched {
		logger.WarnContext(ctx, "pattern matched no rules",
			slog.String("pattern", pattern),
			slog.String("project", plan.ProjectDir),
		)
	}

	rootsGuard, err := guard.New(plan.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("guard %q: %w", plan.ProjectDir, err)
	}

	intents := plan.Intents()

	paths := make([]string, 0, len(intents))
	for i, intent := range intents {
		path, err := rootsGuard.Validate(intent.Path)
		if err != nil {
			return nil, fmt.Errorf("validate %q: %w", intent.Path, err)
		}

		intents[i].Path = path
		paths = append(paths, path)
	}

	if !s.dryRun && proj.Hooks != nil {
		err := proj.Hooks.ExecPreSync(ctx, plan.ProjectDir)
		if err != nil {
			return nil, fmt.Errorf("pre-sync: %w", err)
		}
	}

	written := []string{}
	if len(intents) > 0 {
		// The executor gets an exact guard frozen to the validated
		// plan, so nothing outside it can be written even if an intent
		// were mutated in between.
		exactGuard, err := guard.NewExact(paths...)
		if err != nil {
			return nil, fmt.Errorf("guard plan: %w", err)
		}

		exec := NewExecutor(exactGuard,
			WithDryRun(s.dryRun),
			WithVerbose(s.verbose),
			WithOutput(s.out),
		)

		written, err = exec.Execute(ctx, intents)
		if err != nil {
			return nil, fmt.Errorf("execute %q: %w", plan.ProjectDir, err)
		}
	}

	if !s.dryRun && proj.Hooks != nil {
		err := proj.Hooks.ExecPostSync(ctx, plan.ProjectDir)
		if err != nil {
			return nil, fmt.Errorf("post-sync: %w", err)
		}
	}

	logger.DebugContext(ctx, "synced project",
		slog.String("project", plan.ProjectDir),
		slog.Int("rules", len(plan.Rules)),
		slog.Int("written", len(written)),
		slog.Bool("dryRun", s.dryRun),
	)

	return &Result{
		Project:   plan.ProjectDir,
		Written:   written,
		Unmatched: plan.Unmatched,
		DryRun:    s.dryRun,
	}, nil
}

// SyncAll syncs every project in order, stopping at the first failure.
func (s *Syncer) SyncAll(ctx context.Context, projects []*project.Project) ([]*Result, error) {
	results := make([]*Result, 0, len(projects))
	for _, proj := range projects {
		res, err := s.Sync(ctx, proj)
		if err != nil {
			return results, err
		}

		results = append(results, res)
	}

	return results, nil
}
