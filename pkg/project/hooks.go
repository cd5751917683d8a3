package project

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/macropower/rat/pkg/execs"
)

// ErrHookExecution is returned when hook execution fails.
var ErrHookExecution = errors.New("hook")

// Hooks lists shell-style command lines run around sync operations. Lines
// are split with shellwords, not a shell: quoting works, pipes and
// expansions do not. Commands run in the project directory.
type Hooks struct {
	// PreSync commands run before any file is written. A failure aborts the
	// project's sync.
	PreSync []string `json:"preSync,omitempty" jsonschema:"title=Pre-Sync Commands"`

	// PostSync commands run after all files are written. A failure fails the
	// sync after the writes.
	PostSync []string `json:"postSync,omitempty" jsonschema:"title=Post-Sync Commands"`

	preSync  []execs.Command
	postSync []execs.Command
}

// NewHooks creates a new [Hooks] instance with the given options.
func NewHooks(opts ...HookOpt) (*Hooks, error) {
	h := &Hooks{}
	for _, opt := range opts {
		opt(h)
	}
	if err := h.Build(); err != nil {
		return nil, fmt.Errorf("build hooks: %w", err)
	}

	return h, nil
}

// MustNewHooks creates a new [Hooks] instance and panics if there's an error.
func MustNewHooks(opts ...HookOpt) *Hooks {
	h, err := NewHooks(opts...)
	if err != nil {
		panic(err)
	}

	return h
}

// HookOpt is a functional option for configuring [Hooks].
type HookOpt func(*Hooks)

// WithPreSync adds pre-sync command lines.
func WithPreSync(lines ...string) HookOpt {
	return func(h *Hooks) {
		h.PreSync = append(h.PreSync, lines...)
	}
}

// WithPostSync adds post-sync command lines.
func WithPostSync(lines ...string) HookOpt {
	return func(h *Hooks) {
		h.PostSync = append(h.PostSync, lines...)
	}
}

// Build parses every hook line into an executable command.
func (h *Hooks) Build() error {
	pre, err := compileHooks(h.PreSync)
	if err != nil {
		return fmt.Errorf("preSync: %w", err)
	}

	post, err := compileHooks(h.PostSync)
	if err != nil {
		return fmt.Errorf("postSync: %w", err)
	}

	h.preSync, h.postSync = pre, post

	return nil
}

// ExecPreSync runs every pre-sync hook in order, stopping at the first
// failure.
func (h *Hooks) ExecPreSync(ctx context.Context, dir string) error {
	return execHooks(ctx, dir, h.preSync)
}

// ExecPostSync runs every post-sync hook in order, stopping at the first
// failure.
func (h *Hooks) ExecPostSync(ctx context.Context, dir string) error {
	return execHooks(ctx, dir, h.postSync)
}

func compileHooks(lines []string) ([]execs.Command, error) {
	cmds := make([]execs.Command, 0, len(lines))
	for _, line := range lines {
		words, err := shellwords.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", line, err)
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("%q: %w", line, execs.ErrEmptyCommand)
		}

		cmd := execs.Command{Command: words[0], Args: words[1:]}
		cmd.SetBaseEnv(os.Environ())
		cmds = append(cmds, cmd)
	}

	return cmds, nil
}

func execHooks(ctx context.Context, dir string, cmds []execs.Command) error {
	for _, cmd := range cmds {
		result, err := cmd.Exec(ctx, dir)
		if err != nil {
			if result != nil && result.Stderr != "" {
				return fmt.Errorf("%w %q: %w: %s",
					ErrHookExecution, cmd.String(), err, strings.TrimSpace(result.Stderr))
			}

			return fmt.Errorf("%w %q: %w", ErrHookExecution, cmd.String(), err)
		}
	}

	return nil
}
