package execs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/rat/pkg/log"
)

// Executor runs one [Command] with optional extra arguments appended.
// Hook runners create one per configured hook command.
type Executor struct {
	tracer    trace.Tracer
	cmd       Command
	extraArgs []string
}

func NewExecutor(cmd Command, args ...string) Executor {
	return Executor{
		tracer:    otel.Tracer("executor"),
		cmd:       cmd,
		extraArgs: args,
	}
}

// Exec runs the command in dir with no input, capturing its output.
func (e Executor) Exec(ctx context.Context, dir string) (*Result, error) {
	return e.ExecWithStdin(ctx, dir, nil)
}

// ExecWithStdin runs the command in dir, feeding stdin and capturing
// output. On failure the captured output is still returned when there is
// any, so hook errors can show what the command printed.
func (e Executor) ExecWithStdin(ctx context.Context, dir string, stdin []byte) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "exec", trace.WithAttributes(
		attribute.String("command", e.String()),
		attribute.String("path", dir),
	))
	defer span.End()

	if e.cmd.Command == "" {
		return nil, ErrEmptyCommand
	}

	logger := log.WithContext(ctx).With(
		slog.String("command", e.String()),
		slog.String("path", dir),
	)
	start := time.Now()

	var stdout, stderr bytes.Buffer

	cmd := e.newCmd(ctx, dir)
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		logger.DebugContext(ctx, "command failed",
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err),
		)

		if stdout.Len() == 0 && stderr.Len() == 0 {
			return nil, fmt.Errorf("%w: %w", ErrCommandExecution, err)
		}

		result := &Result{
			Stdout: stdout.String(),
			Stderr: stderr.String(),
		}

		return result, fmt.Errorf("%w: %w", ErrCommandExecution, err)
	}

	logger.DebugContext(ctx, "command executed successfully",
		slog.Duration("duration", time.Since(start)),
	)

	return &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}, nil
}

// ExecAttached runs the command connected to the given standard streams,
// for handing the terminal to an interactive downstream tool. Unlike
// [Executor.Exec], output is not captured.
func (e Executor) ExecAttached(ctx context.Context, dir string, stdin io.Reader, stdout, stderr io.Writer) error {
	ctx, span := e.tracer.Start(ctx, "exec attached", trace.WithAttributes(
		attribute.String("command", e.String()),
		attribute.String("path", dir),
	))
	defer span.End()

	if e.cmd.Command == "" {
		return ErrEmptyCommand
	}

	logger := log.WithContext(ctx).With(
		slog.String("command", e.String()),
		slog.String("path", dir),
	)
	start := time.Now()

	cmd := e.newCmd(ctx, dir)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if err != nil {
		logger.DebugContext(ctx, "command failed",
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err),
		)

		return fmt.Errorf("%w: %w", ErrCommandExecution, err)
	}

	logger.DebugContext(ctx, "command executed successfully",
		slog.Duration("duration", time.Since(start)),
	)

	return nil
}

func (e Executor) String() string {
	return fmt.Sprintf("%s %s", e.cmd.Command, strings.Join(e.allArgs(), " "))
}

func (e Executor) newCmd(ctx context.Context, dir string) *exec.Cmd {
	//nolint:gosec // G204: Subprocess launched with a potential tainted input or cmd arguments.
	cmd := exec.CommandContext(ctx, e.cmd.Command, e.allArgs()...)
	cmd.Dir = dir
	cmd.Env = e.cmd.GetEnv()

	return cmd
}

func (e Executor) allArgs() []string {
	return slices.Concat(e.cmd.Args, e.extraArgs)
}
