package execs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
)

var (
	// ErrCommandExecution is returned when command execution fails.
	ErrCommandExecution = errors.New("run")

	// ErrEmptyCommand is returned when a command is empty.
	ErrEmptyCommand = errors.New("empty command")
)

// essentialEnv always passes through to child processes, so launched tools
// can locate binaries and render color without any env configuration.
var essentialEnv = []string{"PATH", "HOME", "USER", "TERM", "COLORTERM"}

// Result holds the captured output of a completed command.
type Result struct {
	Stdout string
	Stderr string
}

// Command runs a configured external program, such as the downstream tool a
// format launches. The child environment is built from scratch: the
// essential variables pass through, everything else must be admitted
// explicitly with Env or EnvFrom.
type Command struct {
	baseEnv map[string]string
	// Command is the executable to run.
	Command string `json:"command" jsonschema:"title=Command,pattern=^\\S+$"`
	// Args lists arguments passed to the command.
	Args []string `json:"args,omitempty" jsonschema:"title=Arguments" yaml:"args,flow,omitempty"`
	// Env sets environment variables on the command.
	Env []EnvVar `json:"env,omitempty" jsonschema:"title=Environment Variables"`
	// EnvFrom admits groups of environment variables from the calling
	// process.
	EnvFrom []EnvFromSource `json:"envFrom,omitempty" jsonschema:"title=Environment Variables From"`
}

// EnvVar sets a single environment variable.
type EnvVar struct {
	// ValueFrom sources the value instead of Value.
	ValueFrom *EnvVarSource `json:"valueFrom,omitempty" jsonschema:"title=Value From"`
	// Name is the environment variable name.
	Name string `json:"name" jsonschema:"title=Name"`
	// Value is the literal value.
	Value string `json:"value,omitempty" jsonschema:"title=Value"`
}

// EnvVarSource selects where an environment variable value comes from.
type EnvVarSource struct {
	// CallerRef copies the value from a variable already admitted into the
	// command environment.
	CallerRef *CallerRef `json:"callerRef,omitempty" jsonschema:"title=Caller Reference"`
}

// EnvFromSource selects environment variables to inherit as a group.
type EnvFromSource struct {
	// CallerRef selects variables from the calling process environment.
	CallerRef *CallerRef `json:"callerRef,omitempty" jsonschema:"title=Caller Reference"`
}

// CallerRef names variables on the calling process, either one exact Name or
// every name matching Pattern.
type CallerRef struct {
	compiledPattern *regexp.Regexp

	// Pattern is a regex matched against environment variable names.
	Pattern string `json:"pattern,omitempty" jsonschema:"title=Pattern,format=regex"`
	// Name is a single environment variable name.
	Name string `json:"name,omitempty" jsonschema:"title=Name"`
}

// Compile compiles the reference's pattern, if it has one.
func (c *CallerRef) Compile() error {
	if c.compiledPattern != nil || c.Pattern == "" {
		return nil
	}

	pattern, err := regexp.Compile(c.Pattern)
	if err != nil {
		return fmt.Errorf("compile pattern %q: %w", c.Pattern, err)
	}

	c.compiledPattern = pattern

	return nil
}

// NewCommand creates a [Command] whose caller environment is baseEnv,
// usually [os.Environ].
func NewCommand(baseEnv []string) Command {
	e := Command{
		Env:     []EnvVar{},
		EnvFrom: []EnvFromSource{},
	}
	e.SetBaseEnv(baseEnv)

	return e
}

// SetBaseEnv replaces the caller environment the command inherits from.
func (e *Command) SetBaseEnv(baseEnv []string) {
	e.baseEnv = make(map[string]string, len(baseEnv))
	for _, kv := range baseEnv {
		if key, value, ok := strings.Cut(kv, "="); ok {
			e.baseEnv[key] = value
		}
	}
}

// GetEnv constructs the child process environment: essential variables
// first, then EnvFrom inheritance, then Env entries.
func (e *Command) GetEnv() []string {
	envMap := make(map[string]string)

	for _, key := range essentialEnv {
		if value, ok := e.baseEnv[key]; ok {
			envMap[key] = value
		}
	}

	e.inheritCallerEnv(envMap)
	e.applyEnvVars(envMap)

	env := make([]string, 0, len(envMap))
	for key, value := range envMap {
		env = append(env, key+"="+value)
	}

	return env
}

// Exec runs the command in dir and captures its output.
func (e *Command) Exec(ctx context.Context, dir string) (*Result, error) {
	return e.ExecWithStdin(ctx, dir, nil)
}

// ExecWithStdin runs the command in dir with stdin attached to its standard
// input. On failure any captured output is returned alongside the error.
func (e *Command) ExecWithStdin(ctx context.Context, dir string, stdin []byte) (*Result, error) {
	if e.Command == "" {
		return nil, ErrEmptyCommand
	}

	//nolint:gosec // G204: Subprocess launched with a potential tainted input or cmd arguments.
	cmd := exec.CommandContext(ctx, e.Command, e.Args...)
	cmd.Dir = dir
	cmd.Env = e.GetEnv()
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		if stdout.Len() > 0 || stderr.Len() > 0 {
			return result, fmt.Errorf("%w: %w", ErrCommandExecution, err)
		}

		return nil, fmt.Errorf("%w: %w", ErrCommandExecution, err)
	}

	slog.DebugContext(ctx, "command executed", slog.String("command", e.String()))

	return result, nil
}

// CompilePatterns compiles every caller reference pattern the command
// carries, surfacing invalid regexes at build time instead of on launch.
func (e *Command) CompilePatterns() error {
	for i, envVar := range e.Env {
		if envVar.ValueFrom == nil || envVar.ValueFrom.CallerRef == nil {
			continue
		}

		err := envVar.ValueFrom.CallerRef.Compile()
		if err != nil {
			return fmt.Errorf("env[%d]: %w", i, err)
		}
	}

	for i, src := range e.EnvFrom {
		if src.CallerRef == nil {
			continue
		}

		err := src.CallerRef.Compile()
		if err != nil {
			return fmt.Errorf("envFrom[%d]: %w", i, err)
		}
	}

	return nil
}

func (e *Command) String() string {
	return fmt.Sprintf("%s %s", e.Command, strings.Join(e.Args, " "))
}

// inheritCallerEnv copies EnvFrom selections out of the caller environment.
func (e *Command) inheritCallerEnv(envMap map[string]string) {
	for _, src := range e.EnvFrom {
		if src.CallerRef == nil {
			continue
		}

		if pattern := src.CallerRef.compiledPattern; pattern != nil {
			for key, value := range e.baseEnv {
				if pattern.MatchString(key) {
					envMap[key] = value
				}
			}
		}

		if name := src.CallerRef.Name; name != "" {
			if value, ok := e.baseEnv[name]; ok {
				envMap[name] = value
			}
		}
	}
}

// applyEnvVars applies Env entries on top of the inherited environment. A
// caller reference here reads the environment constructed so far, so a
// variable must be essential or admitted by EnvFrom before it can be
// renamed.
func (e *Command) applyEnvVars(envMap map[string]string) {
	for _, envVar := range e.Env {
		if envVar.Name == "" {
			continue
		}

		if envVar.Value != "" {
			envMap[envVar.Name] = envVar.Value

			continue
		}

		ref := envVar.ValueFrom
		if ref == nil || ref.CallerRef == nil || ref.CallerRef.Name == "" {
			continue
		}

		if value, ok := envMap[ref.CallerRef.Name]; ok {
			envMap[envVar.Name] = value
		}
	}
}
