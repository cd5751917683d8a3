package expr

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// celMutex serializes environment setup and compilation, both of which
// touch shared cel-go registries.
var celMutex sync.Mutex

// Environment wraps a [*cel.Env] so compiles are safe to run from
// concurrent project builds.
type Environment struct {
	env *cel.Env
}

// NewEnvironment creates an [Environment] with the path helper library
// loaded on top of opts.
func NewEnvironment(opts ...cel.EnvOption) (*Environment, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	celEnv, err := cel.NewEnv(append(opts, cel.Lib(&lib{}))...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	return &Environment{env: celEnv}, nil
}

// MustNewEnvironment is [NewEnvironment], panicking on error.
func MustNewEnvironment(opts ...cel.EnvOption) *Environment {
	env, err := NewEnvironment(opts...)
	if err != nil {
		panic(err)
	}

	return env
}

// Compile compiles one expression into a runnable program.
//
//nolint:ireturn // Following CEL's function signature.
func (e *Environment) Compile(expression string) (cel.Program, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	ast, issues := e.env.Compile(expression)
	if issues.Err() != nil {
		return nil, fmt.Errorf("compile expression: %w", issues.Err())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}

	return program, nil
}
