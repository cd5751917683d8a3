package expr_test

import (
	"testing"

	"github.com/google/cel-go/cel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rat/pkg/expr"
)

func pathEnv(t *testing.T) *expr.Environment {
	t.Helper()

	env, err := expr.NewEnvironment(
		cel.Variable("path", cel.StringType),
	)
	require.NoError(t, err)

	return env
}

func TestCELPathFunctions(t *testing.T) {
	t.Parallel()

	env := pathEnv(t)

	tests := []struct {
		name       string
		expression string
		path       string
		expected   bool
	}{
		{
			name:       "pathBase equality",
			expression: `pathBase(path) == "style.md"`,
			path:       "go/style.md",
			expected:   true,
		},
		{
			name:       "pathExt membership",
			expression: `pathExt(path) in [".md", ".markdown"]`,
			path:       "go/style.md",
			expected:   true,
		},
		{
			name:       "pathDir prefix",
			expression: `pathDir(path).startsWith("go")`,
			path:       "go/deep/style.md",
			expected:   true,
		},
		{
			name:       "pathDir prefix no match",
			expression: `pathDir(path).startsWith("docs")`,
			path:       "go/style.md",
			expected:   false,
		},
		{
			name:       "combined functions",
			expression: `pathExt(path) == ".md" && !pathBase(path).matches(".*wip.*")`,
			path:       "go/wip-notes.md",
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			program, err := env.Compile(tt.expression)
			require.NoError(t, err)

			result, _, err := program.Eval(map[string]any{"path": tt.path})
			require.NoError(t, err)

			boolResult, ok := result.Value().(bool)
			require.True(t, ok, "result should be a boolean")
			assert.Equal(t, tt.expected, boolResult)
		})
	}
}

func TestCELPathFunctionEdgeCases(t *testing.T) {
	t.Parallel()

	env := pathEnv(t)

	tests := []struct {
		name       string
		expression string
		expected   string
	}{
		{
			name:       "pathBase root",
			expression: `pathBase("/")`,
			expected:   "/",
		},
		{
			name:       "pathBase empty",
			expression: `pathBase("")`,
			expected:   ".",
		},
		{
			name:       "pathDir empty",
			expression: `pathDir("")`,
			expected:   ".",
		},
		{
			name:       "pathExt no extension",
			expression: `pathExt("path/file")`,
			expected:   "",
		},
		{
			name:       "pathExt multiple extensions",
			expression: `pathExt("path/file.tar.gz")`,
			expected:   ".gz",
		},
		{
			name:       "pathExt hidden file",
			expression: `pathExt("path/.hidden")`,
			expected:   ".hidden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			program, err := env.Compile(tt.expression)
			require.NoError(t, err)

			result, _, err := program.Eval(map[string]any{})
			require.NoError(t, err)

			strVal, ok := result.Value().(string)
			require.True(t, ok)
			assert.Equal(t, tt.expected, strVal)
		})
	}
}

func TestEnvironmentCompileError(t *testing.T) {
	t.Parallel()

	env := pathEnv(t)

	_, err := env.Compile(`pathBase(`)
	require.Error(t, err)

	_, err = env.Compile(`undeclaredVar == "x"`)
	require.Error(t, err)
}

func TestLazyProgram(t *testing.T) {
	t.Parallel()

	t.Run("compiles once and caches", func(t *testing.T) {
		t.Parallel()

		lp := expr.NewLazyProgram(`pathExt(path) == ".md"`, pathEnv(t))
		assert.False(t, lp.IsCompiled())

		program, err := lp.Get()
		require.NoError(t, err)
		require.NotNil(t, program)
		assert.True(t, lp.IsCompiled())

		again, err := lp.Get()
		require.NoError(t, err)
		assert.Equal(t, program, again)
	})

	t.Run("empty expression yields nil program", func(t *testing.T) {
		t.Parallel()

		lp := expr.NewLazyProgram("", pathEnv(t))

		program, err := lp.Get()
		require.NoError(t, err)
		assert.Nil(t, program)
	})

	t.Run("compile error is cached", func(t *testing.T) {
		t.Parallel()

		lp := expr.NewLazyProgram(`pathBase(`, pathEnv(t))

		_, err := lp.Get()
		require.Error(t, err)
		assert.True(t, lp.IsCompiled())

		_, again := lp.Get()
		assert.Equal(t, err, again)
	})
}
