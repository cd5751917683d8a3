package execs_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rat/pkg/execs"
)

func TestExecutor_Exec(t *testing.T) {
	t.Parallel()

	t.Run("captures output", func(t *testing.T) {
		t.Parallel()

		cmd := execs.NewCommand([]string{"PATH=/usr/bin:/bin"})
		cmd.Command = "echo"
		cmd.Args = []string{"hello"}

		e := execs.NewExecutor(cmd)

		result, err := e.Exec(t.Context(), "")
		require.NoError(t, err)

		assert.Equal(t, "hello\n", result.Stdout)
		assert.Empty(t, result.Stderr)
	})

	t.Run("appends extra args", func(t *testing.T) {
		t.Parallel()

		cmd := execs.NewCommand([]string{"PATH=/usr/bin:/bin"})
		cmd.Command = "echo"
		cmd.Args = []string{"a"}

		e := execs.NewExecutor(cmd, "b", "c")

		result, err := e.Exec(t.Context(), "")
		require.NoError(t, err)

		assert.Equal(t, "a b c\n", result.Stdout)
	})

	t.Run("empty command", func(t *testing.T) {
		t.Parallel()

		e := execs.NewExecutor(execs.NewCommand(nil))

		_, err := e.Exec(t.Context(), "")
		require.ErrorIs(t, err, execs.ErrEmptyCommand)
	})
}

func TestExecutor_ExecAttached(t *testing.T) {
	t.Parallel()

	t.Run("streams connect to the command", func(t *testing.T) {
		t.Parallel()

		cmd := execs.NewCommand([]string{"PATH=/usr/bin:/bin"})
		cmd.Command = "sh"
		cmd.Args = []string{"-c", "cat && echo done"}

		e := execs.NewExecutor(cmd)

		var stdout, stderr bytes.Buffer

		err := e.ExecAttached(t.Context(), "", strings.NewReader("from stdin\n"), &stdout, &stderr)
		require.NoError(t, err)

		assert.Equal(t, "from stdin\ndone\n", stdout.String())
		assert.Empty(t, stderr.String())
	})

	t.Run("extra args are appended", func(t *testing.T) {
		t.Parallel()

		cmd := execs.NewCommand([]string{"PATH=/usr/bin:/bin"})
		cmd.Command = "echo"
		cmd.Args = []string{"a"}

		e := execs.NewExecutor(cmd, "b")

		var stdout bytes.Buffer

		err := e.ExecAttached(t.Context(), "", strings.NewReader(""), &stdout, &bytes.Buffer{})
		require.NoError(t, err)

		assert.Equal(t, "a b\n", stdout.String())
	})

	t.Run("empty command", func(t *testing.T) {
		t.Parallel()

		e := execs.NewExecutor(execs.NewCommand(nil))

		err := e.ExecAttached(t.Context(), "", strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
		require.ErrorIs(t, err, execs.ErrEmptyCommand)
	})

	t.Run("failing command", func(t *testing.T) {
		t.Parallel()

		cmd := execs.NewCommand([]string{"PATH=/usr/bin:/bin"})
		cmd.Command = "false"

		e := execs.NewExecutor(cmd)

		err := e.ExecAttached(t.Context(), "", strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
		require.ErrorIs(t, err, execs.ErrCommandExecution)
	})
}

func TestExecutor_String(t *testing.T) {
	t.Parallel()

	cmd := execs.NewCommand(nil)
	cmd.Command = "claude"
	cmd.Args = []string{"--continue"}

	e := execs.NewExecutor(cmd, "--verbose")

	assert.Equal(t, "claude --continue --verbose", e.String())
}
