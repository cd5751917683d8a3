package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
)

// usageErrPrefixes matches the messages cobra produces for bad invocations.
// Cobra exposes no typed usage error, so prefix matching is the only handle.
// See: https://github.com/spf13/cobra/pull/2266
var usageErrPrefixes = []string{
	"flag needs an argument:",
	"unknown flag:",
	"unknown shorthand flag:",
	"unknown command",
	"invalid argument",
}

// ErrorHandler renders err in fang's error style, appending a --help hint
// when the error looks like a bad invocation rather than a failed run.
func ErrorHandler(w io.Writer, styles fang.Styles, err error) {
	mustN(fmt.Fprintln(w, styles.ErrorHeader.String()))
	mustN(fmt.Fprintln(w, lipgloss.NewStyle().MarginLeft(2).Render(err.Error())))
	mustN(fmt.Fprintln(w))

	if !isUsageError(err) {
		return
	}

	hint := lipgloss.JoinHorizontal(
		lipgloss.Left,
		styles.ErrorText.UnsetWidth().Render("Try"),
		styles.Program.Flag.Render("--help"),
		styles.ErrorText.UnsetWidth().UnsetMargins().UnsetTransform().PaddingLeft(1).Render("for usage."),
	)
	mustN(fmt.Fprintln(w, hint))
	mustN(fmt.Fprintln(w))
}

func isUsageError(err error) bool {
	msg := err.Error()

	return slices.ContainsFunc(usageErrPrefixes, func(prefix string) bool {
		return strings.HasPrefix(msg, prefix)
	})
}

// mustN panics when a terminal write fails, discarding the byte count.
func mustN(_ int, err error) {
	if err != nil {
		panic(err)
	}
}
