package yaml

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"
)

var (
	errLineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	lineNumberStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// NewPathBuilder returns a builder for goccy YAMLPaths.
func NewPathBuilder() *yaml.PathBuilder {
	return &yaml.PathBuilder{}
}

// ErrorWrapper applies a fixed set of [ErrorOpt]s to every [Error] passing
// through it. A loader creates one carrying the document source so schema
// violations render with their surrounding lines.
type ErrorWrapper struct {
	Opts []ErrorOpt
}

func NewErrorWrapper(opts ...ErrorOpt) *ErrorWrapper {
	return &ErrorWrapper{Opts: opts}
}

// Wrap applies the wrapper's options, then opts, to err.
// Errors that are not [Error]s pass through unmodified.
func (ew *ErrorWrapper) Wrap(err error, opts ...ErrorOpt) error {
	if err == nil {
		return nil
	}

	var yamlErr *Error
	if !errors.As(err, &yamlErr) {
		return err
	}

	for _, opt := range slices.Concat(ew.Opts, opts) {
		opt(yamlErr)
	}

	return yamlErr
}

// Error is a YAML error bound to a document location. When a source and a
// path or token are present, Error() renders the offending lines with the
// error position marked.
type Error struct {
	Err         error
	Path        *yaml.Path
	Token       *token.Token
	Source      []byte
	SourceLines int // Lines of context to show around the error.
}

func NewError(err error, opts ...ErrorOpt) *Error {
	e := &Error{
		Err:         err,
		SourceLines: 4,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

type ErrorOpt func(e *Error)

// WithSourceLines sets the lines of context rendered around the error.
func WithSourceLines(lines int) ErrorOpt {
	return func(e *Error) {
		e.SourceLines = lines
	}
}

// WithPath sets the YAMLPath of the offending node.
func WithPath(path *yaml.Path) ErrorOpt {
	return func(e *Error) {
		e.Path = path
	}
}

// WithToken sets the exact token the error points at.
func WithToken(tk *token.Token) ErrorOpt {
	return func(e *Error) {
		e.Token = tk
	}
}

// WithSource sets the document bytes used for rendering context.
func WithSource(source []byte) ErrorOpt {
	return func(e *Error) {
		e.Source = source
	}
}

func (e Error) Error() string {
	switch {
	case e.Err == nil:
		return ""
	case e.Path == nil && e.Token == nil:
		return e.Err.Error()
	}

	errMsg, srcErr := e.annotate()
	if srcErr != nil {
		slog.Warn("failed to annotate config with error",
			slog.String("path", e.Path.String()),
			slog.Any("error", srcErr),
		)
		// Without an annotated snippet, fall back to path and message.
		return fmt.Sprintf("error at %s: %v", e.Path.String(), e.Err)
	}

	return errMsg
}

// annotate replaces [github.com/goccy/go-yaml.Path.AnnotateSource] so the
// surrounding source renders with line numbers and an error marker.
func (e Error) annotate() (string, error) {
	tk := e.Token
	if tk == nil {
		var err error

		tk, err = tokenAtPath(e.Source, e.Path)
		if err != nil {
			return "", fmt.Errorf("get token from path: %w", err)
		}
	}

	span := spanOf(tk)
	header := fmt.Sprintf("[%d:%d] %v:", span.startLine, span.startCol, e.Err)

	snippet := lipgloss.NewStyle().
		PaddingTop(1).
		Render(e.renderSnippet(tk, span))

	return header + "\n" + snippet, nil
}

// renderSnippet prints the source around tk with line numbers. Lines the
// token covers carry a `>` marker, and the error column a `^` underneath.
func (e Error) renderSnippet(tk *token.Token, span tokenSpan) string {
	var pp Printer

	content, firstLine := pp.PrintErrorToken(tk.Clone(), e.SourceLines)

	lines := strings.Split(content, "\n")
	width := len(strconv.Itoa(firstLine + len(lines) - 1))

	var b strings.Builder

	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}

		n := firstLine + i
		if n < span.startLine || n > span.endLine {
			b.WriteString(lineNumberStyle.Render(fmt.Sprintf("  %*d | ", width, n)))
			b.WriteString(line)

			continue
		}

		prefix := fmt.Sprintf("> %*d | ", width, n)
		b.WriteString(errLineStyle.Render(prefix))
		b.WriteString(line)

		if n == span.startLine && span.startCol < len(line) {
			b.WriteByte('\n')
			b.WriteString(strings.Repeat(" ", len(prefix)+span.startCol))
			b.WriteString(errLineStyle.Render("^"))
		}
	}

	return b.String()
}

func tokenAtPath(source []byte, path *yaml.Path) (*token.Token, error) {
	file, err := parser.ParseBytes(source, 0)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}

	node, err := path.FilterFile(file)
	if err != nil {
		return nil, fmt.Errorf("filter node at %s: %w", path.String(), err)
	}

	// FilterFile lands on the VALUE node. Error messages read better when
	// they point at the KEY, so prefer that when the parent is a mapping.
	if keyTk := keyTokenAt(file, path); keyTk != nil {
		return keyTk, nil
	}

	return node.GetToken(), nil
}

// keyTokenAt finds the key token for the final path segment, if the path
// names a mapping entry.
func keyTokenAt(file *ast.File, path *yaml.Path) *token.Token {
	pathStr := path.String()

	lastDot := strings.LastIndex(pathStr, ".")
	if lastDot == -1 || lastDot <= strings.LastIndex(pathStr, "[") {
		// Root or sequence element, nothing keyed to point at.
		return nil
	}

	parentPath, err := yaml.PathString(pathStr[:lastDot])
	if err != nil {
		return nil
	}

	parentNode, err := parentPath.FilterFile(file)
	if err != nil {
		return nil
	}

	mapping, ok := parentNode.(*ast.MappingNode)
	if !ok {
		return nil
	}

	key := pathStr[lastDot+1:]
	for _, val := range mapping.Values {
		if val.Key.String() == key {
			return val.Key.GetToken()
		}
	}

	return nil
}

// tokenSpan is the source range a token covers. Columns are zero-based.
type tokenSpan struct {
	startLine int
	startCol  int
	endLine   int
}

func spanOf(tk *token.Token) tokenSpan {
	if tk == nil {
		return tokenSpan{}
	}

	span := tokenSpan{
		startLine: tk.Position.Line,
		startCol:  tk.Position.Column - 1,
		endLine:   tk.Position.Line,
	}
	if tk.Next != nil {
		span.endLine = tk.Next.Position.Line
	}

	return span
}
