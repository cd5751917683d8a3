package yaml

import (
	"strings"

	"github.com/goccy/go-yaml/token"
)

// The windowing logic below is adapted from the printer package of
// github.com/goccy/go-yaml.
// MIT License.
// Copyright (c) 2019 Masaaki Goshima.

// Printer extracts windows of raw YAML source around a token. It is a
// stripped-down take on [github.com/goccy/go-yaml/printer.Printer] that
// skips all styling and returns the starting line number, so callers can
// render their own gutters.
type Printer struct{}

// PrintTokens reassembles the source text a token collection was lexed from.
func (p Printer) PrintTokens(tokens token.Tokens) string {
	var sb strings.Builder
	for _, tk := range tokens {
		sb.WriteString(tk.Origin)
	}

	return sb.String()
}

// PrintErrorToken returns the source window around tk, extended by lines of
// context on each side, plus the line number the window starts on. Multiline
// tokens keep their full text, so the window can run past the context limit.
func (p Printer) PrintErrorToken(tk *token.Token, lines int) (string, int) {
	startLine := tk.Position.Line
	endLine := startLine + countLineBreaks(trimLeadingNewlines(tk.Origin))
	if endsWithLineBreak(tk.Origin) {
		endLine--
	}

	minLine := max(startLine-lines, 1)
	maxLine := endLine + lines

	before := p.tokensBefore(tk, minLine, endLine)
	last := before[len(before)-1]
	after := p.tokensAfter(last.Next, maxLine)

	return p.PrintTokens(before) + "\n" + p.PrintTokens(after), minLine
}

// tokensBefore collects clones of every token from the start of the window
// through extLine, beginning with the error token's own line.
func (p Printer) tokensBefore(tk *token.Token, minLine, extLine int) token.Tokens {
	for tk.Prev != nil && tk.Prev.Position.Line >= minLine {
		tk = tk.Prev
	}

	first := tk.Clone()
	if first.Prev != nil {
		// The previous token's trailing spaces hold this token's indentation.
		prevOrigin := first.Prev.Origin
		indent := len(prevOrigin) - len(strings.TrimRight(prevOrigin, " "))
		first.Origin = strings.Repeat(" ", indent) + first.Origin
	}

	first.Origin = trimLeadingNewlines(first.Origin)

	tokens := token.Tokens{first}

	next := first.Next
	for next != nil && next.Position.Line <= extLine {
		c := next.Clone()
		tokens.Add(c)
		next = c.Next
	}

	last := tokens[len(tokens)-1]
	trimmed := trimTrailingSpace(last.Origin)
	carry := last.Origin[len(trimmed):]
	last.Origin = trimmed

	if last.Next != nil && len(carry) > 1 {
		// Hand the trimmed remainder to the following token so no source
		// text is lost, minus the newline that now splits the halves.
		n := last.Next.Clone()
		if carry[0] == '\n' || carry[0] == '\r' {
			carry = carry[1:]
		}

		n.Origin = carry + n.Origin
		last.Next = n
	}

	return tokens
}

// tokensAfter collects clones of the tokens following the window's midpoint,
// up to and including maxLine.
func (p Printer) tokensAfter(tk *token.Token, maxLine int) token.Tokens {
	tokens := token.Tokens{}
	if tk == nil || tk.Position.Line > maxLine {
		return tokens
	}

	first := tk.Clone()
	first.Origin = trimLeadingNewlines(first.Origin)
	tokens.Add(first)

	next := first.Next
	for next != nil && next.Position.Line <= maxLine {
		c := next.Clone()
		tokens.Add(c)
		next = c.Next
	}

	return tokens
}

func trimLeadingNewlines(src string) string {
	return strings.TrimLeft(src, "\r\n")
}

func trimTrailingNewlines(src string) string {
	return strings.TrimRight(src, "\r\n")
}

// trimTrailingSpace drops trailing spaces first, then trailing newlines, so
// spaces sitting before the final line break survive.
func trimTrailingSpace(src string) string {
	return trimTrailingNewlines(strings.TrimRight(src, " "))
}

// countLineBreaks counts line breaks in s, treating \r\n as a single break.
func countLineBreaks(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}

			n++

		case '\n':
			n++
		}
	}

	return n
}

// endsWithLineBreak reports whether the last character of s, ignoring
// trailing spaces, is a line break. A break at index zero does not count.
func endsWithLineBreak(s string) bool {
	t := strings.TrimRight(s, " ")
	if len(t) <= 1 {
		return false
	}

	c := t[len(t)-1]

	return c == '\n' || c == '\r'
}
