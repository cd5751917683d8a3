package rule

import (
	"path"
	"strings"
)

// Rule is a single Markdown rule document, addressed by its slash-separated
// path relative to the source repository root.
type Rule struct {
	// Path is the rule's location relative to the source root, always
	// slash-separated regardless of platform.
	Path string

	// Content is the raw UTF-8 document body as read from disk.
	Content string
}

// Name returns the rule's file name without its extension.
func (r Rule) Name() string {
	base := path.Base(r.Path)

	return strings.TrimSuffix(base, path.Ext(base))
}

// Size returns the rule content length in bytes.
func (r Rule) Size() int {
	return len(r.Content)
}
