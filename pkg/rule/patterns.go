package rule

import "strings"

// DefaultPattern matches every Markdown file in the source tree. It is the
// positive set used when a pattern list contains no positive patterns.
const DefaultPattern = "**/*.md"

// PatternSet partitions glob patterns into positive (include) and negative
// (exclude) sets. Negative patterns are stored without their `!` prefix.
type PatternSet struct {
	Positive []string
	Negative []string
}

// SplitPatterns partitions raw patterns into a [PatternSet]. Entries starting
// with `!` become negative patterns, blank entries are dropped, and an empty
// positive set defaults to [DefaultPattern]. Negative patterns are preserved
// alongside the default positive set.
func SplitPatterns(patterns []string) PatternSet {
	ps := PatternSet{}
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		switch {
		case pattern == "":
			continue

		case strings.HasPrefix(pattern, "!"):
			if neg := strings.TrimSpace(pattern[1:]); neg != "" {
				ps.Negative = append(ps.Negative, neg)
			}

		default:
			ps.Positive = append(ps.Positive, pattern)
		}
	}

	if len(ps.Positive) == 0 {
		ps.Positive = []string{DefaultPattern}
	}

	return ps
}
