package rule

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrInvalidPattern indicates a glob pattern that cannot be compiled.
var ErrInvalidPattern = errors.New("invalid pattern")

// Result holds the outcome of a load: rules deduplicated and sorted by path,
// plus every positive pattern that matched nothing on its own. Unmatched
// patterns usually point at stale or misspelled configuration, even when
// other patterns cover the same files.
type Result struct {
	Rules     []Rule
	Unmatched []string
}

// Load reads every rule under rootDir selected by the given patterns. Each
// positive pattern is probed in isolation so zero-match patterns can be
// reported; the loaded set is the union of all positive matches minus any
// path matching a negative pattern. Any unreadable matched file fails the
// whole load.
func Load(rootDir string, patterns []string) (*Result, error) {
	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source directory %q: not a directory", rootDir)
	}

	ps := SplitPatterns(patterns)
	for _, pattern := range slices.Concat(ps.Positive, ps.Negative) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
	}

	fsys := os.DirFS(rootDir)
	matched := map[string]struct{}{}

	res := &Result{}
	for _, pattern := range ps.Positive {
		paths, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, pattern, err)
		}
		if len(paths) == 0 {
			res.Unmatched = append(res.Unmatched, pattern)

			continue
		}

		for _, path := range paths {
			matched[path] = struct{}{}
		}
	}

	paths := make([]string, 0, len(matched))
	for path := range matched {
		if excluded(path, ps.Negative) {
			continue
		}

		paths = append(paths, path)
	}

	slices.Sort(paths)

	res.Rules = make([]Rule, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(filepath.Join(rootDir, filepath.FromSlash(path)))
		if err != nil {
			return nil, fmt.Errorf("read rule %q: %w", path, err)
		}

		res.Rules = append(res.Rules, Rule{Path: path, Content: string(content)})
	}

	return res, nil
}

// excluded reports whether the path matches any negative pattern. Patterns
// are validated before matching, so match errors cannot occur here.
func excluded(path string, negative []string) bool {
	for _, pattern := range negative {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}

	return false
}
