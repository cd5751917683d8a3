// Package guard validates filesystem paths against an allow-list before any
// read or write is attempted. It is the single safety chokepoint for every
// path the tool touches.
package guard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	// ErrInvalidPath indicates input that cannot be interpreted as a path.
	ErrInvalidPath = errors.New("invalid path")

	// ErrOutsideAllowedRoots indicates a path outside every allowed root.
	ErrOutsideAllowedRoots = errors.New("path outside allowed roots")

	// ErrNoRoots indicates a guard constructed with no roots or paths.
	ErrNoRoots = errors.New("no roots provided")

	// ErrRootNotAbsolute indicates a root or planned path that is not absolute.
	ErrRootNotAbsolute = errors.New("root is not absolute")
)

// Guard is an immutable path allow-list. A guard constructed with [New]
// accepts any path inside one of its roots. A guard constructed with
// [NewExact] accepts only members of an exact path set. [Guard.With] derives
// extended guards; existing guards are never mutated.
type Guard struct {
	exact map[string]struct{}
	roots []string
}

// New creates a [Guard] that accepts paths inside any of the given root
// directories. Roots are home-expanded, cleaned, and must be absolute.
func New(roots ...string) (*Guard, error) {
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}

	g := &Guard{}
	for _, root := range roots {
		normalized, err := normalize(root)
		if err != nil {
			return nil, err
		}

		g.roots = append(g.roots, normalized)
	}

	return g, nil
}

// MustNew creates a [Guard] and panics on error.
func MustNew(roots ...string) *Guard {
	g, err := New(roots...)
	if err != nil {
		panic(err)
	}

	return g
}

// NewExact creates a [Guard] restricted to an exact set of planned absolute
// paths. Validation accepts set members only, so even a caller holding a
// mutated plan cannot reach a path the plan never announced.
func NewExact(paths ...string) (*Guard, error) {
	if len(paths) == 0 {
		return nil, ErrNoRoots
	}

	g := &Guard{exact: make(map[string]struct{}, len(paths))}
	for _, path := range paths {
		normalized, err := normalize(path)
		if err != nil {
			return nil, err
		}

		g.exact[normalized] = struct{}{}
	}

	return g, nil
}

// MustNewExact creates an exact-path [Guard] and panics on error.
func MustNewExact(paths ...string) *Guard {
	g, err := NewExact(paths...)
	if err != nil {
		panic(err)
	}

	return g
}

// With returns a new [Guard] sharing this guard's configuration plus the
// given additional roots. The receiver is unchanged.
func (g *Guard) With(roots ...string) (*Guard, error) {
	ng, err := New(roots...)
	if err != nil {
		return nil, err
	}

	ng.roots = append(slices.Clone(g.roots), ng.roots...)
	if g.exact != nil {
		ng.exact = make(map[string]struct{}, len(g.exact))
		for p := range g.exact {
			ng.exact[p] = struct{}{}
		}
	}

	return ng, nil
}

// Validate canonicalizes the input and checks it against the allow-list.
// On success it returns the canonical absolute path that all subsequent
// filesystem operations must use. The original input is never to be used
// after validation.
func (g *Guard) Validate(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	path, err := ExpandHome(input)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}

	path, err = filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}

	path = resolve(path)

	if g.exact != nil {
		if _, ok := g.exact[path]; ok {
			return path, nil
		}
	}
	for _, root := range g.roots {
		if within(root, path) {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrOutsideAllowedRoots, path)
}

// Contains reports whether the path would pass [Guard.Validate]. It is an
// advisory check only; callers performing filesystem operations must use the
// canonical path returned by Validate.
func (g *Guard) Contains(path string) bool {
	_, err := g.Validate(path)

	return err == nil
}

// normalize prepares a root or planned path for comparison: home expansion,
// absoluteness check, lexical cleaning, and opportunistic symlink resolution.
func normalize(path string) (string, error) {
	expanded, err := ExpandHome(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}
	if !filepath.IsAbs(expanded) {
		return "", fmt.Errorf("%w: %q", ErrRootNotAbsolute, path)
	}

	return resolve(filepath.Clean(expanded)), nil
}

// within reports whether path is root itself or a descendant of root. It
// decomposes the candidate relative to the root rather than comparing string
// prefixes, so a sibling like `/tmp/evil_dir` is never inside `/tmp/evil`.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolve follows symlinks when the path exists. A path that does not exist
// yet is resolved through its deepest existing ancestor, so planned writes
// can target new files while symlinked parents still canonicalize.
func resolve(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}

	dir, base := filepath.Split(path)
	if dir != "" && dir != path {
		if resolved, err := filepath.EvalSymlinks(filepath.Clean(dir)); err == nil {
			return filepath.Join(resolved, base)
		}
	}

	return path
}

// ExpandHome replaces a leading `~` or `~/` with the current user's home
// directory. Other inputs are returned unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}

	return filepath.Join(home, path[2:]), nil
}
