package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/macropower/rat/api/v1beta1/configs"
	"github.com/macropower/rat/api/v1beta1/projectconfigs"
	"github.com/macropower/rat/pkg/project"
)

// ErrNoProjectConfig indicates that a path has neither a project entry in the
// configuration nor a project config file in its directory tree.
var ErrNoProjectConfig = errors.New("no project configuration for path")

// TrustGate decides whether the project config file at configPath may be
// applied. Implemented by [github.com/macropower/rat/pkg/policy.TrustManager].
type TrustGate interface {
	Confirm(projectDir, configPath string) (bool, error)
}

// ResolveOpt is a functional option for [Resolve] and [ResolveAll].
type ResolveOpt func(*resolver)

// WithTrustGate gates project config files behind the given [TrustGate].
// Files the gate rejects are ignored, as if they did not exist. Without a
// gate, every project config file is applied.
func WithTrustGate(g TrustGate) ResolveOpt {
	return func(r *resolver) {
		r.gate = g
	}
}

type resolver struct {
	gate TrustGate
}

// Resolve returns the effective project for targetPath.
//
// A project can be declared in two places: as an entry in the `projects` list
// of the configuration, or as a project config file in the target directory
// (or one of its parents). When both exist, fields set in the project config
// file override the matching entry. When only the file exists, the project is
// rooted at the file's directory unless the file sets a path itself.
//
// The returned project is built and ready to use.
func Resolve(cfg *configs.Config, targetPath string, opts ...ResolveOpt) (*project.Project, error) {
	r := &resolver{}
	for _, opt := range opts {
		opt(r)
	}

	entry := cfg.FindProject(targetPath)

	pcPath, err := projectconfigs.Find(targetPath)
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	if pcPath != "" && r.gate != nil {
		ok, err := r.gate.Confirm(filepath.Dir(pcPath), pcPath)
		if err != nil {
			return nil, fmt.Errorf("trust %s: %w", pcPath, err)
		}

		if !ok {
			pcPath = ""
		}
	}

	if pcPath == "" {
		if entry != nil {
			return entry, nil
		}

		return nil, fmt.Errorf("%w: %s", ErrNoProjectConfig, targetPath)
	}

	pcl, err := NewLoaderFromFile(pcPath, projectconfigs.New, projectconfigs.DefaultValidator)
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	err = pcl.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid project config %s: %w", pcPath, err)
	}

	pc, err := pcl.Load()
	if err != nil {
		return nil, fmt.Errorf("load project config %s: %w", pcPath, err)
	}

	override := pc.Project
	if override == nil {
		override = &project.Project{}
	}

	base := entry
	if base == nil {
		base = &project.Project{Path: filepath.Dir(pcPath)}
	}

	merged := base.Merge(override)

	err = merged.Build()
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", merged.Path, err)
	}

	return merged, nil
}

// ResolveAll returns the effective projects for every entry in the
// configuration, applying project config file overrides where present.
func ResolveAll(cfg *configs.Config, opts ...ResolveOpt) ([]*project.Project, error) {
	projects := make([]*project.Project, 0, len(cfg.Projects))

	for _, p := range cfg.Projects {
		dir, err := p.AbsPath()
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", p.Path, err)
		}

		resolved, err := Resolve(cfg, dir, opts...)
		if err != nil {
			return nil, err
		}

		projects = append(projects, resolved)
	}

	return projects, nil
}
