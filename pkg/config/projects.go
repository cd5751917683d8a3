package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/macropower/rat/api"
	"github.com/macropower/rat/api/v1beta1/configs"
	"github.com/macropower/rat/pkg/project"
	"github.com/macropower/rat/pkg/yaml"
)

// ErrProjectNotFound indicates that a path is not in the projects list.
var ErrProjectNotFound = errors.New("project not found")

// AddProject adds a project entry to the configuration and persists it to the
// config file at configPath. This function preserves comments and structure
// in the config file. Adding an already-configured path is a no-op.
func AddProject(cfg *configs.Config, configPath string, p *project.Project) error {
	absPath, err := filepath.Abs(p.Path)
	if err == nil {
		p.Path = filepath.Clean(absPath)
	}

	if cfg.FindProject(p.Path) != nil {
		return nil // Already configured.
	}

	cfg.Projects = append(cfg.Projects, p)

	return writeProjects(cfg, configPath)
}

// RemoveProject removes the project entry matching path from the
// configuration and persists it to the config file at configPath. This
// function preserves comments and structure in the config file.
func RemoveProject(cfg *configs.Config, configPath, path string) error {
	target := cfg.FindProject(path)
	if target == nil {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, path)
	}

	kept := make([]*project.Project, 0, len(cfg.Projects))
	for _, p := range cfg.Projects {
		if p != target {
			kept = append(kept, p)
		}
	}

	cfg.Projects = kept

	return writeProjects(cfg, configPath)
}

// writeProjects merges the projects section into the config file,
// preserving comments.
func writeProjects(cfg *configs.Config, configPath string) error {
	data, err := api.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	projectsUpdate := struct {
		Projects []*project.Project `json:"projects"`
	}{
		Projects: cfg.Projects,
	}

	merged, err := yaml.MergeRootFromValue(data, projectsUpdate)
	if err != nil {
		return fmt.Errorf("merge projects section: %w", err)
	}

	err = os.WriteFile(configPath, merged, 0o600)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
