package projectconfigs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rat/api/v1beta1/projectconfigs"
	"github.com/macropower/rat/pkg/config"
	"github.com/macropower/rat/pkg/project"
)

func TestNew(t *testing.T) {
	t.Parallel()

	cfg := projectconfigs.New()

	assert.NotNil(t, cfg)
	assert.Equal(t, "rat.jacobcolvin.com/v1beta1", cfg.GetAPIVersion())
	assert.Equal(t, "ProjectConfig", cfg.GetKind())
	assert.NotNil(t, cfg.Project)
}

func TestProjectConfigEnsureDefaults(t *testing.T) {
	t.Parallel()

	cfg := &projectconfigs.ProjectConfig{}
	cfg.EnsureDefaults()

	assert.NotNil(t, cfg.Project)
}

func TestFind(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, path string) {
		t.Helper()
		require.NoError(t, os.WriteFile(path, []byte("rules: []\n"), 0o600))
	}

	tcs := map[string]struct {
		setup func(t *testing.T) (target, want string)
	}{
		"project file in the start directory": {
			setup: func(t *testing.T) (string, string) {
				t.Helper()

				dir := t.TempDir()
				cfg := filepath.Join(dir, ".rat.yaml")
				write(t, cfg)

				return dir, cfg
			},
		},
		"project file in an ancestor directory": {
			setup: func(t *testing.T) (string, string) {
				t.Helper()

				dir := t.TempDir()
				cfg := filepath.Join(dir, ".rat.yaml")
				write(t, cfg)

				sub := filepath.Join(dir, "pkg", "server")
				require.NoError(t, os.MkdirAll(sub, 0o700))

				return sub, cfg
			},
		},
		".rat.yaml shadows rat.yaml": {
			setup: func(t *testing.T) (string, string) {
				t.Helper()

				dir := t.TempDir()
				dotfile := filepath.Join(dir, ".rat.yaml")
				write(t, dotfile)
				write(t, filepath.Join(dir, "rat.yaml"))

				return dir, dotfile
			},
		},
		"rat.yaml alone is found": {
			setup: func(t *testing.T) (string, string) {
				t.Helper()

				dir := t.TempDir()
				cfg := filepath.Join(dir, "rat.yaml")
				write(t, cfg)

				return dir, cfg
			},
		},
		"no project file": {
			setup: func(t *testing.T) (string, string) {
				t.Helper()

				return t.TempDir(), ""
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			target, want := tc.setup(t)

			got, err := projectconfigs.Find(target)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadProjectConfig(t *testing.T) {
	t.Parallel()

	t.Run("minimal document", func(t *testing.T) {
		t.Parallel()

		input := `apiVersion: rat.jacobcolvin.com/v1beta1
kind: ProjectConfig
`

		cfg, err := config.NewLoaderFromBytes([]byte(input), projectconfigs.New, projectconfigs.DefaultValidator).Load()
		require.NoError(t, err)
		assert.Equal(t, "ProjectConfig", cfg.GetKind())
		assert.NotNil(t, cfg.Project)
	})

	t.Run("rule selection and formats", func(t *testing.T) {
		t.Parallel()

		input := `apiVersion: rat.jacobcolvin.com/v1beta1
kind: ProjectConfig
rules: ["go/**/*.md", "!go/wip.md"]
formats: [claude, cursor]
`

		cfg, err := config.NewLoaderFromBytes([]byte(input), projectconfigs.New, projectconfigs.DefaultValidator).Load()
		require.NoError(t, err)

		require.NotNil(t, cfg.Project)
		assert.Equal(t, []string{"go/**/*.md", "!go/wip.md"}, cfg.Project.Rules)
		assert.Equal(t, []string{"claude", "cursor"}, cfg.Project.Formats)
	})

	t.Run("hooks", func(t *testing.T) {
		t.Parallel()

		input := `apiVersion: rat.jacobcolvin.com/v1beta1
kind: ProjectConfig
hooks:
  postSync:
    - git add CLAUDE.md
`

		cfg, err := config.NewLoaderFromBytes([]byte(input), projectconfigs.New, projectconfigs.DefaultValidator).Load()
		require.NoError(t, err)

		require.NotNil(t, cfg.Project.Hooks)
		assert.Equal(t, []string{"git add CLAUDE.md"}, cfg.Project.Hooks.PostSync)
	})

	t.Run("broken yaml", func(t *testing.T) {
		t.Parallel()

		input := `apiVersion: rat.jacobcolvin.com/v1beta1
kind: ProjectConfig
  invalid: yaml
`

		cfg, err := config.NewLoaderFromBytes([]byte(input), projectconfigs.New, projectconfigs.DefaultValidator).Load()
		require.Error(t, err)
		assert.Nil(t, cfg)
	})
}

func TestValidateProjectConfig(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input   string
		wantErr bool
	}{
		"valid document": {
			input: `apiVersion: rat.jacobcolvin.com/v1beta1
kind: ProjectConfig
`,
			wantErr: false,
		},
		"path is not required in project files": {
			input: `apiVersion: rat.jacobcolvin.com/v1beta1
kind: ProjectConfig
formats: [agents]
`,
			wantErr: false,
		},
		"missing apiVersion": {
			input: `kind: ProjectConfig
`,
			wantErr: true,
		},
		"missing kind": {
			input: `apiVersion: rat.jacobcolvin.com/v1beta1
`,
			wantErr: true,
		},
		"wrong kind": {
			input: `apiVersion: rat.jacobcolvin.com/v1beta1
kind: Configuration
`,
			wantErr: true,
		},
		"unknown field": {
			input: `apiVersion: rat.jacobcolvin.com/v1beta1
kind: ProjectConfig
profile: custom
`,
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pcl := config.NewLoaderFromBytes([]byte(tc.input), projectconfigs.New, projectconfigs.DefaultValidator)

			err := pcl.Validate()
			if tc.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestLoadProjectConfigFromFile(t *testing.T) {
	t.Parallel()

	t.Run("existing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".rat.yaml")
		content := `apiVersion: rat.jacobcolvin.com/v1beta1
kind: ProjectConfig
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		pcl, err := config.NewLoaderFromFile(path, projectconfigs.New, projectconfigs.DefaultValidator)
		require.NoError(t, err)
		assert.NotNil(t, pcl)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		pcl, err := config.NewLoaderFromFile(filepath.Join(t.TempDir(), ".rat.yaml"), projectconfigs.New, projectconfigs.DefaultValidator)
		require.ErrorContains(t, err, "stat file")
		assert.Nil(t, pcl)
	})
}

func TestProjectConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("project with path", func(t *testing.T) {
		t.Parallel()

		cfg := projectconfigs.New()
		cfg.Project.Path = "/some/project"

		require.NoError(t, cfg.Validate())
	})

	t.Run("nil project", func(t *testing.T) {
		t.Parallel()

		cfg := &projectconfigs.ProjectConfig{}

		require.NoError(t, cfg.Validate())
	})

	t.Run("missing path", func(t *testing.T) {
		t.Parallel()

		err := projectconfigs.New().Validate()
		require.ErrorIs(t, err, project.ErrNoPath)
	})

	t.Run("broken filter expression", func(t *testing.T) {
		t.Parallel()

		cfg := projectconfigs.New()
		cfg.Project = &project.Project{
			Path:   "/some/project",
			Filter: "path.(",
		}

		require.Error(t, cfg.Validate())
	})
}
