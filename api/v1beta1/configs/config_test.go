package configs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rat/api/v1beta1/configs"
	"github.com/macropower/rat/pkg/config"
	"github.com/macropower/rat/pkg/format"
	"github.com/macropower/rat/pkg/project"
)

func TestNew(t *testing.T) {
	t.Parallel()

	cfg := configs.New()

	assert.NotNil(t, cfg)
	assert.Equal(t, "rat.jacobcolvin.com/v1beta1", cfg.GetAPIVersion())
	assert.Equal(t, "Configuration", cfg.GetKind())
	require.NotNil(t, cfg.Rules)
	assert.Equal(t, configs.DefaultRulesDir, cfg.Rules.Dir)

	// Built-in formats are always available.
	for _, name := range []string{"claude", "agents", "cursor", "copilot"} {
		assert.Contains(t, cfg.Formats, name)
	}
}

func TestConfigEnsureDefaults(t *testing.T) {
	t.Parallel()

	t.Run("fills empty config", func(t *testing.T) {
		t.Parallel()

		cfg := &configs.Config{}

		assert.Nil(t, cfg.Rules)
		assert.Nil(t, cfg.Formats)

		cfg.EnsureDefaults()

		require.NotNil(t, cfg.Rules)
		assert.Equal(t, configs.DefaultRulesDir, cfg.Rules.Dir)
		assert.Contains(t, cfg.Formats, "claude")
	})

	t.Run("keeps format overrides", func(t *testing.T) {
		t.Parallel()

		custom := format.MustNew(
			format.WithSingleFile(&format.SingleFile{Path: "NOTES.md"}),
		)
		cfg := &configs.Config{
			Formats: map[string]*format.Format{"claude": custom},
		}

		cfg.EnsureDefaults()

		assert.Same(t, custom, cfg.Formats["claude"])
		assert.Contains(t, cfg.Formats, "cursor")
	})

	t.Run("keeps configured rules dir", func(t *testing.T) {
		t.Parallel()

		cfg := &configs.Config{
			Rules: &configs.RulesConfig{Dir: "/srv/rules"},
		}

		cfg.EnsureDefaults()

		assert.Equal(t, "/srv/rules", cfg.Rules.Dir)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		setup   func() *configs.Config
		errMsg  string
		wantErr bool
	}{
		"valid defaults": {
			setup:   configs.New,
			wantErr: false,
		},
		"valid project with known format": {
			setup: func() *configs.Config {
				cfg := configs.New()
				cfg.Projects = []*project.Project{
					{Path: "/some/project", Formats: []string{"claude"}},
				}

				return cfg
			},
			wantErr: false,
		},
		"nil format": {
			setup: func() *configs.Config {
				cfg := configs.New()
				cfg.Formats["bad"] = nil

				return cfg
			},
			wantErr: true,
			errMsg:  "empty definition",
		},
		"format without variant": {
			setup: func() *configs.Config {
				cfg := configs.New()
				cfg.Formats["bad"] = &format.Format{}

				return cfg
			},
			wantErr: true,
			errMsg:  "one of singleFile or multiFile",
		},
		"project without path": {
			setup: func() *configs.Config {
				cfg := configs.New()
				cfg.Projects = []*project.Project{{}}

				return cfg
			},
			wantErr: true,
			errMsg:  "path is required",
		},
		"project references unknown format": {
			setup: func() *configs.Config {
				cfg := configs.New()
				cfg.Projects = []*project.Project{
					{Path: "/some/project", Formats: []string{"nope"}},
				}

				return cfg
			},
			wantErr: true,
			errMsg:  "unknown format",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := tc.setup()

			err := cfg.Validate()

			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfigFindProject(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	other := t.TempDir()

	cfg := configs.New()
	cfg.Projects = []*project.Project{
		{Path: dir, Formats: []string{"claude"}},
	}

	t.Run("matches exact path", func(t *testing.T) {
		t.Parallel()

		got := cfg.FindProject(dir)

		require.NotNil(t, got)
		assert.Same(t, cfg.Projects[0], got)
	})

	t.Run("matches unclean path", func(t *testing.T) {
		t.Parallel()

		got := cfg.FindProject(filepath.Join(dir, "sub", ".."))

		require.NotNil(t, got)
		assert.Same(t, cfg.Projects[0], got)
	})

	t.Run("returns nil for unknown path", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, cfg.FindProject(other))
	})

	t.Run("returns nil for empty config", func(t *testing.T) {
		t.Parallel()

		empty := configs.New()

		assert.Nil(t, empty.FindProject(dir))
	})
}

func TestConfigWrite(t *testing.T) {
	t.Parallel()

	t.Run("writes a new file", func(t *testing.T) {
		t.Parallel()

		cfg := configs.New()
		path := filepath.Join(t.TempDir(), "config.yaml")

		require.NoError(t, cfg.Write(path))

		want, err := cfg.MarshalYAML()
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, string(want), string(data))
	})

	t.Run("keeps an existing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("hand edited\n"), 0o600))

		require.NoError(t, configs.New().Write(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "hand edited\n", string(data))
	})

	t.Run("creates parent directories", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "config.yaml")

		require.NoError(t, configs.New().Write(path))

		_, err := os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("rejects a directory", func(t *testing.T) {
		t.Parallel()

		err := configs.New().Write(t.TempDir())
		require.ErrorContains(t, err, "path is a directory")
	})
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()

	t.Run("seeds the embedded default", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")

		require.NoError(t, configs.WriteDefault(path, false))

		// The written file must match the package's config.yaml source.
		want, err := os.ReadFile("config.yaml")
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, string(want), string(data))
	})

	t.Run("creates parent directories", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "deep", "config.yaml")

		require.NoError(t, configs.WriteDefault(path, false))

		_, err := os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("keeps an existing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("hand edited\n"), 0o600))

		require.NoError(t, configs.WriteDefault(path, false))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "hand edited\n", string(data))
	})

	t.Run("force replaces and backs up", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("hand edited\n"), 0o600))

		require.NoError(t, configs.WriteDefault(path, true))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotEqual(t, "hand edited\n", string(data))

		backups, err := filepath.Glob(filepath.Join(dir, "config.yaml.*.old"))
		require.NoError(t, err)
		require.Len(t, backups, 1)

		backup, err := os.ReadFile(backups[0])
		require.NoError(t, err)
		assert.Equal(t, "hand edited\n", string(backup))
	})

	t.Run("rejects a directory", func(t *testing.T) {
		t.Parallel()

		err := configs.WriteDefault(t.TempDir(), false)
		require.ErrorContains(t, err, "path is a directory")
	})
}

//nolint:paralleltest // Manipulates the process environment.
func TestGetPath(t *testing.T) {
	tcs := map[string]struct {
		xdgConfigHome string
		home          string
		want          string
	}{
		"XDG_CONFIG_HOME wins": {
			xdgConfigHome: "/custom/config",
			home:          "/home/dev",
			want:          "/custom/config/rat/config.yaml",
		},
		"falls back to ~/.config": {
			home: "/home/dev",
			want: "/home/dev/.config/rat/config.yaml",
		},
		"falls back to temp without a home": {
			want: filepath.Join(os.TempDir(), "rat", "config.yaml"), //nolint:usetesting // Compares against the host temp dir.
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Setenv("XDG_CONFIG_HOME", tc.xdgConfigHome)
			t.Setenv("HOME", tc.home)

			assert.Equal(t, tc.want, configs.GetPath())
		})
	}
}

func TestConfigMarshalYAML(t *testing.T) {
	t.Parallel()

	cfg := configs.New()

	data, err := cfg.MarshalYAML()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	out := string(data)
	assert.Contains(t, out, "apiVersion: rat.jacobcolvin.com/v1beta1")
	assert.Contains(t, out, "kind: Configuration")
	assert.Contains(t, out, "dir: ~/rules")
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T) string {
		t.Helper()

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, configs.WriteDefault(path, false))

		return path
	}

	t.Run("passes schema validation", func(t *testing.T) {
		t.Parallel()

		cl, err := config.NewLoaderFromFile(write(t), configs.New, configs.DefaultValidator)
		require.NoError(t, err)

		require.NoError(t, cl.Validate())
	})

	t.Run("loads to the built-in defaults", func(t *testing.T) {
		t.Parallel()

		cl, err := config.NewLoaderFromFile(write(t), configs.New, configs.DefaultValidator)
		require.NoError(t, err)

		cfg, err := cl.Load()
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		assert.Equal(t, configs.DefaultRulesDir, cfg.Rules.Dir)

		// The commented default document and the in-code defaults must agree.
		got, err := cfg.MarshalYAML()
		require.NoError(t, err)

		want, err := configs.New().MarshalYAML()
		require.NoError(t, err)
		assert.YAMLEq(t, string(want), string(got))

		for name, f := range cfg.Formats {
			assert.NotNil(t, f.Planner(), "format %q should have a planner", name)
		}
	})

	t.Run("survives a marshal round trip", func(t *testing.T) {
		t.Parallel()

		cl, err := config.NewLoaderFromFile(write(t), configs.New, configs.DefaultValidator)
		require.NoError(t, err)

		cfg, err := cl.Load()
		require.NoError(t, err)

		out, err := cfg.MarshalYAML()
		require.NoError(t, err)
		assert.NotEmpty(t, out)

		cl2 := config.NewLoaderFromBytes(out, configs.New, configs.DefaultValidator)
		require.NoError(t, cl2.Validate())

		cfg2, err := cl2.Load()
		require.NoError(t, err)
		assert.Equal(t, cfg.GetAPIVersion(), cfg2.GetAPIVersion())
		assert.Equal(t, cfg.GetKind(), cfg2.GetKind())
		assert.Len(t, cfg2.Formats, len(cfg.Formats))
	})
}
