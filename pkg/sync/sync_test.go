package sync_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rat/pkg/format"
	"github.com/macropower/rat/pkg/project"
	"github.com/macropower/rat/pkg/sync"
)

// tempDir returns a fully resolved temporary directory, so paths compare
// equal to guard-canonicalized paths even when the OS places temp dirs
// behind symlinks.
func tempDir(t *testing.T) string {
	t.Helper()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	return dir
}

// writeFiles creates the given files under root, making parent
// directories as needed. Keys use slash-separated relative paths.
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func testFormats(t *testing.T) map[string]*format.Format {
	t.Helper()

	return map[string]*format.Format{
		"agents": format.MustNew(
			format.WithSingleFile(&format.SingleFile{Path: "AGENTS.md", Title: "Agent Rules"}),
		),
		"cursor": format.MustNew(
			format.WithMultiFile(&format.MultiFile{Dir: ".cursor/rules"}),
		),
	}
}

func newPlanner(t *testing.T, sourceDir string) *sync.Planner {
	t.Helper()

	planner, err := sync.NewPlanner(sourceDir, testFormats(t))
	require.NoError(t, err)

	return planner
}

func TestSyncerSync(t *testing.T) {
	t.Parallel()

	sourceDir := tempDir(t)
	writeFiles(t, sourceDir, map[string]string{
		"a.md": "# A\n",
		"b.md": "# B\n",
	})

	projectDir := tempDir(t)
	proj := project.MustNew(projectDir, project.WithFormats("agents", "cursor"))

	syncer := sync.NewSyncer(newPlanner(t, sourceDir))

	res, err := syncer.Sync(t.Context(), proj)
	require.NoError(t, err)

	assert.Equal(t, projectDir, res.Project)
	assert.False(t, res.DryRun)
	assert.Empty(t, res.Unmatched)
	assert.Equal(t, []string{
		filepath.Join(projectDir, "AGENTS.md"),
		filepath.Join(projectDir, ".cursor", "rules", "a.md"),
		filepath.Join(projectDir, ".cursor", "rules", "b.md"),
	}, res.Written)

	want := "# Agent Rules\n\n" +
		"To modify rules, edit the source .md files and run sync to regenerate.\n\n" +
		"# A\n\n---\n\n# B\n"
	assert.Equal(t, want, readFile(t, filepath.Join(projectDir, "AGENTS.md")))

	assert.Equal(t, "# A\n", readFile(t, filepath.Join(projectDir, ".cursor", "rules", "a.md")))
	assert.Equal(t, "# B\n", readFile(t, filepath.Join(projectDir, ".cursor", "rules", "b.md")))
}

func TestSyncerNoRules(t *testing.T) {
	t.Parallel()

	sourceDir := tempDir(t)
	projectDir := tempDir(t)
	proj := project.MustNew(projectDir, project.WithFormats("agents", "cursor"))

	syncer := sync.NewSyncer(newPlanner(t, sourceDir))

	res, err := syncer.Sync(t.Context(), proj)
	require.NoError(t, err)

	// The default pattern matched nothing, which is reported but not
	// fatal.
	assert.Equal(t, []string{"**/*.md"}, res.Unmatched)

	want := "# Agent Rules\n\nNo rules configured.\n"
	assert.Equal(t, want, readFile(t, filepath.Join(projectDir, "AGENTS.md")))

	// Multi-file formats write nothing for an empty rule set.
	assert.NoDirExists(t, filepath.Join(projectDir, ".cursor"))
}

func TestSyncerDryRun(t *testing.T) {
	t.Parallel()

	sourceDir := tempDir(t)
	writeFiles(t, sourceDir, map[string]string{"a.md": "# A\n"})

	projectDir := tempDir(t)
	proj := project.MustNew(projectDir, project.WithFormats("agents"))

	var out bytes.Buffer

	syncer := sync.NewSyncer(newPlanner(t, sourceDir),
		sync.WithSyncDryRun(true),
		sync.WithSyncVerbose(true),
		sync.WithSyncOutput(&out),
	)

	res, err := syncer.Sync(t.Context(), proj)
	require.NoError(t, err)

	target := filepath.Join(projectDir, "AGENTS.md")
	assert.True(t, res.DryRun)
	assert.Equal(t, []string{target}, res.Written)
	assert.NoFileExists(t, target)
	assert.Equal(t, "[Dry-run] [Write] "+target+"\n", out.String())
}

func TestSyncerHooks(t *testing.T) {
	t.Parallel()

	sourceDir := tempDir(t)
	writeFiles(t, sourceDir, map[string]string{"a.md": "# A\n"})

	projectDir := tempDir(t)
	proj := project.MustNew(projectDir,
		project.WithFormats("agents"),
		project.WithHooks(project.MustNewHooks(
			project.WithPreSync("touch pre.txt"),
			project.WithPostSync("touch post.txt"),
		)),
	)

	syncer := sync.NewSyncer(newPlanner(t, sourceDir))

	_, err := syncer.Sync(t.Context(), proj)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(projectDir, "pre.txt"))
	assert.FileExists(t, filepath.Join(projectDir, "post.txt"))
}

func TestSyncerDryRunSkipsHooks(t *testing.T) {
	t.Parallel()

	sourceDir := tempDir(t)
	writeFiles(t, sourceDir, map[string]string{"a.md": "# A\n"})

	projectDir := tempDir(t)
	proj := project.MustNew(projectDir,
		project.WithFormats("agents"),
		project.WithHooks(project.MustNewHooks(
			project.WithPreSync("touch pre.txt"),
		)),
	)

	syncer := sync.NewSyncer(newPlanner(t, sourceDir), sync.WithSyncDryRun(true))

	_, err := syncer.Sync(t.Context(), proj)
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(projectDir, "pre.txt"))
}

func TestSyncerHookFailure(t *testing.T) {
	t.Parallel()

	sourceDir := tempDir(t)
	writeFiles(t, sourceDir, map[string]string{"a.md": "# A\n"})

	projectDir := tempDir(t)
	proj := project.MustNew(projectDir,
		project.WithFormats("agents"),
		project.WithHooks(project.MustNewHooks(
			project.WithPreSync("false"),
		)),
	)

	syncer := sync.NewSyncer(newPlanner(t, sourceDir))

	_, err := syncer.Sync(t.Context(), proj)
	require.ErrorIs(t, err, project.ErrHookExecution)

	// A failed pre-sync hook means nothing was written.
	assert.NoFileExists(t, filepath.Join(projectDir, "AGENTS.md"))
}

func TestSyncerRuleFilter(t *testing.T) {
	t.Parallel()

	sourceDir := tempDir(t)
	writeFiles(t, sourceDir, map[string]string{
		"keep.md": "# Keep\n",
		"drop.md": "# Drop\n",
	})

	projectDir := tempDir(t)
	proj := project.MustNew(projectDir,
		project.WithFormats("cursor"),
		project.WithFilter(`pathBase(path) != "drop.md"`),
	)

	syncer := sync.NewSyncer(newPlanner(t, sourceDir))

	res, err := syncer.Sync(t.Context(), proj)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(projectDir, ".cursor", "rules", "keep.md")}, res.Written)
	assert.NoFileExists(t, filepath.Join(projectDir, ".cursor", "rules", "drop.md"))
}

func TestSyncerSyncAll(t *testing.T) {
	t.Parallel()

	sourceDir := tempDir(t)
	writeFiles(t, sourceDir, map[string]string{"a.md": "# A\n"})

	firstDir := tempDir(t)
	secondDir := tempDir(t)

	syncer := sync.NewSyncer(newPlanner(t, sourceDir))

	t.Run("all succeed", func(t *testing.T) {
		t.Parallel()

		results, err := syncer.SyncAll(t.Context(), []*project.Project{
			project.MustNew(firstDir, project.WithFormats("agents")),
			project.MustNew(secondDir, project.WithFormats("agents")),
		})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, firstDir, results[0].Project)
		assert.Equal(t, secondDir, results[1].Project)
	})

	t.Run("stops at first failure", func(t *testing.T) {
		t.Parallel()

		okDir := tempDir(t)

		results, err := syncer.SyncAll(t.Context(), []*project.Project{
			project.MustNew(okDir, project.WithFormats("agents")),
			project.MustNew(tempDir(t), project.WithFormats("unknown")),
		})
		require.ErrorIs(t, err, format.ErrUnknownFormat)
		assert.Len(t, results, 1)
	})
}
