package format_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rat/pkg/format"
	"github.com/macropower/rat/pkg/rule"
)

func TestFormatBuild(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format  *format.Format
		name    string
		wantErr string
	}{
		{
			name:   "single file",
			format: &format.Format{SingleFile: &format.SingleFile{Path: "CLAUDE.md"}},
		},
		{
			name:   "multi file",
			format: &format.Format{MultiFile: &format.MultiFile{Dir: ".cursor/rules"}},
		},
		{
			name:    "no variant",
			format:  &format.Format{},
			wantErr: "one of singleFile or multiFile",
		},
		{
			name: "both variants",
			format: &format.Format{
				SingleFile: &format.SingleFile{Path: "CLAUDE.md"},
				MultiFile:  &format.MultiFile{Dir: ".cursor/rules"},
			},
			wantErr: "mutually exclusive",
		},
		{
			name:    "single file without path",
			format:  &format.Format{SingleFile: &format.SingleFile{}},
			wantErr: "path is required",
		},
		{
			name:    "multi file without dir",
			format:  &format.Format{MultiFile: &format.MultiFile{}},
			wantErr: "dir is required",
		},
		{
			name: "invalid ignore pattern",
			format: &format.Format{
				SingleFile: &format.SingleFile{Path: "CLAUDE.md", Ignore: []string{"go/[.md"}},
			},
			wantErr: "invalid pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.format.Build()

			if tt.wantErr != "" {
				require.ErrorIs(t, err, format.ErrInvalidFormat)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, tt.format.Planner())
			}
		})
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	formats := format.DefaultFormats()

	f, err := format.Get(formats, "claude")
	require.NoError(t, err)
	assert.NotNil(t, f.SingleFile)

	_, err = format.Get(formats, "nonexistent")
	require.ErrorIs(t, err, format.ErrUnknownFormat)
}

func TestDefaultFormats(t *testing.T) {
	t.Parallel()

	formats := format.DefaultFormats()
	require.Contains(t, formats, "claude")
	require.Contains(t, formats, "agents")
	require.Contains(t, formats, "cursor")
	require.Contains(t, formats, "copilot")

	for name, f := range formats {
		assert.NotNil(t, f.Planner(), name)
	}

	assert.Equal(t, "claude", formats["claude"].Launch.Command)
}

func TestSingleFilePlan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		format      format.SingleFile
		rules       []rule.Rule
		wantContent string
	}{
		{
			name:   "two rules",
			format: format.SingleFile{Path: "CLAUDE.md", Title: "X"},
			rules: []rule.Rule{
				{Path: "a.md", Content: "# A"},
				{Path: "b.md", Content: "# B"},
			},
			wantContent: "# X\n\nTo modify rules, edit the source .md files and run sync to regenerate.\n\n# A\n\n---\n\n# B\n",
		},
		{
			name:        "no rules",
			format:      format.SingleFile{Path: "CLAUDE.md", Title: "X"},
			rules:       nil,
			wantContent: "# X\n\nNo rules configured.\n",
		},
		{
			name:   "rule bodies trimmed",
			format: format.SingleFile{Path: "CLAUDE.md", Title: "X"},
			rules: []rule.Rule{
				{Path: "a.md", Content: "\n\n# A\n\nBody.\n\n\n"},
			},
			wantContent: "# X\n\nTo modify rules, edit the source .md files and run sync to regenerate.\n\n# A\n\nBody.\n",
		},
		{
			name: "ignored rule dropped",
			format: format.SingleFile{
				Path:   "CLAUDE.md",
				Title:  "X",
				Ignore: []string{"secret/**"},
			},
			rules: []rule.Rule{
				{Path: "a.md", Content: "# A"},
				{Path: "secret/b.md", Content: "# B"},
			},
			wantContent: "# X\n\nTo modify rules, edit the source .md files and run sync to regenerate.\n\n# A\n",
		},
		{
			name: "all rules ignored falls back to placeholder",
			format: format.SingleFile{
				Path:   "CLAUDE.md",
				Title:  "X",
				Ignore: []string{"**"},
			},
			rules: []rule.Rule{
				{Path: "a.md", Content: "# A"},
			},
			wantContent: "# X\n\nNo rules configured.\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.NoError(t, tt.format.Build())

			intents := tt.format.Plan("/p", tt.rules)
			require.Len(t, intents, 1)
			assert.Equal(t, filepath.Join("/p", "CLAUDE.md"), intents[0].Path)
			assert.Equal(t, tt.wantContent, intents[0].Content)
		})
	}
}

func TestMultiFilePlan(t *testing.T) {
	t.Parallel()

	t.Run("one intent per rule, content unchanged", func(t *testing.T) {
		t.Parallel()

		f := format.MultiFile{Dir: ".tool/rules"}
		require.NoError(t, f.Build())

		intents := f.Plan("/p", []rule.Rule{
			{Path: "dir/a.md", Content: "# A\n"},
			{Path: "b.md", Content: "# B\r\n"},
		})

		require.Len(t, intents, 2)
		assert.Equal(t, filepath.Join("/p", ".tool", "rules", "dir", "a.md"), intents[0].Path)
		assert.Equal(t, "# A\n", intents[0].Content)
		assert.Equal(t, filepath.Join("/p", ".tool", "rules", "b.md"), intents[1].Path)
		assert.Equal(t, "# B\r\n", intents[1].Content)
	})

	t.Run("zero rules yield zero intents", func(t *testing.T) {
		t.Parallel()

		f := format.MultiFile{Dir: ".tool/rules"}
		require.NoError(t, f.Build())

		assert.Empty(t, f.Plan("/p", nil))
	})

	t.Run("flatten joins nested paths", func(t *testing.T) {
		t.Parallel()

		f := format.MultiFile{Dir: ".github/instructions", Flatten: true}
		require.NoError(t, f.Build())

		intents := f.Plan("/p", []rule.Rule{
			{Path: "go/deep/style.md", Content: "# S\n"},
		})

		require.Len(t, intents, 1)
		assert.Equal(t, filepath.Join("/p", ".github", "instructions", "go-deep-style.md"), intents[0].Path)
	})
}
