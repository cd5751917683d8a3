package yaml_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goccyyaml "github.com/goccy/go-yaml"

	"github.com/macropower/rat/pkg/yaml"
)

func TestValidationErrorMessage(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		want string
		err  yaml.Error
	}{
		"with path": {
			err: yaml.Error{
				Err:  errors.New("expected string, but got number"),
				Path: buildPath(t, "projects", "path"),
			},
			want: "error at $.projects.path: expected string, but got number",
		},
		"without path": {
			err: yaml.Error{
				Err: errors.New("document is not valid"),
			},
			want: "document is not valid",
		},
		"empty detail": {
			err: yaml.Error{
				Err:  errors.New(""),
				Path: buildPath(t, "rules"),
			},
			want: "error at $.rules: ",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}

func TestNewValidator(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		errMsg     string
		schemaData []byte
		wantErr    bool
	}{
		"valid schema": {
			schemaData: []byte(`{
				"type": "object",
				"properties": {
					"source": {"type": "string"},
					"rules": {"type": "array"}
				},
				"required": ["source"]
			}`),
			wantErr: false,
		},
		"invalid json": {
			schemaData: []byte(`{"type": object}`),
			wantErr:    true,
			errMsg:     "unmarshal schema",
		},
		"schema that does not compile": {
			schemaData: []byte(`{"type": "document"}`),
			wantErr:    true,
			errMsg:     "compile schema",
		},
		"empty schema": {
			schemaData: []byte(`{}`),
			wantErr:    false,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			validator, err := yaml.NewValidator("test.json", tc.schemaData)

			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
				assert.Nil(t, validator)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, validator)
			}
		})
	}
}

func TestValidatorValidate(t *testing.T) {
	t.Parallel()

	// Shaped like a small project configuration so failures land on
	// realistic paths.
	schemaData := []byte(`{
		"type": "object",
		"properties": {
			"source": {"type": "string"},
			"rules": {
				"type": "array",
				"items": {"type": "string"}
			},
			"projects": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"path": {"type": "string"},
						"rules": {
							"type": "array",
							"items": {"type": "string"}
						},
						"formats": {
							"type": "object",
							"properties": {
								"name": {"type": "string"},
								"outputs": {
									"type": "array",
									"items": {"type": "string"}
								}
							},
							"required": ["name"]
						}
					},
					"required": ["path", "formats"]
				}
			},
			"ruleGroups": {
				"type": "array",
				"items": {
					"type": "array",
					"items": {"type": "string"}
				}
			}
		},
		"required": ["source"]
	}`)

	validator, err := yaml.NewValidator("test.json", schemaData)
	require.NoError(t, err)

	tcs := map[string]struct {
		data     any
		wantPath string
		wantErr  bool
	}{
		"valid document": {
			data: map[string]any{
				"source": "~/rules",
				"rules":  []any{"go.md", "testing.md"},
			},
			wantErr: false,
		},
		"missing required field": {
			data: map[string]any{
				"rules": []any{"go.md"},
			},
			wantErr:  true,
			wantPath: "$",
		},
		"wrong type for source": {
			data: map[string]any{
				"source": 123,
			},
			wantErr:  true,
			wantPath: "$.source",
		},
		"wrong item type in rules": {
			data: map[string]any{
				"source": "~/rules",
				"rules":  []any{"go.md", 7, "testing.md"},
			},
			wantErr:  true,
			wantPath: "$.rules[1]",
		},
		"valid projects": {
			data: map[string]any{
				"source": "~/rules",
				"projects": []any{
					map[string]any{
						"path": "/src/api",
						"formats": map[string]any{
							"name": "claude",
						},
					},
					map[string]any{
						"path":  "/src/docs",
						"rules": []any{"style.md"},
						"formats": map[string]any{
							"name":    "cursor",
							"outputs": []any{".cursor/rules"},
						},
					},
				},
			},
			wantErr: false,
		},
		"missing name in formats": {
			data: map[string]any{
				"source": "~/rules",
				"projects": []any{
					map[string]any{
						"path": "/src/api",
						"formats": map[string]any{
							"outputs": []any{"CLAUDE.md"},
						},
					},
				},
			},
			wantErr:  true,
			wantPath: "$.projects[0].formats",
		},
		"wrong type inside an array of objects": {
			data: map[string]any{
				"source": "~/rules",
				"projects": []any{
					map[string]any{
						"path": "/src/api",
						"formats": map[string]any{
							"name": "claude",
						},
					},
					map[string]any{
						"path": 42,
						"formats": map[string]any{
							"name": "cursor",
						},
					},
				},
			},
			wantErr:  true,
			wantPath: "$.projects[1].path",
		},
		"missing required field in second project": {
			data: map[string]any{
				"source": "~/rules",
				"projects": []any{
					map[string]any{
						"path": "/src/api",
						"formats": map[string]any{
							"name": "claude",
						},
					},
					map[string]any{
						"path": "/src/docs",
					},
				},
			},
			wantErr:  true,
			wantPath: "$.projects[1]",
		},
		"wrong type deep in outputs": {
			data: map[string]any{
				"source": "~/rules",
				"projects": []any{
					map[string]any{
						"path": "/src/api",
						"formats": map[string]any{
							"name":    "claude",
							"outputs": []any{"CLAUDE.md", 9, "AGENTS.md"},
						},
					},
				},
			},
			wantErr:  true,
			wantPath: "$.projects[0].formats.outputs[1]",
		},
		"valid rule groups": {
			data: map[string]any{
				"source": "~/rules",
				"ruleGroups": []any{
					[]any{"go.md", "testing.md"},
					[]any{"style.md"},
				},
			},
			wantErr: false,
		},
		"wrong type in a rule group": {
			data: map[string]any{
				"source": "~/rules",
				"ruleGroups": []any{
					[]any{"go.md", "testing.md"},
					[]any{"style.md", 3},
				},
			},
			wantErr:  true,
			wantPath: "$.ruleGroups[1][1]",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := validator.Validate(tc.data)

			if !tc.wantErr {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)

			var validationErr *yaml.Error
			require.ErrorAs(t, err, &validationErr)
			require.NotNil(t, validationErr.Path)
			assert.Equal(t, tc.wantPath, validationErr.Path.String())
		})
	}
}

func buildPath(t *testing.T, children ...string) *goccyyaml.Path {
	t.Helper()

	pathStr := "$"
	for _, child := range children {
		pathStr += "." + child
	}

	path, err := goccyyaml.PathString(pathStr)
	require.NoError(t, err)

	return path
}
