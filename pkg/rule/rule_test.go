package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/macropower/rat/pkg/rule"
)

func TestRuleName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "nested path",
			path: "go/style.md",
			want: "style",
		},
		{
			name: "top level",
			path: "README.md",
			want: "README",
		},
		{
			name: "no extension",
			path: "notes/scratch",
			want: "scratch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := rule.Rule{Path: tt.path}
			assert.Equal(t, tt.want, r.Name())
		})
	}
}

func TestRuleSize(t *testing.T) {
	t.Parallel()

	r := rule.Rule{Content: "# Title\n"}
	assert.Equal(t, 8, r.Size())
}
