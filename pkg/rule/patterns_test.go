package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/macropower/rat/pkg/rule"
)

func TestSplitPatterns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		patterns     []string
		wantPositive []string
		wantNegative []string
	}{
		{
			name:         "mixed positive and negative",
			patterns:     []string{"go/**/*.md", "!go/wip.md", "docs/*.md"},
			wantPositive: []string{"go/**/*.md", "docs/*.md"},
			wantNegative: []string{"go/wip.md"},
		},
		{
			name:         "blank entries dropped",
			patterns:     []string{"", "  ", "go/*.md", "\t"},
			wantPositive: []string{"go/*.md"},
			wantNegative: nil,
		},
		{
			name:         "empty list defaults to all markdown",
			patterns:     nil,
			wantPositive: []string{rule.DefaultPattern},
			wantNegative: nil,
		},
		{
			name:         "all blank defaults to all markdown",
			patterns:     []string{"", "   "},
			wantPositive: []string{rule.DefaultPattern},
			wantNegative: nil,
		},
		{
			name:         "negatives only keep negatives with default positive",
			patterns:     []string{"!secret/**"},
			wantPositive: []string{rule.DefaultPattern},
			wantNegative: []string{"secret/**"},
		},
		{
			name:         "bare exclamation dropped",
			patterns:     []string{"!", "! "},
			wantPositive: []string{rule.DefaultPattern},
			wantNegative: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ps := rule.SplitPatterns(tt.patterns)
			assert.Equal(t, tt.wantPositive, ps.Positive)
			assert.Equal(t, tt.wantNegative, ps.Negative)
		})
	}
}
