package data

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateSnippet(t *testing.T) {
	tests := []struct {
		name    string
		content string
		max     int
		want    string
	}{
		{"short content untouched", "hello", 500, "hello"},
		{"exact length untouched", "abcde", 5, "abcde"},
		{"ascii cut at limit", "abcdef", 4, "abcd"},
		{"empty", "", 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncateSnippet(tt.content, tt.max))
		})
	}
}

func TestTruncateSnippetKeepsRunesIntact(t *testing.T) {
	// each character is 3 bytes; a byte-based cut at 500 would land
	// mid-rune and emit invalid UTF-8
	content := strings.Repeat("知识库搜索", 50)
	assert.Greater(t, len(content), snippetMaxBytes)

	got := truncateSnippet(content, snippetMaxBytes)

	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), snippetMaxBytes)
	assert.True(t, strings.HasPrefix(content, got))

	// 500 is not a multiple of 3, so the cut must back up to a boundary
	assert.Equal(t, 498, len(got))
}
