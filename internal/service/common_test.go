package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestStringPreviewCutsOnRuneBoundaries(t *testing.T) {
	note := strings.Repeat("é", 10) + "日本語のメモ"

	got := stringPreview(note, 8)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("é", 5)+"...", got)

	assert.Equal(t, "éé", stringPreview(note, 2))
	assert.Equal(t, "short", stringPreview("  short  ", 120))
}
