package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "   \n  \n  ", ""},
		{"collapses inner spaces", "Line    with \t multiple    spaces", "Line with multiple spaces"},
		{"caps blank runs", "Line 1\n\n\n\n\nLine 2", "Line 1\n\nLine 2"},
		{"normalizes line endings", "Line 1\r\nLine 2\rLine 3\nLine 4", "Line 1\nLine 2\nLine 3\nLine 4"},
		{"headings lose indentation", "# Title\n   ##   Sub", "# Title\n## Sub"},
		{"bullets lose indentation", "Skills\n  - Go\n\t* SQL\n    ◦  Docker", "Skills\n- Go\n* SQL\n◦ Docker"},
		{"plain lines keep indentation", "Intro\n    nested   detail", "Intro\n    nested detail"},
		{"unicode survives", "émojis 🚀  and  spéciàl", "émojis 🚀 and spéciàl"},
		{"nbsp and nul", "Skills:\n    •   Go,\u00a0Python\n  - SQL\x00", "Skills:\n• Go, Python\n- SQL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.input))
		})
	}
}

func TestIsBulletLine(t *testing.T) {
	assert.True(t, isBulletLine("  • Kubernetes"))
	assert.True(t, isBulletLine("- Go"))
	assert.False(t, isBulletLine("-Go"))
	assert.False(t, isBulletLine("Experience"))
}
