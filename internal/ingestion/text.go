package ingestion

import (
	"regexp"
	"strings"
)

var (
	multiSpace  = regexp.MustCompile(`[ \t\f\v]+`)
	blankLines  = regexp.MustCompile(`\n\n\n+`)
	bulletRunes = []string{"- ", "* ", "• ", "· ", "◦ "}
)

// CleanText normalizes extracted document text while keeping the line
// structure the extractors rely on (headings and bullets).
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\u00a0", " ")
	content = strings.ReplaceAll(content, "\x00", "")

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		cleaned = append(cleaned, cleanLine(line))
	}

	result := blankLines.ReplaceAllString(strings.Join(cleaned, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine collapses runs of spaces. Bullets and headings lose their
// indentation; other lines keep it.
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "#") || isBulletLine(trimmed) {
		return multiSpace.ReplaceAllString(trimmed, " ")
	}
	indent := len(line) - len(trimmed)
	return strings.Repeat(" ", indent) + multiSpace.ReplaceAllString(trimmed, " ")
}

func isBulletLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	for _, b := range bulletRunes {
		if strings.HasPrefix(trimmed, b) {
			return true
		}
	}
	return false
}
