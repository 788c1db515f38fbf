package extraction

import (
	"strings"

	"github.com/jonathan/career-roadmap/internal/types"
)

// ExtractSections splits a résumé into typed sections. Content under a
// recognised header runs until the next header. Without any header the text
// falls back to sentences and then fixed-size chunks typed as other.
func ExtractSections(text string) ([]types.CVSection, error) {
	text = normalize(text)
	if text == "" {
		return nil, ErrNoSections
	}

	sections := headerSections(text)
	if len(sections) == 0 {
		for _, s := range sentences(text) {
			sections = append(sections, types.CVSection{Text: s, Type: types.SectionOther})
		}
	}
	if len(sections) == 0 {
		for _, c := range ChunkText(text, ChunkSize, ChunkOverlap) {
			sections = append(sections, types.CVSection{Text: c, Type: types.SectionOther})
		}
	}
	if len(sections) == 0 {
		return nil, ErrNoSections
	}
	return sections, nil
}

func headerSections(text string) []types.CVSection {
	var (
		out     []types.CVSection
		current *types.CVSection
		body    []string
		found   bool
	)
	flush := func() {
		if current == nil {
			return
		}
		content := strings.TrimSpace(strings.Join(body, "\n"))
		if content != "" {
			current.Text = content
			out = append(out, *current)
		}
		current, body = nil, nil
	}

	var preamble []string
	for _, line := range strings.Split(text, "\n") {
		if kind, inline, ok := matchHeader(line); ok {
			found = true
			flush()
			current = &types.CVSection{Type: kind}
			if s := strings.TrimSpace(inline); s != "" {
				body = append(body, s)
			}
			continue
		}
		if current == nil {
			preamble = append(preamble, line)
			continue
		}
		body = append(body, line)
	}
	flush()

	if !found {
		return nil
	}
	// Text above the first header (name, contact line, pitch) is kept as a summary.
	if p := strings.TrimSpace(strings.Join(preamble, "\n")); runeLen(p) >= minSentenceLen {
		out = append([]types.CVSection{{Text: p, Type: types.SectionSummary}}, out...)
	}
	return out
}
