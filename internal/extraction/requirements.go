// Package extraction turns raw job descriptions and résumés into typed chunks
// for semantic matching.
package extraction

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jonathan/career-roadmap/internal/types"
)

// ErrNoRequirements is returned when a job description yields nothing to match.
var ErrNoRequirements = errors.New("no requirements found")

// ErrNoSections is returned when a résumé yields nothing to match against.
var ErrNoSections = errors.New("no sections found")

const (
	// MaxRequirements caps the requirements extracted from one description.
	MaxRequirements = 30

	minStructuredLen = 15
	minSentenceLen   = 25
	maxSentenceLen   = 500
	minLeadInLen     = 3

	// ChunkSize and ChunkOverlap are used by the fixed-size fallback tier.
	ChunkSize    = 300
	ChunkOverlap = 100
)

var (
	bulletPrefix  = regexp.MustCompile(`^\s*(?:[•\-\*–·▪◦●]|\d{1,2}[\.\)])\s+`)
	leadIn        = regexp.MustCompile(`(?i)\b(?:requires|required|requirements|must have|must-have|you have|we expect)\s*:\s*`)
	sentenceSplit = regexp.MustCompile(`[.!?;\n]+`)
)

// ExtractRequirements extracts typed requirements from a job description.
// Tiers are tried in order: bullet or lead-in lines (at least two), sentences
// (at least one), then fixed-size chunks.
func ExtractRequirements(text string) ([]types.Requirement, error) {
	text = normalize(text)
	if text == "" {
		return nil, ErrNoRequirements
	}

	items := structuredLines(text)
	if len(items) < 2 {
		items = sentences(text)
	}
	if len(items) < 1 {
		items = ChunkText(text, ChunkSize, ChunkOverlap)
	}
	if len(items) == 0 {
		return nil, ErrNoRequirements
	}
	if len(items) > MaxRequirements {
		items = items[:MaxRequirements]
	}

	reqs := make([]types.Requirement, 0, len(items))
	for _, item := range items {
		reqs = append(reqs, types.Requirement{Text: item, Type: ClassifyRequirement(item)})
	}
	return reqs, nil
}

func structuredLines(text string) []string {
	seen := newDedupe()
	var out []string
	for _, line := range strings.Split(text, "\n") {
		switch {
		case bulletPrefix.MatchString(line):
			item := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
			item = strings.TrimRight(item, ".;,")
			if runeLen(item) >= minStructuredLen && seen.add(item) {
				out = append(out, item)
			}
		case leadIn.MatchString(line):
			for _, clause := range splitLeadIns(line) {
				if runeLen(clause) >= minStructuredLen && seen.add(clause) {
					out = append(out, clause)
				}
			}
		}
	}
	return out
}

// splitLeadIns splits "Requires: A. Requires: B" into ["A", "B"].
func splitLeadIns(line string) []string {
	parts := leadIn.Split(line, -1)
	var out []string
	for i, p := range parts {
		if i == 0 {
			continue // text before the first lead-in
		}
		p = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(p), ".;,"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sentences(text string) []string {
	seen := newDedupe()
	var out []string
	for _, s := range sentenceSplit.Split(text, -1) {
		s = strings.TrimSpace(bulletPrefix.ReplaceAllString(s, ""))
		if s == "" {
			continue
		}
		if loc := leadIn.FindStringIndex(s); loc != nil {
			rest := strings.TrimSpace(s[loc[1]:])
			if runeLen(rest) >= minLeadInLen && seen.add(rest) {
				out = append(out, rest)
			}
			continue
		}
		n := runeLen(s)
		if n >= minSentenceLen && n < maxSentenceLen && seen.add(s) {
			out = append(out, s)
		}
	}
	return out
}

type dedupe map[string]struct{}

func newDedupe() dedupe { return dedupe{} }

// add records s case-insensitively and reports whether it was new.
func (d dedupe) add(s string) bool {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if _, ok := d[key]; ok {
		return false
	}
	d[key] = struct{}{}
	return true
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSpace(text)
}
