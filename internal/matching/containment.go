package matching

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`[a-z0-9][a-z0-9+#.]*`)

// fillerWords are dropped when reducing a requirement to its core phrase.
var fillerWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "of": {}, "in": {}, "with": {}, "for": {},
	"to": {}, "on": {}, "at": {}, "as": {}, "is": {}, "are": {}, "be": {}, "using": {},
	"experience": {}, "experienced": {}, "knowledge": {}, "understanding": {}, "proficiency": {},
	"proficient": {}, "strong": {}, "solid": {}, "good": {}, "excellent": {}, "deep": {},
	"familiarity": {}, "familiar": {}, "skills": {}, "skill": {}, "ability": {}, "years": {},
	"year": {}, "plus": {}, "required": {}, "preferred": {}, "must": {}, "have": {}, "nice": {},
	"working": {}, "hands-on": {}, "expertise": {},
}

func coreTokens(text string) []string {
	var out []string
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		w = strings.TrimRight(w, ".")
		if w == "" {
			continue
		}
		if _, filler := fillerWords[w]; filler {
			continue
		}
		if isNumber(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func wordSet(text string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		set[strings.TrimRight(w, ".")] = struct{}{}
	}
	return set
}

// contains reports whether every core token of the requirement appears in
// the section. A short section inside a long requirement does not count.
func contains(reqText, secText string) bool {
	return subsetOf(coreTokens(reqText), wordSet(secText))
}

func subsetOf(tokens []string, set map[string]struct{}) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

func isNumber(w string) bool {
	for _, r := range w {
		if (r < '0' || r > '9') && r != '+' {
			return false
		}
	}
	return true
}
