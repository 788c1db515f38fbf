package enrichment

import (
	"net/url"
	"sort"
	"strings"

	"github.com/jonathan/career-roadmap/internal/enrichment/catalogs"
	"github.com/jonathan/career-roadmap/internal/types"
)

// affinity scores resource types per learning style; higher ranks first.
var affinity = map[types.LearningStyle]map[types.ResourceType]int{
	types.StyleVisual: {
		types.ResourceVideo:   3,
		types.ResourceCourse:  2,
		types.ResourceProject: 1,
	},
	types.StyleReading: {
		types.ResourceArticle: 3,
		types.ResourceBook:    3,
		types.ResourceCourse:  1,
	},
	types.StyleHandsOn: {
		types.ResourceProject: 3,
		types.ResourceCourse:  2,
		types.ResourceQuiz:    2,
		types.ResourceVideo:   1,
	},
	types.StyleAuditory: {
		types.ResourcePodcast: 3,
		types.ResourceVideo:   2,
		types.ResourceCourse:  1,
	},
}

// Affinity returns how well a resource type suits a learning style.
// Mixed and unknown styles score every type equally.
func Affinity(style types.LearningStyle, t types.ResourceType) int {
	return affinity[style][t]
}

// Merge concatenates catalog results in order, dropping entries without a
// URL and repeated URLs, and tags each with a difficulty.
func Merge(results ...[]catalogs.Resource) []catalogs.Resource {
	var out []catalogs.Resource
	seen := map[string]bool{}
	for _, list := range results {
		for _, r := range list {
			key := normalizeURL(r.URL)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			if r.Difficulty == "" {
				r.Difficulty = InferDifficulty(r.Title + " " + r.Description)
			}
			out = append(out, r)
		}
	}
	return out
}

// Rank orders resources by learning-style affinity, keeping merge order
// between equal scores.
func Rank(resources []catalogs.Resource, style types.LearningStyle) []catalogs.Resource {
	ranked := append([]catalogs.Resource(nil), resources...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Affinity(style, ranked[i].Type) > Affinity(style, ranked[j].Type)
	})
	return ranked
}

var (
	beginnerWords     = []string{"beginner", "introduction", "intro to", "basics", "fundamentals", "getting started", "crash course", "101", "for everyone", "first steps"}
	advancedWords     = []string{"advanced", "expert", "mastering", "deep dive", "in-depth", "internals", "graduate", "optimization", "at scale"}
	intermediateWords = []string{"intermediate", "practical", "hands-on", "in practice", "projects"}
)

// InferDifficulty guesses a difficulty from resource text. Advanced markers
// win over beginner ones; text with no marker is intermediate.
func InferDifficulty(text string) string {
	t := strings.ToLower(text)
	for _, w := range advancedWords {
		if strings.Contains(t, w) {
			return types.DifficultyAdvanced
		}
	}
	for _, w := range beginnerWords {
		if strings.Contains(t, w) {
			return types.DifficultyBeginner
		}
	}
	for _, w := range intermediateWords {
		if strings.Contains(t, w) {
			return types.DifficultyIntermediate
		}
	}
	return types.DifficultyIntermediate
}

func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}
	u.Scheme = "https"
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}
