package matching

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/career-roadmap/internal/types"
)

const maxGapRecommendations = 3

// Recommendations produces the textual advice attached to a MatchResult.
func Recommendations(result *types.MatchResult) []string {
	var recs []string

	gaps := 0
	for _, rm := range result.Requirements {
		if gaps == maxGapRecommendations {
			break
		}
		if rm.Status != types.StatusNotMatched {
			continue
		}
		if rm.RequirementType != types.RequirementSkill && rm.RequirementType != types.RequirementExperience {
			continue
		}
		recs = append(recs, "Consider developing: "+rm.Requirement)
		gaps++
	}

	if n := result.Summary.PartiallyMatchedRequirements; n > 0 {
		noun := "requirements are"
		if n == 1 {
			noun = "requirement is"
		}
		recs = append(recs, fmt.Sprintf("%d %s only partially matched; add concrete examples to your CV to strengthen them.", n, noun))
	}

	switch {
	case result.OverallScore < 0.5:
		recs = append(recs, "Your profile has low alignment with this role; focus on the missing requirements before applying.")
	case result.OverallScore < 0.7:
		recs = append(recs, "Your profile partially aligns with this role; closing a few gaps would make you a strong candidate.")
	default:
		recs = append(recs, "Your profile aligns well with this role.")
	}
	return recs
}

// SkillGaps lists requirements not fully matched, weighted by how far they
// are from matched. Skill and experience gaps come first.
func SkillGaps(result *types.MatchResult) []types.SkillGap {
	var gaps []types.SkillGap
	for _, rm := range result.Requirements {
		var weight float64
		switch rm.Status {
		case types.StatusNotMatched:
			weight = 1.0
		case types.StatusPartiallyMatched:
			weight = 0.5
		default:
			continue
		}
		gaps = append(gaps, types.SkillGap{
			Requirement: rm.Requirement,
			Type:        rm.RequirementType,
			Status:      rm.Status,
			Score:       rm.MatchScore,
			Weight:      weight,
		})
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		pi, pj := typePriority(gaps[i].Type), typePriority(gaps[j].Type)
		if pi != pj {
			return pi < pj
		}
		return gaps[i].Weight > gaps[j].Weight
	})
	return gaps
}

func typePriority(t types.RequirementType) int {
	switch t {
	case types.RequirementSkill, types.RequirementExperience:
		return 0
	case types.RequirementQualification:
		return 1
	default:
		return 2
	}
}

// FormatGaps renders skill gaps as the context string handed to roadmap
// generation.
func FormatGaps(gaps []types.SkillGap) string {
	if len(gaps) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Skill gaps identified from CV/JD analysis:\n")
	for _, g := range gaps {
		fmt.Fprintf(&b, "- %s (%s, %s, importance %.1f)\n", g.Requirement, g.Type, strings.ReplaceAll(string(g.Status), "_", " "), g.Weight)
	}
	return strings.TrimRight(b.String(), "\n")
}
