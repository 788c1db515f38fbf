package extraction

import (
	"regexp"

	"github.com/jonathan/career-roadmap/internal/types"
)

var (
	experiencePattern    = regexp.MustCompile(`(?i)\b(\d+\+?\s*years?|years?\s+of|experience|experienced|worked|track record|background in|hands-on)\b`)
	qualificationPattern = regexp.MustCompile(`(?i)\b(degree|bachelor'?s?|master'?s?|ph\.?d|diploma|certif\w*|licen[cs]e\w*|graduate|university|b\.?sc|m\.?sc)\b`)
	skillPattern         = regexp.MustCompile(`(?i)(\bproficien\w*|\bknowledge of\b|\bfamiliar\w*|\bskill\w*|\bability to\b|\bexpertise\b|\bfluent\b|\bleadership\b|\bcommunication\b|\bteamwork\b|\bproblem[- ]solving\b|\b(python|java|javascript|typescript|golang|rust|c\+\+|c#|sql|nosql|react|angular|vue|node(\.js)?|django|flask|spring|docker|kubernetes|aws|azure|gcp|terraform|linux|git|kafka|spark|hadoop|pandas|tensorflow|pytorch|machine learning|html|css|graphql|redis|postgres\w*|mongodb)\b)`)
)

// ClassifyRequirement assigns a requirement type by keyword. Experience wins
// over qualification, which wins over skill.
func ClassifyRequirement(text string) types.RequirementType {
	switch {
	case experiencePattern.MatchString(text):
		return types.RequirementExperience
	case qualificationPattern.MatchString(text):
		return types.RequirementQualification
	case skillPattern.MatchString(text):
		return types.RequirementSkill
	default:
		return types.RequirementOther
	}
}

var sectionHeaders = []struct {
	pattern *regexp.Regexp
	kind    types.SectionType
}{
	{regexp.MustCompile(`(?i)^(technical\s+skills|core\s+competencies|key\s+skills|skills(\s+(&|and)\s+\w+)?|competencies|technologies|tech\s+stack)$`), types.SectionSkills},
	{regexp.MustCompile(`(?i)^(work\s+experience|professional\s+experience|experience|employment(\s+history)?|work\s+history|career\s+history|projects)$`), types.SectionExperience},
	{regexp.MustCompile(`(?i)^(education(\s+(&|and)\s+\w+)?|academic(\s+background)?|qualifications|certifications?|training)$`), types.SectionEducation},
	{regexp.MustCompile(`(?i)^(summary|professional\s+summary|profile|personal\s+profile|objective|career\s+objective|about(\s+me)?)$`), types.SectionSummary},
}

// headerLine matches "Header", "HEADER:", "Header: inline content" and
// markdown-style "## Header".
var headerLine = regexp.MustCompile(`^\s*#{0,3}\s*([A-Za-z][A-Za-z &]{1,40}?)\s*(?::\s*(.*))?$`)

// matchHeader reports whether line is a section header and returns the
// section type and any inline content following a colon.
func matchHeader(line string) (types.SectionType, string, bool) {
	m := headerLine.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	for _, h := range sectionHeaders {
		if h.pattern.MatchString(m[1]) {
			return h.kind, m[2], true
		}
	}
	return "", "", false
}
