// Package matching scores CV sections against job requirements by embedding
// similarity.
package matching

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/embedding"
	"github.com/jonathan/career-roadmap/internal/extraction"
	"github.com/jonathan/career-roadmap/internal/logger"
	"github.com/jonathan/career-roadmap/internal/types"
)

// Embedder is the part of the embedding client the matcher needs.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Matcher computes MatchResults.
type Matcher struct {
	embedder Embedder
	cfg      Config
	log      *logger.Logger
	now      func() time.Time
}

// New creates a Matcher.
func New(embedder Embedder, cfg Config, log *logger.Logger) *Matcher {
	return &Matcher{
		embedder: embedder,
		cfg:      cfg,
		log:      logger.OrNop(log),
		now:      time.Now,
	}
}

// Match extracts requirements from jdText and sections from cvText, embeds
// both sets and scores every requirement against every section.
func (m *Matcher) Match(ctx context.Context, cvText, jdText string, userID uuid.UUID, cvSource, jdSource string) (*types.MatchResult, error) {
	reqs, err := extraction.ExtractRequirements(jdText)
	if err != nil {
		return nil, err
	}
	sections, err := extraction.ExtractSections(cvText)
	if err != nil {
		return nil, err
	}

	reqVecs, err := m.embedder.EmbedBatch(ctx, requirementTexts(reqs))
	if err != nil {
		return nil, fmt.Errorf("failed to embed requirements: %w", err)
	}
	secVecs, err := m.embedder.EmbedBatch(ctx, sectionTexts(sections))
	if err != nil {
		return nil, fmt.Errorf("failed to embed CV sections: %w", err)
	}
	if len(reqVecs) != len(reqs) || len(secVecs) != len(sections) {
		return nil, fmt.Errorf("embedding count mismatch: %w", embedding.ErrUnavailable)
	}

	matches := make([]types.RequirementMatch, len(reqs))
	for i, req := range reqs {
		matches[i] = m.scoreRequirement(req, reqVecs[i], sections, secVecs)
	}

	result := &types.MatchResult{
		ID:           uuid.New(),
		UserID:       userID,
		CVSource:     cvSource,
		JDSource:     jdSource,
		OverallScore: overallScore(matches, m.cfg.TopFraction),
		Requirements: matches,
		Summary:      summarize(matches),
		Timestamp:    m.now().UTC(),
	}
	result.Recommendations = Recommendations(result)

	m.log.Debug("match computed",
		"user_id", userID.String(),
		"requirements", len(reqs),
		"sections", len(sections),
		"overall_score", result.OverallScore,
	)
	return result, nil
}

type scored struct {
	idx int
	sim float64
}

func (m *Matcher) scoreRequirement(req types.Requirement, vec []float32, sections []types.CVSection, secVecs [][]float32) types.RequirementMatch {
	best := scored{idx: -1}
	var above []scored

	for j, sec := range sections {
		sim := m.similarity(req.Text, vec, sec.Text, secVecs[j])
		if best.idx < 0 || sim > best.sim {
			best = scored{idx: j, sim: sim}
		}
		if sim >= m.cfg.Threshold {
			above = append(above, scored{idx: j, sim: sim})
		}
	}

	// The best match stays visible even when nothing clears the threshold.
	if len(above) == 0 && best.idx >= 0 {
		above = []scored{best}
	}
	sort.SliceStable(above, func(a, b int) bool { return above[a].sim > above[b].sim })
	if len(above) > m.cfg.TopSectionsPerRequirement {
		above = above[:m.cfg.TopSectionsPerRequirement]
	}

	matched := make([]types.MatchedSection, 0, len(above))
	for _, s := range above {
		matched = append(matched, types.MatchedSection{
			CVSectionText: truncate(sections[s.idx].Text, m.cfg.SectionTextLength),
			Similarity:    round(s.sim),
			SectionType:   sections[s.idx].Type,
		})
	}

	score := 0.0
	if best.idx >= 0 {
		score = best.sim
	}
	return types.RequirementMatch{
		Requirement:     req.Text,
		RequirementType: req.Type,
		MatchedSections: matched,
		MatchScore:      round(score),
		Status:          m.status(score),
	}
}

// similarity is the cosine similarity clamped to [0,1] with the exact-match
// boost applied. When the embeddings disagree implausibly (below
// DegenerateBelow) with a verbatim containment, the containment floor is used
// instead; it sits in the partial band so it never decides a full match.
func (m *Matcher) similarity(reqText string, reqVec []float32, secText string, secVec []float32) float64 {
	sim := embedding.CosineSimilarity(reqVec, secVec)
	if sim < 0 {
		sim = 0
	}
	if strings.EqualFold(strings.TrimSpace(reqText), strings.TrimSpace(secText)) {
		sim = math.Min(1, sim+m.cfg.ExactMatchBoost)
	}
	if sim < m.cfg.DegenerateBelow && sim < m.cfg.ContainmentFloor && contains(reqText, secText) {
		sim = m.cfg.ContainmentFloor
	}
	return sim
}

func (m *Matcher) status(score float64) types.MatchStatus {
	switch {
	case score >= m.cfg.MatchedThreshold:
		return types.StatusMatched
	case score >= m.cfg.Threshold:
		return types.StatusPartiallyMatched
	default:
		return types.StatusNotMatched
	}
}

// overallScore is the mean of the top fraction of requirement scores.
func overallScore(matches []types.RequirementMatch, fraction float64) float64 {
	if len(matches) == 0 {
		return 0
	}
	scores := make([]float64, len(matches))
	for i, rm := range matches {
		scores[i] = rm.MatchScore
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))

	k := int(math.Ceil(fraction * float64(len(scores))))
	if k < 1 {
		k = 1
	}
	if k > len(scores) {
		k = len(scores)
	}
	sum := 0.0
	for _, s := range scores[:k] {
		sum += s
	}
	return round(clamp01(sum / float64(k)))
}

func summarize(matches []types.RequirementMatch) types.MatchSummary {
	s := types.MatchSummary{TotalRequirements: len(matches)}
	sum := 0.0
	for _, rm := range matches {
		sum += rm.MatchScore
		switch rm.Status {
		case types.StatusMatched:
			s.MatchedRequirements++
		case types.StatusPartiallyMatched:
			s.PartiallyMatchedRequirements++
		default:
			s.UnmatchedRequirements++
		}
	}
	if len(matches) > 0 {
		s.AverageScore = round(sum / float64(len(matches)))
	}
	return s
}

func requirementTexts(reqs []types.Requirement) []string {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Text
	}
	return out
}

func sectionTexts(sections []types.CVSection) []string {
	out := make([]string, len(sections))
	for i, s := range sections {
		out[i] = s.Text
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round(v float64) float64 {
	return math.Round(v*10000) / 10000
}
