// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/career-roadmap/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to n runes, ending with "..." when cut
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintMatchResult outputs the overall score, status counts and the weakest requirements.
func (p *Printer) PrintMatchResult(r *types.MatchResult) {
	if r == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("CV:       %s\n", r.CVSource))
	sb.WriteString(fmt.Sprintf("JD:       %s\n", r.JDSource))
	sb.WriteString(fmt.Sprintf("Score:    %.0f%%\n", r.OverallScore*100))
	s := r.Summary
	sb.WriteString(fmt.Sprintf("Matched:  %d / %d (partial %d, missing %d)\n",
		s.MatchedRequirements, s.TotalRequirements, s.PartiallyMatchedRequirements, s.UnmatchedRequirements))

	var gaps []types.RequirementMatch
	for _, req := range r.Requirements {
		if req.Status != types.StatusMatched {
			gaps = append(gaps, req)
		}
	}
	if len(gaps) > 0 {
		sb.WriteString("\nGaps:\n")
		count := min(len(gaps), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s (%.2f)\n", gaps[i].Requirement, gaps[i].MatchScore))
		}
		if len(gaps) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(gaps)-maxItemsToShow))
		}
	}

	if len(r.Recommendations) > 0 {
		sb.WriteString("\nRecommendations:\n")
		count := min(len(r.Recommendations), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", r.Recommendations[i]))
		}
	}

	p.printBox("MATCH RESULT", strings.TrimSuffix(sb.String(), "\n"))
}

// statusMark is the one-character marker for a module status
func statusMark(s types.ModuleStatus) string {
	switch s {
	case types.ModuleCompleted:
		return "✓"
	case types.ModuleInProgress:
		return "▸"
	case types.ModuleAvailable:
		return "○"
	default:
		return "·"
	}
}

// PrintRoadmap outputs stages and modules with their status and resource counts.
func (p *Printer) PrintRoadmap(rm *types.Roadmap) {
	if rm == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Category: %s\n", rm.Category))
	if rm.EstimatedCompletionTime != "" {
		sb.WriteString(fmt.Sprintf("Estimate: %s\n", rm.EstimatedCompletionTime))
	}
	sb.WriteString(fmt.Sprintf("Progress: %.0f%%\n", rm.OverallProgress))

	for _, stage := range rm.Stages {
		sb.WriteString(fmt.Sprintf("\n%d. %s\n", stage.Order, stage.Name))
		for _, m := range stage.Modules {
			sb.WriteString(fmt.Sprintf("  %s %s", statusMark(m.Status), m.Title))
			if len(m.Resources) > 0 {
				sb.WriteString(fmt.Sprintf(" [%d resources]", len(m.Resources)))
			}
			sb.WriteString("\n")
		}
	}

	p.printBox(strings.ToUpper(rm.Title), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDocuments outputs the user's ingested documents.
func (p *Printer) PrintDocuments(docs []types.DocumentSummary) {
	if len(docs) == 0 {
		return
	}

	var sb strings.Builder
	for _, d := range docs {
		sb.WriteString(fmt.Sprintf("%s  %-7s %3d chunks  %s\n", d.DocumentID.String()[:8], d.Type, d.Chunks, d.Source))
	}
	p.printBox("DOCUMENTS", strings.TrimSuffix(sb.String(), "\n"))
}
