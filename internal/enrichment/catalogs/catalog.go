// Package catalogs searches external learning-resource catalogs.
package catalogs

import (
	"context"
	"strings"

	"github.com/jonathan/career-roadmap/internal/types"
)

// Resource is a catalog search hit
type Resource struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	URL         string             `json:"url"`
	Description string             `json:"description,omitempty"`
	Provider    string             `json:"provider,omitempty"`
	Difficulty  string             `json:"difficulty,omitempty"`
	Type        types.ResourceType `json:"type"`
}

// Catalog is a searchable source of learning resources
type Catalog interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Resource, error)
}

// Static is an in-memory catalog. Search returns entries whose title or
// description shares a word with the query.
type Static struct {
	name    string
	entries []Resource
	err     error
}

// NewStatic creates a Static catalog
func NewStatic(name string, entries ...Resource) *Static {
	return &Static{name: name, entries: entries}
}

// Failing returns a Static catalog whose searches fail with err
func Failing(name string, err error) *Static {
	return &Static{name: name, err: err}
}

func (s *Static) Name() string { return s.name }

func (s *Static) Search(ctx context.Context, query string, maxResults int) ([]Resource, error) {
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	words := strings.Fields(strings.ToLower(query))
	var out []Resource
	for _, e := range s.entries {
		if len(out) == maxResults {
			break
		}
		hay := strings.ToLower(e.Title + " " + e.Description)
		for _, w := range words {
			if len(w) > 2 && strings.Contains(hay, w) {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
