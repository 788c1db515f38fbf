package catalogs

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jonathan/career-roadmap/internal/fetch"
	"github.com/jonathan/career-roadmap/internal/types"
)

// DefaultCourseraBaseURL is the public Coursera catalog API
const DefaultCourseraBaseURL = "https://api.coursera.org/api"

// Coursera searches the Coursera course catalog API
type Coursera struct {
	baseURL string
	fetcher *fetch.Client
}

type courseraResponse struct {
	Elements []struct {
		ID          string   `json:"id"`
		Slug        string   `json:"slug"`
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Partners    []string `json:"partnerIds"`
		Level       string   `json:"difficultyLevel"`
	} `json:"elements"`
}

// NewCoursera creates a Coursera catalog. An empty baseURL uses DefaultCourseraBaseURL.
func NewCoursera(baseURL string, fetcher *fetch.Client) *Coursera {
	if baseURL == "" {
		baseURL = DefaultCourseraBaseURL
	}
	if fetcher == nil {
		fetcher = fetch.NewClient(&fetch.Options{RequestsPerSecond: 2, Burst: 2})
	}
	return &Coursera{baseURL: strings.TrimRight(baseURL, "/"), fetcher: fetcher}
}

func (c *Coursera) Name() string { return "coursera" }

func (c *Coursera) Search(ctx context.Context, query string, maxResults int) ([]Resource, error) {
	q := url.Values{}
	q.Set("q", "search")
	q.Set("query", query)
	q.Set("limit", fmt.Sprint(maxResults))
	q.Set("fields", "slug,name,description,difficultyLevel")

	var resp courseraResponse
	if err := c.fetcher.GetJSON(ctx, c.baseURL+"/courses.v1?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	out := make([]Resource, 0, len(resp.Elements))
	for _, e := range resp.Elements {
		if e.Slug == "" || e.Name == "" {
			continue
		}
		out = append(out, Resource{
			ID:          "coursera-" + e.ID,
			Title:       e.Name,
			URL:         "https://www.coursera.org/learn/" + e.Slug,
			Description: truncate(e.Description, 300),
			Provider:    "Coursera",
			Difficulty:  courseraLevel(e.Level),
			Type:        types.ResourceCourse,
		})
		if len(out) == maxResults {
			break
		}
	}
	return out, nil
}

func courseraLevel(level string) string {
	switch strings.ToUpper(level) {
	case "BEGINNER":
		return types.DifficultyBeginner
	case "INTERMEDIATE":
		return types.DifficultyIntermediate
	case "ADVANCED":
		return types.DifficultyAdvanced
	}
	return ""
}
