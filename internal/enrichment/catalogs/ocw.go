package catalogs

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/career-roadmap/internal/fetch"
	"github.com/jonathan/career-roadmap/internal/types"
)

// DefaultOCWBaseURL is the MIT OpenCourseWare site
const DefaultOCWBaseURL = "https://ocw.mit.edu"

// OCW scrapes the MIT OpenCourseWare search page
type OCW struct {
	baseURL string
	fetcher *fetch.Client
}

// NewOCW creates an OCW catalog. An empty baseURL uses DefaultOCWBaseURL.
func NewOCW(baseURL string, fetcher *fetch.Client) *OCW {
	if baseURL == "" {
		baseURL = DefaultOCWBaseURL
	}
	if fetcher == nil {
		fetcher = fetch.NewClient(&fetch.Options{RequestsPerSecond: 1, Burst: 2})
	}
	return &OCW{baseURL: strings.TrimRight(baseURL, "/"), fetcher: fetcher}
}

func (o *OCW) Name() string { return "mit-ocw" }

func (o *OCW) Search(ctx context.Context, query string, maxResults int) ([]Resource, error) {
	searchURL := fmt.Sprintf("%s/search/?q=%s&type=course", o.baseURL, url.QueryEscape(query))
	res, err := o.fetcher.Get(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	return o.parse(res.HTML, maxResults)
}

// parse reads course cards: an anchor to /courses/<slug>/ with an optional
// summary paragraph and level badge.
func (o *OCW) parse(page string, maxResults int) ([]Resource, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OCW results: %w", err)
	}

	var out []Resource
	seen := map[string]bool{}
	doc.Find("article, .course-card, li.search-result").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if len(out) >= maxResults {
			return false
		}
		link := card.Find("a[href*='/courses/']").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		abs := o.absolute(href)
		if seen[abs] {
			return true
		}
		title := fetch.CleanWhitespace(card.Find("h2, h3, .course-title").First().Text())
		if title == "" {
			title = fetch.CleanWhitespace(link.Text())
		}
		if title == "" {
			return true
		}
		seen[abs] = true
		out = append(out, Resource{
			ID:          "ocw-" + slug(href),
			Title:       strings.ReplaceAll(title, "\n", " "),
			URL:         abs,
			Description: truncate(fetch.CleanWhitespace(card.Find("p, .course-description").First().Text()), 300),
			Provider:    "MIT OpenCourseWare",
			Difficulty:  ocwLevel(card.Find(".level, .course-level").First().Text()),
			Type:        types.ResourceCourse,
		})
		return true
	})
	return out, nil
}

func (o *OCW) absolute(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return o.baseURL + "/" + strings.TrimLeft(href, "/")
}

func slug(href string) string {
	parts := strings.Split(strings.Trim(href, "/"), "/")
	return parts[len(parts)-1]
}

// ocwLevel maps OCW level badges to resource difficulty.
func ocwLevel(level string) string {
	switch l := strings.ToLower(level); {
	case strings.Contains(l, "introductory"):
		return types.DifficultyBeginner
	case strings.Contains(l, "intermediate"), strings.Contains(l, "undergraduate"):
		return types.DifficultyIntermediate
	case strings.Contains(l, "graduate"):
		return types.DifficultyAdvanced
	}
	return ""
}
