package catalogs

import (
	"context"
	"fmt"
	"strings"

	books "google.golang.org/api/books/v1"
	"google.golang.org/api/option"

	"github.com/jonathan/career-roadmap/internal/types"
)

// Books searches the Google Books volumes API
type Books struct {
	svc *books.Service
}

// NewBooks creates a Books catalog
func NewBooks(ctx context.Context, opts ...option.ClientOption) (*Books, error) {
	svc, err := books.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create books service: %w", err)
	}
	return &Books{svc: svc}, nil
}

func (b *Books) Name() string { return "google-books" }

func (b *Books) Search(ctx context.Context, query string, maxResults int) ([]Resource, error) {
	resp, err := b.svc.Volumes.List(query).
		MaxResults(int64(maxResults)).
		PrintType("books").
		OrderBy("relevance").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("books search failed: %w", err)
	}

	out := make([]Resource, 0, len(resp.Items))
	for _, v := range resp.Items {
		info := v.VolumeInfo
		if info == nil || info.Title == "" {
			continue
		}
		title := info.Title
		if info.Subtitle != "" {
			title += ": " + info.Subtitle
		}
		link := info.InfoLink
		if link == "" {
			link = "https://books.google.com/books?id=" + v.Id
		}
		out = append(out, Resource{
			ID:          "book-" + v.Id,
			Title:       title,
			URL:         link,
			Description: truncate(info.Description, 300),
			Provider:    strings.Join(info.Authors, ", "),
			Type:        types.ResourceBook,
		})
	}
	return out, nil
}
