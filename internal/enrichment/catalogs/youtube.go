package catalogs

import (
	"context"
	"fmt"
	"html"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/jonathan/career-roadmap/internal/types"
)

// YouTube searches videos with the YouTube Data API v3
type YouTube struct {
	svc *youtube.Service
}

// NewYouTube creates a YouTube catalog. Pass option.WithAPIKey in production.
func NewYouTube(ctx context.Context, opts ...option.ClientOption) (*YouTube, error) {
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}
	return &YouTube{svc: svc}, nil
}

func (y *YouTube) Name() string { return "youtube" }

func (y *YouTube) Search(ctx context.Context, query string, maxResults int) ([]Resource, error) {
	resp, err := y.svc.Search.List([]string{"snippet"}).
		Q(query + " tutorial").
		Type("video").
		SafeSearch("strict").
		MaxResults(int64(maxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search failed: %w", err)
	}

	out := make([]Resource, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		out = append(out, Resource{
			ID:          "yt-" + item.Id.VideoId,
			Title:       html.UnescapeString(item.Snippet.Title),
			URL:         "https://www.youtube.com/watch?v=" + item.Id.VideoId,
			Description: truncate(html.UnescapeString(item.Snippet.Description), 300),
			Provider:    item.Snippet.ChannelTitle,
			Type:        types.ResourceVideo,
		})
	}
	return out, nil
}
