package catalogs

import (
	"context"

	"google.golang.org/api/option"

	"github.com/jonathan/career-roadmap/internal/cache"
	"github.com/jonathan/career-roadmap/internal/config"
	"github.com/jonathan/career-roadmap/internal/logger"
)

// FromConfig builds the enabled catalogs in ranking order, each wrapped with
// the shared cache. Catalogs that fail to initialise are skipped and logged.
func FromConfig(ctx context.Context, cfg config.EnrichmentConfig, c *cache.Cache, log *logger.Logger) []Catalog {
	log = logger.OrNop(log)
	var out []Catalog

	if cfg.YouTubeAPIKey != "" {
		yt, err := NewYouTube(ctx, option.WithAPIKey(cfg.YouTubeAPIKey))
		if err != nil {
			log.Warn("youtube catalog disabled", "error", err)
		} else {
			out = append(out, yt)
		}
	}

	bookOpts := []option.ClientOption{option.WithoutAuthentication()}
	if cfg.BooksAPIKey != "" {
		bookOpts = []option.ClientOption{option.WithAPIKey(cfg.BooksAPIKey)}
	}
	if b, err := NewBooks(ctx, bookOpts...); err != nil {
		log.Warn("books catalog disabled", "error", err)
	} else {
		out = append(out, b)
	}

	if cfg.EnableOCW {
		out = append(out, NewOCW("", nil))
	}
	if cfg.EnableCoursera {
		out = append(out, NewCoursera("", nil))
	}

	for i := range out {
		out[i] = NewCached(out[i], c)
	}
	names := make([]string, 0, len(out))
	for _, cat := range out {
		names = append(names, cat.Name())
	}
	log.Info("learning catalogs configured", "catalogs", names)
	return out
}
