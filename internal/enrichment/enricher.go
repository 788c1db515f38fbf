// Package enrichment attaches learning resources from external catalogs to
// roadmap modules under per-module and global deadlines.
package enrichment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/career-roadmap/internal/config"
	"github.com/jonathan/career-roadmap/internal/enrichment/catalogs"
	"github.com/jonathan/career-roadmap/internal/logger"
	"github.com/jonathan/career-roadmap/internal/types"
)

// Options bounds enrichment work
type Options struct {
	ModuleTimeout         time.Duration
	GlobalTimeout         time.Duration
	MaxResultsPerSource   int
	MaxResourcesPerModule int
	Concurrency           int
}

// DefaultOptions returns the default bounds
func DefaultOptions() Options {
	return Options{
		ModuleTimeout:         5 * time.Second,
		GlobalTimeout:         45 * time.Second,
		MaxResultsPerSource:   3,
		MaxResourcesPerModule: 6,
		Concurrency:           4,
	}
}

// OptionsFrom builds Options from the application configuration
func OptionsFrom(ec config.EnrichmentConfig) Options {
	o := DefaultOptions()
	if ec.ModuleTimeoutSeconds > 0 {
		o.ModuleTimeout = config.Seconds(ec.ModuleTimeoutSeconds)
	}
	if ec.GlobalTimeoutSeconds > 0 {
		o.GlobalTimeout = config.Seconds(ec.GlobalTimeoutSeconds)
	}
	if ec.MaxResultsPerSource > 0 {
		o.MaxResultsPerSource = ec.MaxResultsPerSource
	}
	if ec.MaxResourcesPerModule > 0 {
		o.MaxResourcesPerModule = ec.MaxResourcesPerModule
	}
	if ec.Concurrency > 0 {
		o.Concurrency = ec.Concurrency
	}
	return o
}

// SourceStats counts the outcome of one catalog across a run
type SourceStats struct {
	Results  int `json:"results"`
	Failures int `json:"failures"`
}

// Report summarises an enrichment run
type Report struct {
	Modules   int                    `json:"modules"`
	Enriched  int                    `json:"enriched"`
	Skipped   int                    `json:"skipped"`
	TimedOut  int                    `json:"timed_out"`
	Resources int                    `json:"resources"`
	Sources   map[string]SourceStats `json:"sources"`
	Duration  time.Duration          `json:"duration"`
}

// Enricher fans module queries out to catalogs
type Enricher struct {
	catalogs []catalogs.Catalog
	opts     Options
	log      *logger.Logger
	now      func() time.Time
}

// New creates an Enricher. Catalog order is the ranking tie-break.
func New(cats []catalogs.Catalog, opts Options, log *logger.Logger) *Enricher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Enricher{catalogs: cats, opts: opts, log: logger.OrNop(log), now: time.Now}
}

type moduleOutcome struct {
	resources []types.LearningResource
	sources   map[string]SourceStats
	timedOut  bool
	skipped   bool
}

// Enrich replaces the resources of every module of rm. Stages are processed
// in order and the modules of a stage concurrently; results land at the
// module's own position. Once the global deadline passes, remaining modules
// get empty resource lists. Catalog failures never fail the run.
func (e *Enricher) Enrich(ctx context.Context, rm *types.Roadmap, profile types.UserProfile) Report {
	start := e.now()
	profile = profile.WithDefaults()
	report := Report{Sources: map[string]SourceStats{}}

	gctx, cancel := context.WithTimeout(ctx, e.opts.GlobalTimeout)
	defer cancel()

	for si := range rm.Stages {
		stage := &rm.Stages[si]
		outcomes := make([]moduleOutcome, len(stage.Modules))

		var g errgroup.Group
		g.SetLimit(e.opts.Concurrency)
		for mi := range stage.Modules {
			if gctx.Err() != nil {
				outcomes[mi] = moduleOutcome{skipped: true}
				continue
			}
			module := stage.Modules[mi]
			g.Go(func() error {
				if gctx.Err() != nil {
					outcomes[mi] = moduleOutcome{skipped: true}
					return nil
				}
				outcomes[mi] = e.enrichModule(gctx, module, rm.Category, profile)
				return nil
			})
		}
		_ = g.Wait()

		for mi, out := range outcomes {
			report.Modules++
			stage.Modules[mi].Resources = out.resources
			if stage.Modules[mi].Resources == nil {
				stage.Modules[mi].Resources = []types.LearningResource{}
			}
			switch {
			case out.skipped:
				report.Skipped++
			case len(out.resources) > 0:
				report.Enriched++
			}
			if out.timedOut {
				report.TimedOut++
			}
			report.Resources += len(out.resources)
			for name, s := range out.sources {
				agg := report.Sources[name]
				agg.Results += s.Results
				agg.Failures += s.Failures
				report.Sources[name] = agg
			}
		}
	}

	report.Duration = e.now().Sub(start)
	e.log.Info("roadmap enriched",
		"roadmap_id", rm.ID.String(),
		"modules", report.Modules,
		"enriched", report.Enriched,
		"skipped", report.Skipped,
		"timed_out", report.TimedOut,
		"resources", report.Resources,
		"duration", report.Duration,
	)
	return report
}

// enrichModule queries every catalog concurrently under the module deadline.
func (e *Enricher) enrichModule(ctx context.Context, module types.RoadmapModule, category string, profile types.UserProfile) moduleOutcome {
	mctx, cancel := context.WithTimeout(ctx, e.opts.ModuleTimeout)
	defer cancel()

	query := strings.TrimSpace(module.Title + " " + category)
	perCatalog := make([][]catalogs.Resource, len(e.catalogs))
	failed := make([]bool, len(e.catalogs))

	var wg sync.WaitGroup
	for i, cat := range e.catalogs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := cat.Search(mctx, query, e.opts.MaxResultsPerSource)
			if err != nil {
				failed[i] = true
				e.log.Debug("catalog search failed", "catalog", cat.Name(), "module_id", module.ID, "error", err)
				return
			}
			if len(res) > e.opts.MaxResultsPerSource {
				res = res[:e.opts.MaxResultsPerSource]
			}
			perCatalog[i] = res
		}()
	}
	wg.Wait()

	out := moduleOutcome{
		sources:  make(map[string]SourceStats, len(e.catalogs)),
		timedOut: mctx.Err() != nil,
	}
	for i, cat := range e.catalogs {
		s := out.sources[cat.Name()]
		s.Results += len(perCatalog[i])
		if failed[i] {
			s.Failures++
		}
		out.sources[cat.Name()] = s
	}

	merged := Merge(perCatalog...)
	ranked := Rank(merged, profile.LearningStyle)
	if len(ranked) > e.opts.MaxResourcesPerModule {
		ranked = ranked[:e.opts.MaxResourcesPerModule]
	}

	out.resources = make([]types.LearningResource, 0, len(ranked))
	for i, r := range ranked {
		out.resources = append(out.resources, types.LearningResource{
			ID:          fmt.Sprintf("%s-r%d", module.ID, i+1),
			Type:        r.Type,
			Title:       r.Title,
			URL:         r.URL,
			Description: r.Description,
			Provider:    r.Provider,
			Difficulty:  r.Difficulty,
		})
	}
	return out
}
