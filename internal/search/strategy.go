package search

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/adverant/videosearch/internal/models"
	"github.com/adverant/videosearch/internal/ports"
)

var logStrategy = log.WithField("component", "search.strategy")

// strategy is one (ordering, recency-filter) pair applied to one query, per
// the GLOSSARY's definition.
type strategy struct {
	name           string
	order          ports.SearchOrder
	recencyWindow  bool // restrict to the last 30 days
}

// strategies is the fixed, ordered list §4.3 specifies: relevance, date
// (newest first), then relevance restricted to the last 30 days.
var strategies = []strategy{
	{name: "relevance", order: ports.OrderRelevance, recencyWindow: false},
	{name: "date", order: ports.OrderDate, recencyWindow: false},
	{name: "relevance_recent_30d", order: ports.OrderRelevance, recencyWindow: true},
}

// MultiStrategyResult is §4.3's output: the deduplicated, order-preserving
// merge of every (query, strategy) search call, plus per-strategy
// diagnostic counts.
type MultiStrategyResult struct {
	Videos []models.Video
	Stats  models.SearchStats
}

// Search runs every query in queries (already deduplicated by the caller,
// per §4.3's "Input: the list of variants (deduplicated, preserving first
// occurrence)") against every strategy in sequence, merging results by
// video_id and keeping the first occurrence's position. A single strategy
// failure is logged and treated as zero results — it never aborts the
// stage (§7). now is the pipeline-start timestamp used to compute the
// 30-day recency cutoff once per run, in UTC. defaultPublishedAfter and
// publishedBefore are §6.7's optional default search windows: the former
// seeds the non-recency strategies' publishedAfter bound (the dedicated
// 30-day-recency strategy always uses its own computed cutoff instead);
// the latter is applied as a client-side upper bound after merging, since
// SearchProvider's contract (§6.1) only exposes a lower bound.
func Search(ctx context.Context, provider ports.SearchProvider, queries []string, maxPerQuery int, durationMin, durationMax float64, now time.Time, defaultPublishedAfter, publishedBefore *time.Time) MultiStrategyResult {
	seen := make(map[string]struct{})
	merged := make([]models.Video, 0, maxPerQuery*len(queries))
	stats := make(models.SearchStats, len(queries)*len(strategies))

	recencyThreshold := now.UTC().AddDate(0, 0, -30)

	for _, q := range queries {
		for _, strat := range strategies {
			key := fmt.Sprintf("%s|%s", q, strat.name)

			if ctx.Err() != nil {
				stats[key] = 0
				continue
			}

			publishedAfter := defaultPublishedAfter
			if strat.recencyWindow {
				t := recencyThreshold
				publishedAfter = &t
			}

			videos, err := provider.Search(ctx, q, strat.order, publishedAfter, maxPerQuery, durationMin, durationMax)
			if err != nil {
				logStrategy.WithError(err).WithFields(log.Fields{"query": q, "strategy": strat.name}).
					Warn("search strategy failed, treating as zero results")
				stats[key] = 0
				continue
			}

			stats[key] = len(videos)
			for _, v := range videos {
				if _, dup := seen[v.VideoID]; dup {
					continue
				}
				if publishedBefore != nil && v.PublishedAt.After(*publishedBefore) {
					continue
				}
				seen[v.VideoID] = struct{}{}
				merged = append(merged, v)
			}
		}
	}

	return MultiStrategyResult{Videos: merged, Stats: stats}
}
