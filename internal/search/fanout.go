// Package search implements §4.2 (query fan-out), §4.3 (multi-strategy
// search & dedup), and §4.4 (title filter) — the pipeline's discovery
// stages, all upstream of per-video transcript analysis.
package search

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/adverant/videosearch/internal/models"
	"github.com/adverant/videosearch/internal/ports"
)

var logFanOut = log.WithField("component", "search.fanout")

// FanOut produces QueryVariants for query via model. Per §4.2/§7, a
// TextModelError (including unparseable model output, which the TextModel
// implementation surfaces as an error) never fails the pipeline: FanOut
// degrades to {query, query, query} and reports degraded=true so the
// orchestrator can emit a warning progress event.
func FanOut(ctx context.Context, model ports.TextModel, query string) (variants models.QueryVariants, degraded bool) {
	v, err := model.FanOut(ctx, query)
	if err != nil {
		logFanOut.WithError(err).Warn("fan-out failed, degrading to original query for all variants")
		return models.QueryVariants{Original: query, Optimized: query, Simplified: query}, true
	}
	if v.Original == "" {
		v.Original = query
	}
	if v.Optimized == "" || v.Simplified == "" {
		logFanOut.Warn("fan-out returned incomplete variants, degrading to original query for all variants")
		return models.QueryVariants{Original: query, Optimized: query, Simplified: query}, true
	}
	return v, false
}
