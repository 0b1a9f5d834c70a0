// Package pipeline implements §4.7: the orchestrator that sequences query
// fan-out, multi-strategy search, title filtering, transcript analysis, and
// refinement into one cancellation-safe run, emitting a monotone progress
// stream and producing the final SearchResult. Shape is adapted from the
// teacher's internal/processor/video_processor.go Process method — a
// strictly sequential series of steps, each emitting progress and each
// capable of short-circuiting the remainder on a terminal condition —
// generalized from "process one uploaded file" to "answer one query."
package pipeline

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/adverant/videosearch/internal/config"
	"github.com/adverant/videosearch/internal/models"
	"github.com/adverant/videosearch/internal/ports"
	"github.com/adverant/videosearch/internal/refine"
	"github.com/adverant/videosearch/internal/search"
	"github.com/adverant/videosearch/internal/transcript"
)

var logPipeline = log.WithField("component", "pipeline")

// Deps bundles every injected collaborator. SearchP, Transcripts, TextModel,
// and VideoModel are interfaces the pipeline never implements itself
// (§1, out of scope); Extractor is the one external adapter this repository
// implements concretely (internal/media). Progress, ClipSink, and
// SubtitleSink are all optional (§6.6).
type Deps struct {
	SearchP      ports.SearchProvider
	Transcripts  ports.TranscriptProvider
	TextModel    ports.TextModel
	VideoModel   ports.VideoModel
	Extractor    ports.MediaExtractor
	Progress     ports.ProgressSink
	ClipSink     ports.ClipSink
	SubtitleSink ports.SubtitleSink
}

// Pipeline is stateless across runs — Config is a value and every
// collaborator is injected, so one Pipeline can serve concurrent Run calls.
type Pipeline struct {
	cfg  config.Config
	deps Deps
}

// New validates cfg and constructs a Pipeline. A validation failure is the
// ConfigError kind (§7): the only error besides cancellation that the
// orchestrator lets escape to the caller.
func New(cfg config.Config, deps Deps) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.SearchP == nil || deps.Transcripts == nil || deps.TextModel == nil {
		return nil, &config.ErrInvalidConfig{Reason: "SearchProvider, TranscriptProvider, and TextModel are required"}
	}
	if cfg.EnableVLMRefinement && (deps.VideoModel == nil || deps.Extractor == nil) {
		return nil, &config.ErrInvalidConfig{Reason: "VideoModel and MediaExtractor are required when refinement is enabled"}
	}
	return &Pipeline{cfg: cfg, deps: deps}, nil
}

// Run sequences §4.2 through §4.6 strictly, short-circuiting with an empty
// SearchResult on an empty intermediate stage (§4.7). It returns an error
// only for cancellation — every other per-stage failure is recovered
// locally per §7 and folded into the result.
func (p *Pipeline) Run(ctx context.Context, userQuery string) (models.SearchResult, error) {
	start := time.Now()
	now := start

	emit := func(phase models.ProgressPhase, step string, progress float64, details map[string]interface{}) {
		if p.deps.Progress == nil {
			return
		}
		p.deps.Progress.OnProgress(ctx, models.ProgressEvent{Phase: phase, Step: step, Progress: progress, Details: details, At: time.Now()})
	}

	terminal := func(segments []models.VideoSegment) (models.SearchResult, error) {
		if err := ctx.Err(); err != nil {
			return models.SearchResult{}, err
		}
		emit(models.PhaseFinalization, "done", 1.0, map[string]interface{}{"segment_count": len(segments)})
		return models.SearchResult{Query: userQuery, Segments: segments, ProcessingTimeSec: time.Since(start).Seconds()}, nil
	}

	if err := ctx.Err(); err != nil {
		return models.SearchResult{}, err
	}

	// §4.2 query fan-out
	emit(models.PhaseFanOut, "fanning out query", 0.05, nil)
	variants, degraded := search.FanOut(ctx, p.deps.TextModel, userQuery)
	if degraded {
		emit(models.PhaseFanOut, "fan-out degraded to original query", 0.06, map[string]interface{}{"warning": "text model fan-out unavailable"})
	}
	emit(models.PhaseFanOut, "query variants ready", 0.08, map[string]interface{}{"variants": variants})

	if err := ctx.Err(); err != nil {
		return models.SearchResult{}, err
	}

	// §4.3 multi-strategy search & dedup
	emit(models.PhaseSearch, "searching", 0.10, nil)
	perQuery := p.cfg.MaxSearchResults / 3
	if perQuery <= 0 {
		perQuery = 1
	}
	strategyResult := search.Search(ctx, p.deps.SearchP, variants.All(), perQuery, p.cfg.DurationMinSec, p.cfg.DurationMaxSec, now, p.cfg.PublishedAfter, p.cfg.PublishedBefore)
	emit(models.PhaseSearch, "search complete", 0.20, map[string]interface{}{"video_count": len(strategyResult.Videos), "search_stats": strategyResult.Stats})

	if len(strategyResult.Videos) == 0 {
		return terminal(nil)
	}

	if err := ctx.Err(); err != nil {
		return models.SearchResult{}, err
	}

	// §4.4 title filter
	emit(models.PhaseTitleFilter, "filtering titles", 0.22, nil)
	titleCandidates := make([]ports.TitleCandidate, len(strategyResult.Videos))
	byID := make(map[string]models.Video, len(strategyResult.Videos))
	for i, v := range strategyResult.Videos {
		titleCandidates[i] = ports.TitleCandidate{VideoID: v.VideoID, Title: v.Title}
		byID[v.VideoID] = v
	}
	selectedIDs := search.FilterTitles(ctx, p.deps.TextModel, userQuery, titleCandidates, p.cfg.MaxFinalResults)
	filtered := make([]models.Video, 0, len(selectedIDs))
	for _, id := range selectedIDs {
		if v, ok := byID[id]; ok {
			filtered = append(filtered, v)
		}
	}
	emit(models.PhaseTitleFilter, "title filter complete", 0.24, map[string]interface{}{"kept": len(filtered)})

	if len(filtered) == 0 {
		return terminal(nil)
	}

	if err := ctx.Err(); err != nil {
		return models.SearchResult{}, err
	}

	// §4.5 transcript stage
	transcriptStage := transcript.NewStage(p.cfg, p.deps.Transcripts, p.deps.TextModel, p.deps.SubtitleSink, p.deps.Progress)
	candidates := transcriptStage.Run(ctx, userQuery, filtered, p.cfg.MaxFinalResults)

	if len(candidates) == 0 {
		return terminal(nil)
	}

	if err := ctx.Err(); err != nil {
		return models.SearchResult{}, err
	}

	// §4.6 refinement stage, or verbatim candidate ranges when disabled
	// (§6.7: enable_vlm_refinement=false skips §4.6 entirely).
	var segments []models.VideoSegment
	if p.cfg.EnableVLMRefinement {
		emit(models.PhaseRefinement, "refining candidate timing", 0.60, nil)
		refineStage := refine.NewStage(p.cfg, p.deps.Extractor, p.deps.VideoModel, p.deps.ClipSink, p.deps.Progress)
		segments = refineStage.Run(ctx, userQuery, candidates)
		emit(models.PhaseRefinement, "refinement complete", 0.95, map[string]interface{}{"segment_count": len(segments)})
	} else {
		segments = make([]models.VideoSegment, len(candidates))
		for i, c := range candidates {
			segments[i] = models.VideoSegment{Video: c.Video, Range: c.Range, Summary: c.Summary, Confidence: c.Confidence}
		}
	}

	logPipeline.WithField("segment_count", len(segments)).Info("pipeline run complete")
	return terminal(segments)
}
