// Package refine implements §4.6: the second worker pool, which downloads
// each candidate's buffered fetch window, asks the video model to refine
// the timing, and converts the result back into absolute video time. Pool
// shape follows internal/transcript's errgroup-with-limit convention;
// staggered admission and linear-backoff retries are hand-rolled per §4.6's
// exact timing formulas.
package refine

import (
	"context"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/adverant/videosearch/internal/config"
	"github.com/adverant/videosearch/internal/media"
	"github.com/adverant/videosearch/internal/models"
	"github.com/adverant/videosearch/internal/ports"
	"github.com/adverant/videosearch/internal/xtime"
	"github.com/adverant/videosearch/internal/youtube"
)

var logStage = log.WithField("component", "refine.stage")

// Stage runs §4.6's refinement worker pool.
type Stage struct {
	Extractor  ports.MediaExtractor
	VideoModel ports.VideoModel
	ClipSink   ports.ClipSink // optional
	Progress   ports.ProgressSink // optional

	MaxWorkers   int
	StaggerDelay time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	BufferRatio  float64
	TempDir      string
}

// NewStage builds a Stage from Config. Per §4.6, worker count is
// min(3, total candidates) — callers pass cfg.RefinementMaxWorkers and Run
// clamps it to len(candidates).
func NewStage(cfg config.Config, extractor ports.MediaExtractor, videoModel ports.VideoModel, clipSink ports.ClipSink, progress ports.ProgressSink) *Stage {
	return &Stage{
		Extractor:    extractor,
		VideoModel:   videoModel,
		ClipSink:     clipSink,
		Progress:     progress,
		MaxWorkers:   cfg.RefinementMaxWorkers,
		StaggerDelay: cfg.StaggerDelay,
		MaxRetries:   cfg.MaxRetries,
		RetryDelay:   cfg.RetryDelay,
		BufferRatio:  cfg.BufferRatio,
		TempDir:      cfg.TempDir,
	}
}

// Run refines every candidate, preserving candidates' input order in the
// output regardless of completion order (§5, §8 property 1). Every
// candidate yields exactly one segment — refined on success, degraded on
// extractor failure or exhausted video-model retries — so
// |output| == |candidates| (§8 property 2).
func (s *Stage) Run(ctx context.Context, userQuery string, candidates []models.Candidate) []models.VideoSegment {
	workers := s.MaxWorkers
	if workers > len(candidates) {
		workers = len(candidates)
	}
	if workers <= 0 {
		return nil
	}

	segments := make([]models.VideoSegment, len(candidates))

	var mu sync.Mutex
	completed := 0
	emit := func() {
		if s.Progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done := completed
		progress := 0.60 + 0.35*float64(done)/float64(len(candidates))
		s.Progress.OnProgress(ctx, models.ProgressEvent{
			Phase:    models.PhaseRefinement,
			Step:     "refining candidate timing",
			Progress: progress,
			Details:  map[string]interface{}{"completed": done, "total": len(candidates)},
			At:       time.Now(),
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			if err := sleepOrCancel(gctx, time.Duration(i)*s.StaggerDelay); err != nil {
				segments[i] = degradedSegment(c)
			} else {
				segments[i] = s.refineOne(gctx, userQuery, c)
			}

			mu.Lock()
			completed++
			mu.Unlock()
			emit()
			return nil // one task's failure never poisons the pool (§5)
		})
	}
	_ = g.Wait()

	// segments[i] was written directly by the goroutine handling
	// candidates[i]; completion order in the pool never reorders it.
	return segments
}

func degradedSegment(c models.Candidate) models.VideoSegment {
	return models.VideoSegment{
		Video:      c.Video,
		Range:      c.Range,
		Summary:    models.DegradedSummary,
		Confidence: models.DegradedConfidence,
	}
}

// refineOne implements the per-candidate state machine of §4.6: queued ->
// (staggered wait, handled by the caller) -> extracting -> analyzing ->
// (retry | done | failed-degraded).
func (s *Stage) refineOne(ctx context.Context, userQuery string, c models.Candidate) models.VideoSegment {
	fetchWindow := c.Range.WithBuffer(s.BufferRatio)
	extractTimeout := extractorTimeout(fetchWindow.Duration())

	tempPath := media.NewTempClipPath(s.TempDir)
	defer os.Remove(tempPath)

	extractCtx, cancel := context.WithTimeout(ctx, extractTimeout)
	err := s.Extractor.ExtractClip(extractCtx, youtube.CanonicalWatchURL(c.Video.VideoID), fetchWindow, tempPath)
	cancel()
	if err != nil {
		logStage.WithError(err).WithField("video_id", c.Video.VideoID).Warn("extraction failed, degrading")
		return degradedSegment(c)
	}

	span, ok := s.analyzeWithRetries(ctx, tempPath, userQuery, c.Video.VideoID)

	if s.ClipSink != nil {
		if sinkErr := s.ClipSink.OnClip(ctx, c.Video.VideoID, tempPath); sinkErr != nil {
			logStage.WithError(sinkErr).WithField("video_id", c.Video.VideoID).Warn("clip sink failed, swallowing")
		}
	}

	if !ok {
		return degradedSegment(c)
	}

	absolute := xtime.Convert(fetchWindow.Start, span.Range)
	return models.VideoSegment{Video: c.Video, Range: absolute, Summary: span.Summary, Confidence: span.Confidence}
}

// analyzeWithRetries calls the video model up to MaxRetries times with
// linear backoff (retry_delay * attempt_index: 0, 2, 4 seconds by default),
// per §4.6/§7. Extractor failures are handled by the caller and never reach
// here — only the video-model call is retried.
func (s *Stage) analyzeWithRetries(ctx context.Context, clipPath, userQuery, videoID string) (ports.RankedSpan, bool) {
	var lastErr error
	for attempt := 0; attempt < s.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepOrCancel(ctx, time.Duration(attempt)*s.RetryDelay); err != nil {
				return ports.RankedSpan{}, false
			}
		}
		span, err := s.VideoModel.AnalyzeClip(ctx, clipPath, userQuery)
		if err == nil {
			return span, true
		}
		lastErr = err
		logStage.WithError(err).WithField("video_id", videoID).WithField("attempt", attempt+1).Warn("video model call failed")
	}
	logStage.WithError(lastErr).WithField("video_id", videoID).Warn("video model retries exhausted, degrading")
	return ports.RankedSpan{}, false
}

// extractorTimeout is §4.6's max(180, 180 + 0.5*fetch_duration) seconds.
func extractorTimeout(fetchDurationSec float64) time.Duration {
	secs := 180 + 0.5*fetchDurationSec
	if secs < 180 {
		secs = 180
	}
	return time.Duration(secs * float64(time.Second))
}

func sleepOrCancel(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
