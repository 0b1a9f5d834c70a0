// Package ports declares the external collaborator interfaces the pipeline
// is built against. Per the system's scope, concrete HTTP clients for the
// search API, transcript fetcher, text-model, and video-model providers are
// owned by callers and injected — only their contracts live here. The
// media extractor is the one external-adapter contract this repository also
// implements (see internal/media), since subprocess-based byte-range
// extraction and clip concatenation are core to the pipeline.
package ports

import (
	"context"
	"time"

	"github.com/adverant/videosearch/internal/models"
	"github.com/adverant/videosearch/internal/xtime"
)

// SearchOrder selects the ordering a SearchProvider call uses.
type SearchOrder string

const (
	OrderRelevance SearchOrder = "relevance"
	OrderDate      SearchOrder = "date"
)

// SearchProvider looks up videos matching a query. Implementations may
// return SearchError; the search stage treats a failing strategy as zero
// results rather than aborting.
type SearchProvider interface {
	Search(ctx context.Context, query string, order SearchOrder, publishedAfter *time.Time, maxResults int, durationMin, durationMax float64) ([]models.Video, error)
}

// TranscriptProvider fetches a video's subtitle track. A nil Subtitle with a
// nil error means no caption exists in any preferred language, captions are
// disabled, or the video is unavailable — not an error condition.
type TranscriptProvider interface {
	Fetch(ctx context.Context, videoID string, preferredLanguages []string) (*models.Subtitle, error)
}

// RankedSpan is one (time range, confidence, summary) tuple returned by a
// text- or video-model ranking call.
type RankedSpan struct {
	Range      xtime.Range
	Confidence float64
	Summary    string
}

// TextModel groups the five chat-completion-backed operations the pipeline
// calls. All five must be implementable against the same underlying
// endpoint; response-shape parsing is the implementation's responsibility,
// and implementations should return an error when parsing fails rather than
// a zero value, so call sites can apply their documented fallback.
type TextModel interface {
	FanOut(ctx context.Context, query string) (models.QueryVariants, error)
	RankSubtitle(ctx context.Context, userQuery string, chunks []models.SubtitleChunk) ([]RankedSpan, error)
	FilterTitles(ctx context.Context, userQuery string, candidates []TitleCandidate, max int) ([]string, error)
	AnalyzeVideoURL(ctx context.Context, userQuery, videoURL string) ([]RankedSpan, error)
	IntegrateSummary(ctx context.Context, userQuery string, segmentSummaries []string) (string, error)
}

// TitleCandidate is one (video_id, title) pair offered to the title filter.
type TitleCandidate struct {
	VideoID string
	Title   string
}

// VideoModel analyzes a downloaded clip against the user query, returning a
// single clip-relative range, confidence, and summary.
type VideoModel interface {
	AnalyzeClip(ctx context.Context, localFile, userQuery string) (RankedSpan, error)
}

// MediaExtractor downloads byte ranges of source video and concatenates
// extracted clips. Concrete implementation lives in internal/media.
type MediaExtractor interface {
	ExtractClip(ctx context.Context, videoURL string, window xtime.Range, outPath string) error
	Concat(ctx context.Context, clipPaths []string, outPath string) error
}

// ProgressSink receives ProgressEvent notifications. Optional.
type ProgressSink interface {
	OnProgress(ctx context.Context, ev models.ProgressEvent)
}

// ClipSink receives a saved local clip file path before it is deleted.
// Optional; sink errors are logged and swallowed by the refinement stage.
type ClipSink interface {
	OnClip(ctx context.Context, videoID, localClipPath string) error
}

// SubtitleSink receives a fetched Subtitle once per video. Optional.
type SubtitleSink interface {
	OnSubtitle(ctx context.Context, videoID string, sub models.Subtitle)
}

// ProgressSinkFunc adapts a function to ProgressSink.
type ProgressSinkFunc func(ctx context.Context, ev models.ProgressEvent)

func (f ProgressSinkFunc) OnProgress(ctx context.Context, ev models.ProgressEvent) { f(ctx, ev) }

// ClipSinkFunc adapts a function to ClipSink.
type ClipSinkFunc func(ctx context.Context, videoID, localClipPath string) error

func (f ClipSinkFunc) OnClip(ctx context.Context, videoID, localClipPath string) error {
	return f(ctx, videoID, localClipPath)
}

// SubtitleSinkFunc adapts a function to SubtitleSink.
type SubtitleSinkFunc func(ctx context.Context, videoID string, sub models.Subtitle)

func (f SubtitleSinkFunc) OnSubtitle(ctx context.Context, videoID string, sub models.Subtitle) {
	f(ctx, videoID, sub)
}
