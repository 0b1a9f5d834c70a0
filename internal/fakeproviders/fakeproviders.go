// Package fakeproviders offers minimal, deterministic stand-ins for the
// out-of-scope external collaborators (§1: SearchProvider, TranscriptProvider,
// TextModel, VideoModel) so cmd/videosearch can run end-to-end locally
// without a live search API, transcript fetcher, or model endpoint. Real
// deployments replace every one of these with HTTP-backed implementations;
// nothing here is meant to ship.
package fakeproviders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adverant/videosearch/internal/models"
	"github.com/adverant/videosearch/internal/ports"
	"github.com/adverant/videosearch/internal/xtime"
)

// StaticSearchProvider returns a fixed catalog of videos, filtered by the
// duration bounds a real SearchProvider would enforce per §6.1.
type StaticSearchProvider struct {
	Catalog []models.Video
}

func (p StaticSearchProvider) Search(ctx context.Context, query string, order ports.SearchOrder, publishedAfter *time.Time, maxResults int, durationMin, durationMax float64) ([]models.Video, error) {
	out := make([]models.Video, 0, maxResults)
	for _, v := range p.Catalog {
		if v.Duration < durationMin || v.Duration > durationMax {
			continue
		}
		if publishedAfter != nil && v.PublishedAt.Before(*publishedAfter) {
			continue
		}
		out = append(out, v)
		if len(out) == maxResults {
			break
		}
	}
	return out, nil
}

// NoTranscriptProvider always reports no caption available, exercising the
// URL-fallback path (§4.5 step 3).
type NoTranscriptProvider struct{}

func (NoTranscriptProvider) Fetch(ctx context.Context, videoID string, preferredLanguages []string) (*models.Subtitle, error) {
	return nil, nil
}

// EchoTextModel implements every TextModel operation with deterministic,
// query-derived output — enough to drive the pipeline without a live model.
type EchoTextModel struct{}

func (EchoTextModel) FanOut(ctx context.Context, query string) (models.QueryVariants, error) {
	words := strings.Fields(query)
	optimized := query
	if len(words) > 7 {
		optimized = strings.Join(words[:7], " ")
	}
	simplified := query
	if len(words) > 4 {
		simplified = strings.Join(words[:4], " ")
	}
	return models.QueryVariants{Original: query, Optimized: optimized, Simplified: simplified}, nil
}

func (EchoTextModel) RankSubtitle(ctx context.Context, userQuery string, chunks []models.SubtitleChunk) ([]ports.RankedSpan, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks to rank")
	}
	first := chunks[0]
	r, err := xtime.New(first.StartSec, first.EndSec)
	if err != nil {
		return nil, err
	}
	return []ports.RankedSpan{{Range: r, Confidence: 0.5, Summary: first.Text}}, nil
}

func (EchoTextModel) FilterTitles(ctx context.Context, userQuery string, candidates []ports.TitleCandidate, max int) ([]string, error) {
	out := make([]string, 0, max)
	for _, c := range candidates {
		out = append(out, c.VideoID)
		if len(out) == max {
			break
		}
	}
	return out, nil
}

func (EchoTextModel) AnalyzeVideoURL(ctx context.Context, userQuery, videoURL string) ([]ports.RankedSpan, error) {
	r, _ := xtime.New(0, 30)
	return []ports.RankedSpan{{Range: r, Confidence: 0.4, Summary: "fallback analysis of " + videoURL}}, nil
}

func (EchoTextModel) IntegrateSummary(ctx context.Context, userQuery string, segmentSummaries []string) (string, error) {
	return strings.Join(segmentSummaries, " "), nil
}

// EchoVideoModel always reports the clip-relative range 0-10 s of whatever
// clip it is given, with fixed confidence.
type EchoVideoModel struct{}

func (EchoVideoModel) AnalyzeClip(ctx context.Context, localFile, userQuery string) (ports.RankedSpan, error) {
	r, _ := xtime.New(0, 10)
	return ports.RankedSpan{Range: r, Confidence: 0.6, Summary: "analyzed " + localFile}, nil
}
