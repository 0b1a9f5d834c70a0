package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/videosearch/internal/config"
	"github.com/adverant/videosearch/internal/models"
	"github.com/adverant/videosearch/internal/ports"
	"github.com/adverant/videosearch/internal/xtime"
)

type stubSearch struct {
	videos []models.Video
}

func (s stubSearch) Search(ctx context.Context, query string, order ports.SearchOrder, publishedAfter *time.Time, maxResults int, durationMin, durationMax float64) ([]models.Video, error) {
	return s.videos, nil
}

type stubTranscripts struct {
	subs map[string]*models.Subtitle
}

func (s stubTranscripts) Fetch(ctx context.Context, videoID string, preferredLanguages []string) (*models.Subtitle, error) {
	return s.subs[videoID], nil
}

type stubTextModel struct{}

func (stubTextModel) FanOut(ctx context.Context, query string) (models.QueryVariants, error) {
	return models.QueryVariants{Original: query, Optimized: query, Simplified: query}, nil
}

func (stubTextModel) RankSubtitle(ctx context.Context, userQuery string, chunks []models.SubtitleChunk) ([]ports.RankedSpan, error) {
	if len(chunks) == 0 {
		return nil, errors.New("no chunks")
	}
	r, _ := xtime.New(chunks[0].StartSec, chunks[0].EndSec)
	return []ports.RankedSpan{{Range: r, Confidence: 0.8, Summary: chunks[0].Text}}, nil
}

func (stubTextModel) FilterTitles(ctx context.Context, userQuery string, candidates []ports.TitleCandidate, max int) ([]string, error) {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.VideoID)
	}
	return out, nil
}

func (stubTextModel) AnalyzeVideoURL(ctx context.Context, userQuery, videoURL string) ([]ports.RankedSpan, error) {
	return nil, errors.New("no fallback needed in this test")
}

func (stubTextModel) IntegrateSummary(ctx context.Context, userQuery string, segmentSummaries []string) (string, error) {
	return "", errors.New("not used")
}

type collectingProgressSink struct {
	events []models.ProgressEvent
}

func (s *collectingProgressSink) OnProgress(ctx context.Context, ev models.ProgressEvent) {
	s.events = append(s.events, ev)
}

func testDeps() Deps {
	return Deps{
		SearchP: stubSearch{videos: []models.Video{
			{VideoID: "v1", Title: "relevant video", Duration: 60},
		}},
		Transcripts: stubTranscripts{subs: map[string]*models.Subtitle{
			"v1": {VideoID: "v1", Chunks: []models.SubtitleChunk{{StartSec: 0, EndSec: 10, Text: "hello world"}}},
		}},
		TextModel: stubTextModel{},
	}
}

func TestRunEndToEndWithoutRefinement(t *testing.T) {
	cfg := config.Default()
	cfg.EnableVLMRefinement = false

	progress := &collectingProgressSink{}
	deps := testDeps()
	deps.Progress = progress

	p, err := New(cfg, deps)
	require.NoError(t, err)

	result, err := p.Run(context.Background(), "a query about golang")
	require.NoError(t, err)
	require.Len(t, result.Segments, 1)
	assert.Equal(t, "v1", result.Segments[0].Video.VideoID)
	assert.Equal(t, "hello world", result.Segments[0].Summary)

	require.NotEmpty(t, progress.events)
	last := progress.events[len(progress.events)-1]
	assert.Equal(t, models.PhaseFinalization, last.Phase)
	assert.Equal(t, 1.0, last.Progress)

	for i := 1; i < len(progress.events); i++ {
		assert.GreaterOrEqual(t, progress.events[i].Progress, progress.events[i-1].Progress)
	}
}

func TestRunShortCircuitsOnEmptySearch(t *testing.T) {
	cfg := config.Default()
	cfg.EnableVLMRefinement = false
	deps := testDeps()
	deps.SearchP = stubSearch{videos: nil}

	p, err := New(cfg, deps)
	require.NoError(t, err)

	result, err := p.Run(context.Background(), "no matches expected")
	require.NoError(t, err)
	assert.Empty(t, result.Segments)
}

func TestRunReturnsErrorOnCancellation(t *testing.T) {
	cfg := config.Default()
	cfg.EnableVLMRefinement = false
	p, err := New(cfg, testDeps())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Run(ctx, "a query")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsMissingRequiredDeps(t *testing.T) {
	cfg := config.Default()
	_, err := New(cfg, Deps{})
	assert.Error(t, err)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MaxFinalResults = 0
	_, err := New(cfg, testDeps())
	assert.Error(t, err)
}

func TestNewRequiresVideoModelAndExtractorWhenRefinementEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.EnableVLMRefinement = true
	_, err := New(cfg, testDeps())
	assert.Error(t, err)
}
