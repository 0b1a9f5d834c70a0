package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adverant/videosearch/internal/models"
	"github.com/adverant/videosearch/internal/ports"
)

type stubTextModel struct {
	fanOut       func(ctx context.Context, query string) (models.QueryVariants, error)
	filterTitles func(ctx context.Context, userQuery string, candidates []ports.TitleCandidate, max int) ([]string, error)
}

func (s stubTextModel) FanOut(ctx context.Context, query string) (models.QueryVariants, error) {
	return s.fanOut(ctx, query)
}

func (s stubTextModel) RankSubtitle(ctx context.Context, userQuery string, chunks []models.SubtitleChunk) ([]ports.RankedSpan, error) {
	return nil, errors.New("not used in this test")
}

func (s stubTextModel) FilterTitles(ctx context.Context, userQuery string, candidates []ports.TitleCandidate, max int) ([]string, error) {
	return s.filterTitles(ctx, userQuery, candidates, max)
}

func (s stubTextModel) AnalyzeVideoURL(ctx context.Context, userQuery, videoURL string) ([]ports.RankedSpan, error) {
	return nil, errors.New("not used in this test")
}

func (s stubTextModel) IntegrateSummary(ctx context.Context, userQuery string, segmentSummaries []string) (string, error) {
	return "", errors.New("not used in this test")
}

func TestFanOutSuccess(t *testing.T) {
	model := stubTextModel{
		fanOut: func(ctx context.Context, query string) (models.QueryVariants, error) {
			return models.QueryVariants{Original: query, Optimized: "opt", Simplified: "simple"}, nil
		},
	}

	variants, degraded := FanOut(context.Background(), model, "how do goroutines work")
	assert.False(t, degraded)
	assert.Equal(t, "how do goroutines work", variants.Original)
	assert.Equal(t, "opt", variants.Optimized)
	assert.Equal(t, "simple", variants.Simplified)
}

func TestFanOutDegradesOnError(t *testing.T) {
	model := stubTextModel{
		fanOut: func(ctx context.Context, query string) (models.QueryVariants, error) {
			return models.QueryVariants{}, errors.New("model unavailable")
		},
	}

	variants, degraded := FanOut(context.Background(), model, "query text")
	assert.True(t, degraded)
	assert.Equal(t, models.QueryVariants{Original: "query text", Optimized: "query text", Simplified: "query text"}, variants)
}

func TestFanOutDegradesOnIncompleteVariants(t *testing.T) {
	model := stubTextModel{
		fanOut: func(ctx context.Context, query string) (models.QueryVariants, error) {
			return models.QueryVariants{Original: query, Optimized: "", Simplified: "simple"}, nil
		},
	}

	variants, degraded := FanOut(context.Background(), model, "query text")
	assert.True(t, degraded)
	assert.Equal(t, models.QueryVariants{Original: "query text", Optimized: "query text", Simplified: "query text"}, variants)
}
