package fakeproviders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/videosearch/internal/models"
)

func TestStaticSearchProviderFiltersByDurationAndLimit(t *testing.T) {
	provider := StaticSearchProvider{Catalog: []models.Video{
		{VideoID: "short", Duration: 30},
		{VideoID: "mid", Duration: 300},
		{VideoID: "long", Duration: 5000},
	}}

	got, err := provider.Search(context.Background(), "q", "relevance", nil, 10, 60, 3600)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mid", got[0].VideoID)
}

func TestStaticSearchProviderRespectsMaxResults(t *testing.T) {
	provider := StaticSearchProvider{Catalog: []models.Video{
		{VideoID: "a", Duration: 100},
		{VideoID: "b", Duration: 100},
		{VideoID: "c", Duration: 100},
	}}

	got, err := provider.Search(context.Background(), "q", "relevance", nil, 2, 0, 3600)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestNoTranscriptProviderAlwaysReturnsNil(t *testing.T) {
	sub, err := NoTranscriptProvider{}.Fetch(context.Background(), "v1", []string{"en"})
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestEchoTextModelFanOutShortensVariants(t *testing.T) {
	variants, err := EchoTextModel{}.FanOut(context.Background(), "one two three four five six seven eight")
	require.NoError(t, err)
	assert.Equal(t, "one two three four five six seven", variants.Optimized)
	assert.Equal(t, "one two three four", variants.Simplified)
}

func TestEchoVideoModelAnalyzeClip(t *testing.T) {
	span, err := EchoVideoModel{}.AnalyzeClip(context.Background(), "/tmp/clip.mp4", "query")
	require.NoError(t, err)
	assert.Equal(t, 0.6, span.Confidence)
}
