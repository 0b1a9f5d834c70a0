package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/adverant/videosearch/internal/models"
	"github.com/adverant/videosearch/internal/ports"
)

type stubSearchProvider struct {
	byOrder map[ports.SearchOrder][]models.Video
	failOn  map[ports.SearchOrder]bool
	calls   []ports.SearchOrder
}

func (p *stubSearchProvider) Search(ctx context.Context, query string, order ports.SearchOrder, publishedAfter *time.Time, maxResults int, durationMin, durationMax float64) ([]models.Video, error) {
	p.calls = append(p.calls, order)
	if p.failOn[order] {
		return nil, errors.New("provider failure")
	}
	vids := p.byOrder[order]
	if len(vids) > maxResults {
		vids = vids[:maxResults]
	}
	return vids, nil
}

func TestSearchMergesAndDedupesPreservingFirstOccurrence(t *testing.T) {
	provider := &stubSearchProvider{
		byOrder: map[ports.SearchOrder][]models.Video{
			ports.OrderRelevance: {{VideoID: "a"}, {VideoID: "b"}},
			ports.OrderDate:      {{VideoID: "b"}, {VideoID: "c"}},
		},
	}

	result := Search(context.Background(), provider, []string{"query one"}, 10, 0, 3600, time.Now(), nil, nil)

	ids := make([]string, len(result.Videos))
	for i, v := range result.Videos {
		ids[i] = v.VideoID
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestSearchTreatsStrategyFailureAsZeroResults(t *testing.T) {
	provider := &stubSearchProvider{
		byOrder: map[ports.SearchOrder][]models.Video{
			ports.OrderRelevance: {{VideoID: "a"}},
		},
		failOn: map[ports.SearchOrder]bool{ports.OrderDate: true},
	}

	result := Search(context.Background(), provider, []string{"q"}, 10, 0, 3600, time.Now(), nil, nil)
	assert.Len(t, result.Videos, 1)
	assert.Equal(t, "a", result.Videos[0].VideoID)
}

func TestSearchRunsEveryQueryAgainstEveryStrategy(t *testing.T) {
	provider := &stubSearchProvider{byOrder: map[ports.SearchOrder][]models.Video{}}

	Search(context.Background(), provider, []string{"q1", "q2"}, 10, 0, 3600, time.Now(), nil, nil)

	assert.Len(t, provider.calls, 2*len(strategies))
}

func TestSearchSkipsRemainingWorkOnCancellation(t *testing.T) {
	provider := &stubSearchProvider{byOrder: map[ports.SearchOrder][]models.Video{
		ports.OrderRelevance: {{VideoID: "a"}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Search(ctx, provider, []string{"q"}, 10, 0, 3600, time.Now(), nil, nil)
	assert.Empty(t, result.Videos)
	assert.Empty(t, provider.calls)
}

func TestSearchAppliesPublishedBeforeUpperBound(t *testing.T) {
	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	provider := &stubSearchProvider{
		byOrder: map[ports.SearchOrder][]models.Video{
			ports.OrderRelevance: {
				{VideoID: "old", PublishedAt: cutoff.AddDate(0, 0, -1)},
				{VideoID: "new", PublishedAt: cutoff.AddDate(0, 0, 1)},
			},
		},
	}

	result := Search(context.Background(), provider, []string{"q"}, 10, 0, 3600, time.Now(), nil, &cutoff)

	ids := make([]string, len(result.Videos))
	for i, v := range result.Videos {
		ids[i] = v.VideoID
	}
	assert.Equal(t, []string{"old"}, ids)
}
