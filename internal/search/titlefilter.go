package search

import (
	log "github.com/sirupsen/logrus"

	"context"

	"github.com/adverant/videosearch/internal/ports"
)

var logTitleFilter = log.WithField("component", "search.titlefilter")

// FilterTitles implements §4.4: ask model to pick the max most relevant
// video IDs out of candidates for userQuery. The model's answer is
// truncated to max, filtered against the candidate set (an id the model
// invents is silently dropped), and order-preserved as the model returned
// it. On model failure, unparseable output, or an explicitly-empty
// selection, the filter degrades to the first max input ids — it never
// returns zero ids when candidates is non-empty, so the pipeline always has
// something to carry into the transcript stage.
func FilterTitles(ctx context.Context, model ports.TextModel, userQuery string, candidates []ports.TitleCandidate, max int) []string {
	passthrough := func() []string {
		n := max
		if n > len(candidates) {
			n = len(candidates)
		}
		ids := make([]string, 0, n)
		for _, c := range candidates[:n] {
			ids = append(ids, c.VideoID)
		}
		return ids
	}

	if len(candidates) == 0 {
		return nil
	}

	selected, err := model.FilterTitles(ctx, userQuery, candidates, max)
	if err != nil {
		logTitleFilter.WithError(err).Warn("title filter failed, passing through first max input ids")
		return passthrough()
	}

	valid := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		valid[c.VideoID] = struct{}{}
	}

	out := make([]string, 0, max)
	for _, id := range selected {
		if _, ok := valid[id]; !ok {
			continue
		}
		out = append(out, id)
		if len(out) == max {
			break
		}
	}

	if len(out) == 0 {
		logTitleFilter.Warn("title filter selected nothing, substituting first max input ids")
		return passthrough()
	}
	return out
}
