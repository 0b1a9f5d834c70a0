// Package summary implements §4.8: the single post-pipeline text-model call
// that integrates per-segment summaries into one answer, falling back to a
// bullet list so the caller never sees an error from this step.
package summary

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/adverant/videosearch/internal/models"
	"github.com/adverant/videosearch/internal/ports"
)

var logSummary = log.WithField("component", "summary")

// Integrate calls model with each segment's summary and returns its answer.
// On failure it concatenates the per-segment summaries as a bullet list
// instead, so this function never returns an error.
func Integrate(ctx context.Context, model ports.TextModel, userQuery string, segments []models.VideoSegment) string {
	if len(segments) == 0 {
		return ""
	}

	summaries := make([]string, len(segments))
	for i, seg := range segments {
		summaries[i] = seg.Summary
	}

	if model != nil {
		if text, err := model.IntegrateSummary(ctx, userQuery, summaries); err == nil && text != "" {
			return text
		} else if err != nil {
			logSummary.WithError(err).Warn("integrated summary failed, falling back to bullet list")
		}
	}

	var b strings.Builder
	for _, s := range summaries {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	return strings.TrimRight(b.String(), "\n")
}
