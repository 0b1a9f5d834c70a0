// Package models holds the value types passed between pipeline stages:
// search results, subtitles, candidates, and the final ranked segments.
// All types here are immutable value types, mirroring the teacher's
// JobPayload/ProcessingOptions convention of plain structs with pointer
// fields for genuinely optional data.
package models

import "time"

// Video is an immutable reference to a search result. VideoID is opaque and
// stable across stages; callers must not assume any particular format.
type Video struct {
	VideoID     string
	Title       string
	Channel     string
	Duration    float64 // seconds
	PublishedAt time.Time
	ThumbnailURL string
}

// SubtitleChunk is a single caption line.
type SubtitleChunk struct {
	StartSec float64
	EndSec   float64
	Text     string
}

// Subtitle is the full set of captions for one video, sorted ascending by
// StartSec, produced once per video by the transcript stage.
type Subtitle struct {
	VideoID         string
	Language        string
	IsAutoGenerated bool
	Chunks          []SubtitleChunk
}

// QueryVariants is the fan-out of a user query into three phrasings.
type QueryVariants struct {
	Original   string
	Optimized  string
	Simplified string
}

// All returns the three variants in fan-out order, with exact duplicates
// removed while preserving first occurrence — the form the search stage
// consumes.
func (v QueryVariants) All() []string {
	seen := make(map[string]struct{}, 3)
	out := make([]string, 0, 3)
	for _, q := range []string{v.Original, v.Optimized, v.Simplified} {
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}

// SearchStats counts results returned per (query, strategy) call, keyed
// "query|strategy", for diagnostics.
type SearchStats map[string]int
