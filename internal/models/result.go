package models

import (
	"time"

	"github.com/adverant/videosearch/internal/xtime"
)

// Candidate is a pre-refinement match produced by the transcript stage: a
// video, a time range within it, a confidence in [0,1], and a summary.
type Candidate struct {
	Video      Video
	Range      xtime.Range
	Confidence float64
	Summary    string
}

// DegradedSummary is the sentinel summary attached to a VideoSegment whose
// refinement failed after exhausting retries or because extraction failed.
const DegradedSummary = "refinement failed: using unrefined candidate range"

// DegradedConfidence is the fixed confidence assigned to a degraded segment.
const DegradedConfidence = 0.5

// VideoSegment is a terminal output: a video, an absolute time range, a
// summary, and a confidence. Segments produced via the refinement stage's
// degraded path are identifiable by Summary == DegradedSummary.
type VideoSegment struct {
	Video      Video
	Range      xtime.Range
	Summary    string
	Confidence float64
}

// Degraded reports whether this segment took the refinement-failure path.
func (s VideoSegment) Degraded() bool {
	return s.Summary == DegradedSummary && s.Confidence == DegradedConfidence
}

// SearchResult is the pipeline's terminal output for one user query.
type SearchResult struct {
	Query             string
	Segments          []VideoSegment
	ProcessingTimeSec float64
}

// ProgressPhase tags a stage of the pipeline for progress reporting.
type ProgressPhase string

const (
	PhaseFanOut       ProgressPhase = "fan_out"
	PhaseSearch       ProgressPhase = "search"
	PhaseTitleFilter  ProgressPhase = "title_filter"
	PhaseTranscript   ProgressPhase = "transcript"
	PhaseRefinement   ProgressPhase = "refinement"
	PhaseFinalization ProgressPhase = "finalization"
)

// ProgressEvent is one point in a monotone-progress stream describing pipeline
// advancement. Progress is in [0,1]; within one run the sequence of Progress
// values is non-decreasing, and the terminal event's Progress is exactly 1.0.
type ProgressEvent struct {
	Phase    ProgressPhase
	Step     string
	Progress float64
	Details  map[string]interface{}
	At       time.Time
}
