// Package xtime implements the half-open time range value type used across
// the search pipeline to express caption, candidate, and clip timing.
package xtime

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRange is returned when a Range's bounds violate start >= 0 and
// end > start.
var ErrInvalidRange = errors.New("xtime: invalid range")

// Range is a half-open time interval [Start, End) measured in seconds.
type Range struct {
	Start float64
	End   float64
}

// New validates and constructs a Range. Construction fails with
// ErrInvalidRange unless start >= 0 and end > start.
func New(start, end float64) (Range, error) {
	if start < 0 || end <= start {
		return Range{}, fmt.Errorf("%w: start=%f end=%f", ErrInvalidRange, start, end)
	}
	return Range{Start: start, End: end}, nil
}

// Duration returns End - Start.
func (r Range) Duration() float64 {
	return r.End - r.Start
}

// WithBuffer returns a new Range expanded symmetrically by ratio*Duration().
// The lower bound is clamped to zero; the upper bound is never clamped here —
// callers clamp to video duration downstream when that bound is known.
func (r Range) WithBuffer(ratio float64) Range {
	buf := r.Duration() * ratio
	start := r.Start - buf
	if start < 0 {
		start = 0
	}
	return Range{Start: start, End: r.End + buf}
}

// Convert maps a clip-relative range into the absolute coordinate space of
// the source video, given the clip's absolute start offset.
//
// Convert(clipStart, Range(rs, re)) == Range(clipStart+rs, clipStart+re),
// exactly, at the float64 precision seconds are represented in.
func Convert(clipStart float64, relative Range) Range {
	return Range{Start: clipStart + relative.Start, End: clipStart + relative.End}
}

// Format renders the range's Start as HH:MM:SS.cc, the convention the media
// extractor's subprocess arguments use (hundredths-of-a-second precision).
func (r Range) Format() string {
	return FormatSeconds(r.Start)
}

// FormatSeconds renders a duration in seconds as HH:MM:SS.cc.
func FormatSeconds(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	totalCentis := int64(math.Round(sec * 100))
	centis := totalCentis % 100
	totalSecs := totalCentis / 100
	s := totalSecs % 60
	totalMins := totalSecs / 60
	m := totalMins % 60
	h := totalMins / 60
	return fmt.Sprintf("%02d:%02d:%02d.%02d", h, m, s, centis)
}

// Clamp restricts r to lie within [0, max], for bounding a range by a known
// video duration. A range lying wholly beyond max collapses to [max, max].
func (r Range) Clamp(max float64) Range {
	start := r.Start
	end := r.End
	if start < 0 {
		start = 0
	}
	if start > max {
		start = max
	}
	if end > max {
		end = max
	}
	if end <= start {
		end = start
	}
	return Range{Start: start, End: end}
}
