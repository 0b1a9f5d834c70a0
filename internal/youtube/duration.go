// Package youtube carries forward small, stateless helpers from the
// teacher's YouTube Data API client (internal/utils/youtube_api.go) that a
// SearchProvider implementation needs for §6.1's duration filtering, even
// though the provider's HTTP client itself is out of this repository's
// scope. No SearchProvider in this repository calls it; it is exercised by
// its own unit tests.
package youtube

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var isoDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDuration parses a YouTube Data API ISO-8601 period expression
// (e.g. "PT4M13S") into a time.Duration. Per §6.1, an unparseable expression is
// treated as zero rather than an error, so callers filtering by duration
// drop the video instead of failing the whole search strategy.
func ParseDuration(iso string) time.Duration {
	m := isoDurationPattern.FindStringSubmatch(iso)
	if m == nil {
		return 0
	}
	hours := atoiOrZero(m[1])
	minutes := atoiOrZero(m[2])
	seconds := atoiOrZero(m[3])
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// CanonicalWatchURL builds the canonical youtube.com watch URL for a video
// ID, the form the URL-fallback path (§4.5) passes to the text model as a
// video part.
func CanonicalWatchURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
}
