package media

import (
	"context"
	"strings"
)

// DownloadAuth supplies a bearer token for authenticated source downloads —
// carried forward from the teacher's YouTubeAuthClient interface
// (internal/utils/youtube_downloader.go) and clients.NexusAuthClient, which
// fetched per-user YouTube OAuth tokens so private/unlisted videos and
// higher rate-limit tiers were reachable. Optional: a nil DownloadAuth means
// every extraction is unauthenticated, exactly as the teacher's downloader
// falls back when no token is available.
type DownloadAuth interface {
	// Token returns a bearer token for videoURL, or "" if none applies.
	Token(ctx context.Context, videoURL string) (string, error)
}

// isYouTubeURL reports whether url looks like a YouTube watch/share link,
// the same heuristic the teacher's IsYouTubeURL used to route to yt-dlp
// instead of a direct ffmpeg HTTP-range pull.
func isYouTubeURL(url string) bool {
	u := strings.ToLower(url)
	return strings.Contains(u, "youtube.com") ||
		strings.Contains(u, "youtu.be") ||
		strings.Contains(u, "youtube-nocookie.com")
}
