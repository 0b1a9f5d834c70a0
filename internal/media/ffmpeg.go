// Package media implements the one external adapter this repository owns
// concretely: MediaExtractor (§6.5). It is adapted from the teacher's
// internal/utils/ffmpeg.go (ffprobe/ffmpeg subprocess wrapper) and
// internal/utils/youtube_downloader.go (yt-dlp subprocess wrapper), repointed
// from "process an uploaded video file" to "download one byte range of a
// source video and validate/concatenate the resulting clips."
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/adverant/videosearch/internal/xtime"
)

// ffmpegHelper wraps ffmpeg/ffprobe subprocess invocations. Grounded on the
// teacher's FFmpegHelper: verify binaries exist at construction, shell out
// with exec.CommandContext for every operation so callers get cancellation
// for free.
type ffmpegHelper struct {
	ffmpegPath  string
	ffprobePath string
}

func newFFmpegHelper(ffmpegPath, ffprobePath string) (*ffmpegHelper, error) {
	fp, err := exec.LookPath(ffmpegPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found at %q: %w", ffmpegPath, err)
	}
	pp, err := exec.LookPath(ffprobePath)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found at %q: %w", ffprobePath, err)
	}
	return &ffmpegHelper{ffmpegPath: fp, ffprobePath: pp}, nil
}

// probeResult is the subset of ffprobe's JSON output we need.
type probeResult struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
	} `json:"streams"`
	Format struct {
		Size string `json:"size"`
	} `json:"format"`
}

// hasVideoStream probes path and reports whether it contains a decodable
// video stream, per §6.5's validation requirement on ExtractClip and §4.9's
// drop-if-no-video-stream rule for concat inputs.
func (h *ffmpegHelper) hasVideoStream(ctx context.Context, path string) (bool, error) {
	cmd := exec.CommandContext(ctx, h.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("ffprobe failed: %w", err)
	}
	var probed probeResult
	if err := json.Unmarshal(out, &probed); err != nil {
		return false, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	for _, s := range probed.Streams {
		if s.CodecType == "video" {
			return true, nil
		}
	}
	return false, nil
}

// fileSize returns the size of a local file in bytes, 0 if unreadable.
func fileSize(path string) int64 {
	st, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return st.Size()
}

// remux re-encodes a downloaded range into a standalone, faststart H.264/AAC
// container, matching §6.5's "standalone, faststart-optimized container"
// requirement. yt-dlp's raw segment download is not always a clean,
// independently playable container, so we always pass it through ffmpeg once.
func (h *ffmpegHelper) remux(ctx context.Context, inPath, outPath string) error {
	cmd := exec.CommandContext(ctx, h.ffmpegPath,
		"-y",
		"-i", inPath,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-movflags", "+faststart",
		outPath,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg remux failed: %w: %s", err, stderr.String())
	}
	return nil
}

// directExtract downloads a time range directly from a source URL ffmpeg can
// demux over HTTP range requests, used for non-YouTube sources.
func (h *ffmpegHelper) directExtract(ctx context.Context, sourceURL string, window xtime.Range, outPath string) error {
	cmd := exec.CommandContext(ctx, h.ffmpegPath,
		"-y",
		"-ss", xtime.FormatSeconds(window.Start),
		"-to", xtime.FormatSeconds(window.End),
		"-i", sourceURL,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-movflags", "+faststart",
		outPath,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg direct extract failed: %w: %s", err, stderr.String())
	}
	return nil
}

