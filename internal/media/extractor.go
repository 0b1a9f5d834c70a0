package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/adverant/videosearch/internal/config"
	"github.com/adverant/videosearch/internal/xtime"
)

var logMedia = log.WithField("component", "media")

// ErrExtraction marks a failure of ExtractClip or Concat per §6.5/§7's
// ExtractionError kind. The refinement stage does not retry extractor
// failures — they indicate a missing byte range, not a transient fault.
type ErrExtraction struct {
	Op     string
	Reason string
	Err    error
}

func (e *ErrExtraction) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("media: %s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("media: %s: %s", e.Op, e.Reason)
}

func (e *ErrExtraction) Unwrap() error { return e.Err }

// minClipBytes is §4.9's size floor below which a clip is treated as
// corrupt/truncated and dropped from a concat.
const minClipBytes = 1024

// Extractor implements ports.MediaExtractor via yt-dlp (for YouTube sources,
// using its native --download-sections range download) and ffmpeg (for
// direct HTTP-range-capable sources, and for the remux/concat steps both
// paths share). Adapted from the teacher's FFmpegHelper and
// YouTubeDownloader, repointed from "ingest an uploaded file" to "pull one
// byte range and hand back a standalone clip."
type Extractor struct {
	ffmpeg    *ffmpegHelper
	ytdlpPath string
	tempDir   string
	auth      DownloadAuth
}

// NewExtractor constructs an Extractor from Config, verifying ffmpeg,
// ffprobe, and yt-dlp are all on PATH, exactly as the teacher's
// NewFFmpegHelper/NewYouTubeDownloader fail fast at startup rather than at
// first use.
func NewExtractor(cfg config.Config, auth DownloadAuth) (*Extractor, error) {
	ff, err := newFFmpegHelper(cfg.FFmpegPath, cfg.FFprobePath)
	if err != nil {
		return nil, err
	}
	ytdlp, err := exec.LookPath(cfg.YtDlpPath)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp not found at %q: %w", cfg.YtDlpPath, err)
	}
	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating temp dir %s: %w", cfg.TempDir, err)
	}
	return &Extractor{ffmpeg: ff, ytdlpPath: ytdlp, tempDir: cfg.TempDir, auth: auth}, nil
}

// SetAuth configures the optional authenticated-download token source,
// mirroring the teacher's SetYouTubeAuthClient.
func (e *Extractor) SetAuth(auth DownloadAuth) { e.auth = auth }

// ExtractClip downloads window from videoURL into a standalone H.264/AAC
// container at outPath and validates it probes as containing a video
// stream, satisfying §6.5. ctx's deadline is set by the caller (§4.6:
// max(180, 180+0.5*fetch_duration) seconds) — this method does not impose
// its own timeout.
func (e *Extractor) ExtractClip(ctx context.Context, videoURL string, window xtime.Range, outPath string) error {
	if isYouTubeURL(videoURL) {
		if err := e.extractYouTube(ctx, videoURL, window, outPath); err != nil {
			return err
		}
	} else {
		raw := outPath + ".raw" + filepath.Ext(outPath)
		if err := e.ffmpeg.directExtract(ctx, videoURL, window, raw); err != nil {
			return &ErrExtraction{Op: "extract_clip", Reason: "direct download failed", Err: err}
		}
		defer os.Remove(raw)
		if err := e.ffmpeg.remux(ctx, raw, outPath); err != nil {
			return &ErrExtraction{Op: "extract_clip", Reason: "remux failed", Err: err}
		}
	}

	ok, err := e.ffmpeg.hasVideoStream(ctx, outPath)
	if err != nil {
		return &ErrExtraction{Op: "extract_clip", Reason: "probe failed", Err: err}
	}
	if !ok {
		return &ErrExtraction{Op: "extract_clip", Reason: "output has no video stream"}
	}
	return nil
}

func (e *Extractor) extractYouTube(ctx context.Context, videoURL string, window xtime.Range, outPath string) error {
	section := fmt.Sprintf("*%s-%s", xtime.FormatSeconds(window.Start), xtime.FormatSeconds(window.End))
	rawTemplate := outPath + ".raw.%(ext)s"

	args := []string{
		videoURL,
		"-f", "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
		"--download-sections", section,
		"--force-keyframes-at-cuts",
		"-o", rawTemplate,
		"--no-playlist",
		"--no-warnings",
		"--no-call-home",
		"--restrict-filenames",
	}

	if e.auth != nil {
		if token, err := e.auth.Token(ctx, videoURL); err == nil && token != "" {
			args = append(args, "--add-header", "Authorization:Bearer "+token)
		} else if err != nil {
			logMedia.WithError(err).Warn("download auth token unavailable, falling back to unauthenticated download")
		}
	}

	cmd := exec.CommandContext(ctx, e.ytdlpPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &ErrExtraction{Op: "extract_clip", Reason: fmt.Sprintf("yt-dlp failed: %s", string(out)), Err: err}
	}

	raw, err := findDownloaded(rawTemplate)
	if err != nil {
		return &ErrExtraction{Op: "extract_clip", Reason: "downloaded file not found after yt-dlp exit", Err: err}
	}
	defer os.Remove(raw)

	if err := e.ffmpeg.remux(ctx, raw, outPath); err != nil {
		return &ErrExtraction{Op: "extract_clip", Reason: "remux failed", Err: err}
	}
	return nil
}

// findDownloaded resolves yt-dlp's %(ext)s output template to the actual
// file it wrote, mirroring the teacher's extension-probing loop in
// YouTubeDownloader.Download.
func findDownloaded(template string) (string, error) {
	base := strings.TrimSuffix(template, filepath.Ext(template))
	for _, ext := range []string{"mp4", "webm", "mkv", "avi", "mov"} {
		candidate := base + "." + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no candidate output file found for template %s", template)
}

// Concat merges clipPaths into a single file at outPath, per §4.9: drop
// invalid inputs (missing, undersized, no video stream), fail if nothing
// survives, copy a lone survivor, stream-copy-concat two or more with a
// re-encode fallback on codec mismatch. The manifest file used for the
// concat demuxer is removed on every exit path.
func (e *Extractor) Concat(ctx context.Context, clipPaths []string, outPath string) error {
	valid := make([]string, 0, len(clipPaths))
	for _, p := range clipPaths {
		if fileSize(p) < minClipBytes {
			logMedia.WithField("path", p).Warn("dropping concat input: too small or missing")
			continue
		}
		ok, err := e.ffmpeg.hasVideoStream(ctx, p)
		if err != nil || !ok {
			logMedia.WithField("path", p).Warn("dropping concat input: no decodable video stream")
			continue
		}
		valid = append(valid, p)
	}

	switch len(valid) {
	case 0:
		return &ErrExtraction{Op: "concat", Reason: "no valid clip files to concatenate"}
	case 1:
		return copyFile(valid[0], outPath)
	}

	manifest, err := writeManifest(e.tempDir, valid)
	if err != nil {
		return &ErrExtraction{Op: "concat", Reason: "writing manifest failed", Err: err}
	}
	defer os.Remove(manifest)

	copyCtx, cancel := context.WithTimeout(ctx, 300*time.Second)
	defer cancel()
	if err := e.runConcat(copyCtx, manifest, outPath, false); err == nil {
		return nil
	} else {
		logMedia.WithError(err).Warn("stream-copy concat failed, retrying with re-encode")
	}

	reencodeCtx, cancel2 := context.WithTimeout(ctx, 600*time.Second)
	defer cancel2()
	if err := e.runConcat(reencodeCtx, manifest, outPath, true); err != nil {
		return &ErrExtraction{Op: "concat", Reason: "re-encode concat failed", Err: err}
	}
	return nil
}

func (e *Extractor) runConcat(ctx context.Context, manifest, outPath string, reencode bool) error {
	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", manifest}
	if reencode {
		args = append(args, "-c:v", "libx264", "-c:a", "aac", "-movflags", "+faststart")
	} else {
		args = append(args, "-c", "copy")
	}
	args = append(args, outPath)

	cmd := exec.CommandContext(ctx, e.ffmpeg.ffmpegPath, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg concat failed: %w: %s", err, stderr.String())
	}
	return nil
}

// writeManifest writes the concat demuxer's "file '...'" list, single-
// quoting each path and escaping embedded single quotes per ffmpeg's concat
// protocol, matching §4.9.
func writeManifest(dir string, paths []string) (string, error) {
	f, err := os.CreateTemp(dir, "concat-manifest-*.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		escaped := strings.ReplaceAll(abs, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		return "", err
	}
	return f.Name(), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &ErrExtraction{Op: "concat", Reason: "opening sole clip failed", Err: err}
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return &ErrExtraction{Op: "concat", Reason: "creating output failed", Err: err}
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return &ErrExtraction{Op: "concat", Reason: "copying sole clip failed", Err: err}
	}
	return nil
}

// NewTempClipPath returns a fresh, collision-free path under cfg.TempDir for
// one refinement task's downloaded clip, named after a fresh uuid the way
// the teacher names per-job temp files after JobID.
func NewTempClipPath(tempDir string) string {
	return filepath.Join(tempDir, fmt.Sprintf("clip-%s.mp4", uuid.NewString()))
}
