// Package sinks provides small reference implementations of the pipeline's
// optional sink interfaces (§6.6), the kind of default a caller reaches for
// in development before wiring a real progress UI, clip store, or subtitle
// cache.
package sinks

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/adverant/videosearch/internal/models"
)

// LoggingProgressSink logs every ProgressEvent at info level, prefixed by
// phase, the teacher's bracketed-component log-line convention translated
// to logrus fields.
type LoggingProgressSink struct {
	logger *log.Entry
}

// NewLoggingProgressSink builds a LoggingProgressSink.
func NewLoggingProgressSink() *LoggingProgressSink {
	return &LoggingProgressSink{logger: log.WithField("component", "progress")}
}

func (s *LoggingProgressSink) OnProgress(ctx context.Context, ev models.ProgressEvent) {
	s.logger.WithFields(log.Fields{"phase": ev.Phase, "progress": ev.Progress}).Info(ev.Step)
}

// DirClipSink copies every saved clip into a directory, named by video ID
// and a sequence number so multiple segments from the same video don't
// collide. The refinement pool (internal/refine) invokes OnClip from up to
// RefinementMaxWorkers goroutines concurrently, so bookkeeping is
// mutex-guarded; Paths returns copies in the order OnClip calls completed,
// which a caller that wants §4.9's concat fed in final-segment order should
// not assume matches candidate order.
type DirClipSink struct {
	Dir string

	mu     sync.Mutex
	counts map[string]int
	paths  []string
}

// NewDirClipSink builds a DirClipSink writing into dir, creating it if
// necessary.
func NewDirClipSink(dir string) (*DirClipSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DirClipSink{Dir: dir, counts: make(map[string]int)}, nil
}

func (s *DirClipSink) OnClip(ctx context.Context, videoID, localClipPath string) error {
	s.mu.Lock()
	s.counts[videoID]++
	dst := filepath.Join(s.Dir, videoID+"_"+strconv.Itoa(s.counts[videoID])+filepath.Ext(localClipPath))
	s.mu.Unlock()

	in, err := os.Open(localClipPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	s.mu.Lock()
	s.paths = append(s.paths, dst)
	s.mu.Unlock()
	return nil
}

// Paths returns every destination path OnClip has written so far, in
// completion order.
func (s *DirClipSink) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// NoopSubtitleSink discards subtitles; present so callers that don't care
// about caching transcripts can omit wiring one up explicitly.
type NoopSubtitleSink struct{}

func (NoopSubtitleSink) OnSubtitle(ctx context.Context, videoID string, sub models.Subtitle) {}
