// Command videosearch is the pipeline's entrypoint, carrying forward the
// teacher's cmd/worker/main.go dual-mode shape: MODE=queue runs the durable
// asynq/Redis consumer for a deployed worker fleet; MODE=once (the
// default) reads one query and runs the pipeline directly, writing its
// SearchResult as JSON to stdout and progress events as JSON lines to
// stderr, the subprocess-mode convention the teacher uses to keep stdout
// clean for a single JSON payload.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/adverant/videosearch/internal/config"
	"github.com/adverant/videosearch/internal/fakeproviders"
	"github.com/adverant/videosearch/internal/media"
	"github.com/adverant/videosearch/internal/models"
	"github.com/adverant/videosearch/internal/pipeline"
	"github.com/adverant/videosearch/internal/ports"
	"github.com/adverant/videosearch/internal/queue"
	"github.com/adverant/videosearch/internal/sinks"
	"github.com/adverant/videosearch/internal/summary"
)

// cliOutput is what MODE=once writes to stdout: the pipeline's SearchResult
// plus the two post-pipeline operations §1 promises alongside it (§4.8's
// integrated summary, always computed, and §4.9's concatenated clip, only
// when VIDEOSEARCH_OUTPUT_CLIP names an output path).
type cliOutput struct {
	models.SearchResult
	IntegratedSummary string `json:"integratedSummary"`
	ConcatenatedClip  string `json:"concatenatedClip,omitempty"`
}

func main() {
	mode := getEnv("MODE", "once")

	cfg, err := config.Load(os.Getenv("VIDEOSEARCH_CONFIG_FILE"))
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	switch mode {
	case "queue":
		runQueueMode(cfg)
	default:
		runOnceMode(cfg)
	}
}

func runQueueMode(cfg config.Config) {
	p, _, err := buildPipeline(cfg, nil)
	if err != nil {
		log.WithError(err).Fatal("failed to build pipeline")
	}

	consumer, err := queue.NewConsumer(queue.ConsumerConfig{
		RedisURL:    cfg.RedisURL,
		Concurrency: cfg.TranscriptWorkers,
		Pipeline:    p,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to build queue consumer")
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		consumer.Stop()
	}()

	if err := consumer.Start(); err != nil {
		log.WithError(err).Fatal("queue consumer exited with error")
	}
}

func runOnceMode(cfg config.Config) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.JSONFormatter{})

	query, err := readQuery()
	if err != nil {
		fmt.Fprintf(os.Stderr, `{"error": %q}`+"\n", err.Error())
		os.Exit(1)
	}

	outputClipPath := os.Getenv("VIDEOSEARCH_OUTPUT_CLIP")
	var clipSink *sinks.DirClipSink
	if outputClipPath != "" {
		clipSink, err = sinks.NewDirClipSink(filepath.Join(cfg.TempDir, "cli-clips"))
		if err != nil {
			fmt.Fprintf(os.Stderr, `{"error": %q}`+"\n", err.Error())
			os.Exit(1)
		}
	}

	// clipSink is passed through as a ports.ClipSink only when non-nil:
	// assigning a nil *sinks.DirClipSink to an interface parameter would
	// otherwise produce a non-nil interface wrapping a nil pointer, and
	// internal/refine's `s.ClipSink != nil` guard would wrongly fire.
	var clipSinkIface ports.ClipSink
	if clipSink != nil {
		clipSinkIface = clipSink
	}
	p, extractor, err := buildPipeline(cfg, clipSinkIface)
	if err != nil {
		fmt.Fprintf(os.Stderr, `{"error": %q}`+"\n", err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	result, err := p.Run(ctx, query)
	if err != nil {
		fmt.Fprintf(os.Stderr, `{"error": %q}`+"\n", err.Error())
		os.Exit(1)
	}

	// §4.8: always produce the integrated summary, falling back to a
	// bullet list internally rather than surfacing an error here.
	out := cliOutput{
		SearchResult:      result,
		IntegratedSummary: summary.Integrate(ctx, fakeproviders.EchoTextModel{}, query, result.Segments),
	}

	// §4.9: optionally concatenate the clips the refinement stage saved,
	// in the order they were produced, when the caller asked for one.
	if clipSink != nil && len(result.Segments) > 0 {
		if concatErr := extractor.Concat(ctx, clipSink.Paths(), outputClipPath); concatErr != nil {
			log.WithError(concatErr).Warn("clip concatenation failed")
		} else {
			out.ConcatenatedClip = outputClipPath
		}
	}

	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(out); err != nil {
		log.WithError(err).Fatal("failed to encode result")
	}
}

// buildPipeline wires the one external adapter this repository implements
// concretely (MediaExtractor, internal/media) against the real ffmpeg/
// yt-dlp binaries, and falls back to internal/fakeproviders for the four
// out-of-scope collaborators (SearchProvider, TranscriptProvider, TextModel,
// VideoModel) so the binary runs standalone. A real deployment replaces the
// fakeproviders.* values below with HTTP-backed implementations. clipSink is
// nil unless the caller asked for a concatenated output clip.
func buildPipeline(cfg config.Config, clipSink ports.ClipSink) (*pipeline.Pipeline, *media.Extractor, error) {
	extractor, err := media.NewExtractor(cfg, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing media extractor: %w", err)
	}

	progressSink := sinks.NewLoggingProgressSink()

	deps := pipeline.Deps{
		SearchP:      fakeproviders.StaticSearchProvider{Catalog: []models.Video{}},
		Transcripts:  fakeproviders.NoTranscriptProvider{},
		TextModel:    fakeproviders.EchoTextModel{},
		VideoModel:   fakeproviders.EchoVideoModel{},
		Extractor:    ports.MediaExtractor(extractor),
		Progress:     progressSink,
		ClipSink:     clipSink,
		SubtitleSink: sinks.NoopSubtitleSink{},
	}

	p, err := pipeline.New(cfg, deps)
	return p, extractor, err
}

// readQuery reads the user query from the first non-flag CLI argument, or
// from stdin if none was given, trimming trailing newlines.
func readQuery() (string, error) {
	for _, arg := range os.Args[1:] {
		if !strings.HasPrefix(arg, "-") {
			return arg, nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("reading query from stdin: %w", err)
	}
	query := strings.TrimSpace(string(data))
	if query == "" {
		return "", fmt.Errorf("no query provided on argv or stdin")
	}
	return query, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
