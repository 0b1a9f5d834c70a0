// Package config loads pipeline configuration. The teacher
// (adverant-Adverant-Nexus-Plugin-VideoAgent) reads flat env vars by hand in
// cmd/worker/main.go's loadConfig; the wider retrieved pack standardizes on
// spf13/viper for layered env/defaults/file configuration, which is what we
// use here, keeping the teacher's flat env-var names as viper keys.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every recognized option from spec.md §6.7 plus the worker-pool
// and media-tool sizing the component design (§4.5, §4.6, §4.9) fixes as
// defaults. All fields are plain values — Config is passed by value into the
// orchestrator and never mutated after Load returns.
type Config struct {
	// §6.7 options
	MaxSearchResults     int
	MaxFinalResults      int
	BufferRatio          float64
	MinConfidence        float64
	EnableVLMRefinement  bool
	DurationMinSec       float64
	DurationMaxSec       float64
	EnableURLFallback    bool
	URLFallbackMaxDuration time.Duration
	PublishedAfter       *time.Time
	PublishedBefore      *time.Time

	// Worker pools (§4.5, §4.6)
	TranscriptWorkers    int
	TranscriptTaskTimeout time.Duration
	RefinementMaxWorkers int
	StaggerDelay         time.Duration
	MaxRetries           int
	RetryDelay           time.Duration

	// Media tool (§4.9)
	FFmpegPath  string
	FFprobePath string
	YtDlpPath   string
	TempDir     string

	// Infra (durable queue entrypoint, internal/queue)
	RedisURL string
}

// ErrInvalidConfig marks configuration invalid before a pipeline run starts;
// it is the only error kind (besides cancellation) the orchestrator lets
// escape to the caller (§7).
type ErrInvalidConfig struct {
	Reason string
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("config: %s", e.Reason)
}

// Default returns the configuration spec.md's component design fixes as
// defaults (§4.5 120s task timeout / 5 workers, §4.6 stagger 3s / buffer 0.2
// / retries 3 / linear backoff 2s, §4.9 tool paths).
func Default() Config {
	return Config{
		MaxSearchResults:       30,
		MaxFinalResults:        10,
		BufferRatio:            0.2,
		MinConfidence:          0.3,
		EnableVLMRefinement:    true,
		DurationMinSec:         0,
		DurationMaxSec:         3600,
		EnableURLFallback:      true,
		URLFallbackMaxDuration: 20 * time.Minute,
		TranscriptWorkers:      5,
		TranscriptTaskTimeout:  120 * time.Second,
		RefinementMaxWorkers:   3,
		StaggerDelay:           3 * time.Second,
		MaxRetries:             3,
		RetryDelay:             2 * time.Second,
		FFmpegPath:             "ffmpeg",
		FFprobePath:            "ffprobe",
		YtDlpPath:              "yt-dlp",
		TempDir:                "/tmp/videosearch",
		RedisURL:               "redis://127.0.0.1:6379/0",
	}
}

// Load reads configuration from environment variables (optionally overlaid
// by a config file at configPath, "" to skip), falling back to Default()'s
// values, exactly as the teacher's getEnv(key, default) pattern but through
// viper so a deployment can also supply a YAML/JSON file or flags later.
func Load(configPath string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VIDEOSEARCH")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("max_search_results", d.MaxSearchResults)
	v.SetDefault("max_final_results", d.MaxFinalResults)
	v.SetDefault("buffer_ratio", d.BufferRatio)
	v.SetDefault("min_confidence", d.MinConfidence)
	v.SetDefault("enable_vlm_refinement", d.EnableVLMRefinement)
	v.SetDefault("duration_min_sec", d.DurationMinSec)
	v.SetDefault("duration_max_sec", d.DurationMaxSec)
	v.SetDefault("enable_url_fallback", d.EnableURLFallback)
	v.SetDefault("url_fallback_max_duration_sec", int(d.URLFallbackMaxDuration.Seconds()))
	v.SetDefault("transcript_workers", d.TranscriptWorkers)
	v.SetDefault("transcript_task_timeout_sec", int(d.TranscriptTaskTimeout.Seconds()))
	v.SetDefault("refinement_max_workers", d.RefinementMaxWorkers)
	v.SetDefault("stagger_delay_sec", d.StaggerDelay.Seconds())
	v.SetDefault("max_retries", d.MaxRetries)
	v.SetDefault("retry_delay_sec", d.RetryDelay.Seconds())
	v.SetDefault("ffmpeg_path", d.FFmpegPath)
	v.SetDefault("ffprobe_path", d.FFprobePath)
	v.SetDefault("ytdlp_path", d.YtDlpPath)
	v.SetDefault("temp_dir", d.TempDir)
	v.SetDefault("redis_url", d.RedisURL)
	v.SetDefault("published_after", "")
	v.SetDefault("published_before", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, &ErrInvalidConfig{Reason: fmt.Sprintf("reading config file %s: %v", configPath, err)}
		}
	}

	cfg := Config{
		MaxSearchResults:       v.GetInt("max_search_results"),
		MaxFinalResults:        v.GetInt("max_final_results"),
		BufferRatio:            v.GetFloat64("buffer_ratio"),
		MinConfidence:          v.GetFloat64("min_confidence"),
		EnableVLMRefinement:    v.GetBool("enable_vlm_refinement"),
		DurationMinSec:         v.GetFloat64("duration_min_sec"),
		DurationMaxSec:         v.GetFloat64("duration_max_sec"),
		EnableURLFallback:      v.GetBool("enable_url_fallback"),
		URLFallbackMaxDuration: time.Duration(v.GetInt("url_fallback_max_duration_sec")) * time.Second,
		TranscriptWorkers:      v.GetInt("transcript_workers"),
		TranscriptTaskTimeout:  time.Duration(v.GetInt("transcript_task_timeout_sec")) * time.Second,
		RefinementMaxWorkers:   v.GetInt("refinement_max_workers"),
		StaggerDelay:           time.Duration(v.GetFloat64("stagger_delay_sec") * float64(time.Second)),
		MaxRetries:             v.GetInt("max_retries"),
		RetryDelay:             time.Duration(v.GetFloat64("retry_delay_sec") * float64(time.Second)),
		FFmpegPath:             v.GetString("ffmpeg_path"),
		FFprobePath:            v.GetString("ffprobe_path"),
		YtDlpPath:              v.GetString("ytdlp_path"),
		TempDir:                v.GetString("temp_dir"),
		RedisURL:               v.GetString("redis_url"),
	}

	if s := v.GetString("published_after"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return Config{}, &ErrInvalidConfig{Reason: fmt.Sprintf("published_after: %v", err)}
		}
		cfg.PublishedAfter = &t
	}
	if s := v.GetString("published_before"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return Config{}, &ErrInvalidConfig{Reason: fmt.Sprintf("published_before: %v", err)}
		}
		cfg.PublishedBefore = &t
	}

	return cfg, cfg.Validate()
}

// Validate enforces the invariants the orchestrator relies on before a run
// starts. A failure here is the one case (besides explicit cancellation)
// spec.md's §7 lets escape to the caller as ConfigError.
func (c Config) Validate() error {
	switch {
	case c.MaxFinalResults <= 0:
		return &ErrInvalidConfig{Reason: "max_final_results must be > 0"}
	case c.MaxSearchResults <= 0:
		return &ErrInvalidConfig{Reason: "max_search_results must be > 0"}
	case c.BufferRatio < 0:
		return &ErrInvalidConfig{Reason: "buffer_ratio must be >= 0"}
	case c.MinConfidence < 0 || c.MinConfidence > 1:
		return &ErrInvalidConfig{Reason: "min_confidence must be in [0,1]"}
	case c.DurationMinSec < 0 || c.DurationMaxSec < c.DurationMinSec:
		return &ErrInvalidConfig{Reason: "duration_min_sec/duration_max_sec out of order"}
	case c.TranscriptWorkers <= 0:
		return &ErrInvalidConfig{Reason: "transcript_workers must be > 0"}
	case c.RefinementMaxWorkers <= 0:
		return &ErrInvalidConfig{Reason: "refinement_max_workers must be > 0"}
	case c.MaxRetries < 0:
		return &ErrInvalidConfig{Reason: "max_retries must be >= 0"}
	}
	return nil
}
