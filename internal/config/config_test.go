package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c Config) Config
	}{
		{"zero max final results", func(c Config) Config { c.MaxFinalResults = 0; return c }},
		{"zero max search results", func(c Config) Config { c.MaxSearchResults = 0; return c }},
		{"negative buffer ratio", func(c Config) Config { c.BufferRatio = -0.1; return c }},
		{"confidence above one", func(c Config) Config { c.MinConfidence = 1.5; return c }},
		{"confidence below zero", func(c Config) Config { c.MinConfidence = -0.5; return c }},
		{"duration bounds reversed", func(c Config) Config { c.DurationMinSec = 100; c.DurationMaxSec = 10; return c }},
		{"zero transcript workers", func(c Config) Config { c.TranscriptWorkers = 0; return c }},
		{"zero refinement workers", func(c Config) Config { c.RefinementMaxWorkers = 0; return c }},
		{"negative max retries", func(c Config) Config { c.MaxRetries = -1; return c }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.mutate(Default())
			err := cfg.Validate()
			require.Error(t, err)
			var invalid *ErrInvalidConfig
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

func TestLoadFallsBackToDefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().MaxFinalResults, cfg.MaxFinalResults)
	assert.Equal(t, Default().FFmpegPath, cfg.FFmpegPath)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("VIDEOSEARCH_MAX_FINAL_RESULTS", "7")
	t.Setenv("VIDEOSEARCH_ENABLE_VLM_REFINEMENT", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxFinalResults)
	assert.False(t, cfg.EnableVLMRefinement)
}

func TestLoadParsesPublishedWindowBounds(t *testing.T) {
	t.Setenv("VIDEOSEARCH_PUBLISHED_AFTER", "2026-01-01T00:00:00Z")
	t.Setenv("VIDEOSEARCH_PUBLISHED_BEFORE", "2026-06-01T00:00:00Z")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg.PublishedAfter)
	require.NotNil(t, cfg.PublishedBefore)
	assert.True(t, cfg.PublishedAfter.Before(*cfg.PublishedBefore))
}

func TestLoadRejectsUnparseablePublishedAfter(t *testing.T) {
	t.Setenv("VIDEOSEARCH_PUBLISHED_AFTER", "not-a-timestamp")

	_, err := Load("")
	require.Error(t, err)
	var invalid *ErrInvalidConfig
	assert.ErrorAs(t, err, &invalid)
}
