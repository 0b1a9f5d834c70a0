package sinks

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/videosearch/internal/models"
)

func TestDirClipSinkCopiesAndNamesSequentially(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDirClipSink(filepath.Join(dir, "clips"))
	require.NoError(t, err)

	clip := filepath.Join(dir, "source.mp4")
	require.NoError(t, os.WriteFile(clip, []byte("clip-data"), 0o644))

	require.NoError(t, sink.OnClip(context.Background(), "video1", clip))
	require.NoError(t, sink.OnClip(context.Background(), "video1", clip))

	first := filepath.Join(dir, "clips", "video1_1.mp4")
	second := filepath.Join(dir, "clips", "video1_2.mp4")

	data1, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "clip-data", string(data1))

	_, err = os.Stat(second)
	require.NoError(t, err)
}

func TestNewDirClipSinkCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "clips")
	_, err := NewDirClipSink(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNoopSubtitleSinkDoesNothing(t *testing.T) {
	var sink NoopSubtitleSink
	assert.NotPanics(t, func() {
		sink.OnSubtitle(context.Background(), "v1", models.Subtitle{VideoID: "v1"})
	})
}
