package youtube

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		iso  string
		want time.Duration
	}{
		{"PT4M13S", 4*time.Minute + 13*time.Second},
		{"PT1H2M3S", time.Hour + 2*time.Minute + 3*time.Second},
		{"PT30S", 30 * time.Second},
		{"PT15M", 15 * time.Minute},
		{"garbage", 0},
		{"", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseDuration(tc.iso), tc.iso)
	}
}

func TestCanonicalWatchURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", CanonicalWatchURL("abc123"))
}
