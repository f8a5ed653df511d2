package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDurationScenarios(t *testing.T) {
	cases := []struct {
		raw      string
		cap      time.Duration
		wantSecs float64
		wantText string
	}{
		{"2h", 0, 7200, "2 hours"},
		{"90m", 0, 5400, "1 hour 30 minutes"},
		{"", 0, 3600, "1 hour"},
		{"999d", TempbanCap, TempbanCap.Seconds(), "3 days"},
		{"20", 0, 3600, "1 hour"},
	}
	for _, c := range cases {
		d, text := ParseDuration(c.raw, c.cap)
		require.Equal(t, c.wantSecs, d.Seconds(), "raw=%q", c.raw)
		require.Equal(t, c.wantText, text, "raw=%q", c.raw)
	}
}

func TestParseDurationPermbanCap(t *testing.T) {
	d, _ := ParseDuration("9000d", PermbanCap)
	require.Equal(t, PermbanCap, d)
}
