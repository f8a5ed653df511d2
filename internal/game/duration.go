package game

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const defaultDuration = time.Hour

// ParseDuration parses a duration string with an optional d/h/m/s
// suffix. An empty or unparsable string falls back
// to the 1-hour default. cap, if positive, clamps the result.
func ParseDuration(raw string, cap time.Duration) (time.Duration, string) {
	d, ok := parseRaw(raw)
	if !ok {
		d = defaultDuration
	}
	if cap > 0 && d > cap {
		d = cap
	}
	return d, humanize(d)
}

func parseRaw(raw string) (time.Duration, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	unit := raw[len(raw)-1]
	var mult time.Duration
	numPart := raw
	switch unit {
	case 'd':
		mult = 24 * time.Hour
		numPart = raw[:len(raw)-1]
	case 'h':
		mult = time.Hour
		numPart = raw[:len(raw)-1]
	case 'm':
		mult = time.Minute
		numPart = raw[:len(raw)-1]
	case 's':
		mult = time.Second
		numPart = raw[:len(raw)-1]
	default:
		// no recognised d/h/m/s suffix: fall back to the default duration
		mult = 0
	}
	n, err := strconv.Atoi(numPart)
	if err != nil || n <= 0 {
		return 0, false
	}
	if mult == 0 {
		return 0, false
	}
	return time.Duration(n) * mult, true
}

func humanize(d time.Duration) string {
	totalMinutes := int(d.Minutes())
	hours := totalMinutes / 60
	minutes := totalMinutes % 60
	days := hours / 24
	hours = hours % 24

	var parts []string
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if len(parts) == 0 {
		return plural(int(d.Seconds()), "second")
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// TempbanCap is the hard ceiling for !tempban (72 hours).
const TempbanCap = 72 * time.Hour

// PermbanCap is the hard ceiling for !permban (20 years).
const PermbanCap = 20 * 365 * 24 * time.Hour
