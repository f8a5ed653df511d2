package game

import (
	"regexp"
	"strings"
)

var colorCodeRe = regexp.MustCompile(`\^[0-9]`)

const maxNameLen = 20

// CanonicalizeName strips Quake 3 color codes (^0-^9) and whitespace
// from raw and clips the result to maxNameLen. Color codes are removed
// until none is left, so the result is idempotent, has no "^\d" pairs,
// no whitespace and a length <= 20.
func CanonicalizeName(raw string) string {
	stripped := strings.Join(strings.Fields(raw), "")
	for colorCodeRe.MatchString(stripped) {
		stripped = colorCodeRe.ReplaceAllString(stripped, "")
	}
	if len(stripped) > maxNameLen {
		stripped = stripped[:maxNameLen]
	}
	return stripped
}
