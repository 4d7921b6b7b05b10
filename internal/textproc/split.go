package textproc

import (
	"regexp"
	"strings"
)

var terminatorRE = regexp.MustCompile(`(?:。|！|!|\?|？)+`)

// Split breaks text on runs of sentence terminators (。！!？?). Pieces are
// trimmed, empty pieces dropped, and source order is preserved. An empty
// result means the caller supplied no usable text.
func Split(text string) []string {
	parts := terminatorRE.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
