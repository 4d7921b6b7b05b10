// Package decode turns raw model output into JSON values and reads fields out
// of those values through ordered alias lists.
package decode

import (
	"encoding/json"
	"regexp"
	"strings"
)

const fence = "```"

var openingFenceRE = regexp.MustCompile("^```(?:json|JSON)?\\s*")

// Decode parses raw as JSON after removing an optional ``` / ```json code
// fence. It never panics; ok is false whenever the text is not valid JSON or
// is the JSON null literal.
func Decode(raw string) (value any, ok bool) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, fence) {
		text = openingFenceRE.ReplaceAllString(text, "")
		text = strings.TrimSuffix(text, fence)
		text = strings.TrimSpace(text)
	}
	if text == "" {
		return nil, false
	}

	if err := json.Unmarshal([]byte(text), &value); err != nil || value == nil {
		return nil, false
	}
	return value, true
}
