// Package slug holds small string and number helpers shared by the review pipeline.
package slug

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Slugify lowercases and trims value, collapses every run of characters outside
// [a-z0-9] into a single hyphen and strips hyphens from both ends.
func Slugify(value string) string {
	lowered := strings.TrimSpace(strings.ToLower(value))

	var b strings.Builder
	b.Grow(len(lowered))
	pendingHyphen := false
	for i := 0; i < len(lowered); i++ {
		c := lowered[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteByte(c)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// ScoreMap decodes a loosely typed JSON object of category scores. Numbers and nulls are
// kept, numeric strings are parsed, blank strings read as 0 and other strings read as
// null. Nested values are dropped. An empty result is nil.
func ScoreMap(raw []byte) map[string]*float64 {
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil
	}

	out := make(map[string]*float64, len(obj))
	for key, value := range obj {
		switch v := value.(type) {
		case nil:
			out[key] = nil
		case float64:
			f := v
			out[key] = &f
		case string:
			trimmed := strings.TrimSpace(v)
			if trimmed == "" {
				zero := 0.0
				out[key] = &zero
				continue
			}
			f, err := strconv.ParseFloat(trimmed, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				out[key] = nil
				continue
			}
			out[key] = &f
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Round2 rounds to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
