// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)
	jsonArrayRe  = regexp.MustCompile(`\[[\s\S]*\]`)
)

// ExtractJSON decodes the first JSON document found in model output.
// Providers wrap JSON in prose or markdown fences often enough that the
// whole text is tried first, then the widest bracketed spans, array
// before object.
func ExtractJSON(text string, out any) error {
	text = strings.TrimSpace(text)
	if json.Unmarshal([]byte(text), out) == nil {
		return nil
	}

	var candidates []string
	if m := jsonArrayRe.FindString(text); m != "" {
		candidates = append(candidates, m)
	}
	if m := jsonObjectRe.FindString(text); m != "" {
		candidates = append(candidates, m)
	}
	for _, c := range candidates {
		if json.Unmarshal([]byte(c), out) == nil {
			return nil
		}
	}
	return fmt.Errorf("could not parse JSON from model output")
}
