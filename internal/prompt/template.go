// Package prompt renders named-variable templates for synthesis requests
// and notification bodies. Rendering is a pure function; an unresolved
// variable is a validation failure, never silently left in place.
package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{([a-zA-Z0-9_]+)\}\}`)

// Render substitutes every {{name}} placeholder in tmpl from vars. It
// returns an error naming the first placeholder with no mapping.
func Render(tmpl string, vars map[string]string) (string, error) {
	var missing string
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := strings.Trim(m, "{}")
		v, ok := vars[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return m
		}
		return v
	})
	if missing != "" {
		return "", fmt.Errorf("unresolved template variable: %s", missing)
	}
	return out, nil
}
