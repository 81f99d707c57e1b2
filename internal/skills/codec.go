// Package skills provides the free-text skills list codec used at display
// boundaries: skills travel through the system as a list of trimmed
// non-empty strings and are shown as a comma-and-space joined string.
package skills

import "strings"

// Parse splits a comma-delimited skills string into trimmed non-empty
// tokens. Original whitespace and empty segments are intentionally not
// preserved; that is normalization, not loss.
func Parse(s string) []string {
	out := []string{}
	for _, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		out = append(out, token)
	}
	return out
}

// Join renders a skills list as a comma-and-space joined string.
// A nil or empty list renders as "".
func Join(skills []string) string {
	return strings.Join(skills, ", ")
}

// Normalize round-trips a raw skills string through the codec, yielding
// the canonical display form.
func Normalize(s string) string {
	return Join(Parse(s))
}
