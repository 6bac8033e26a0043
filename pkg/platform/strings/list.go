// Package strings provides string list helpers shared by config parsing.
package strings

import (
	"strings"
)

// SplitList splits a comma separated value, trims each element and drops
// empties and repeats. Order of first appearance is kept.
//
//	SplitList(" a, b,a,, ") // []string{"a", "b"}
func SplitList(raw string) []string {
	return Dedupe(strings.Split(raw, ","))
}

// Dedupe trims every element and removes empties and duplicates. It returns
// nil when nothing is left.
func Dedupe(values []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
