package tree

import (
	"strings"

	"github.com/rivo/uniseg"
)

// GraphemeLen returns the number of grapheme clusters in s. Point offsets
// count grapheme clusters.
func GraphemeLen(s string) int {
	if s == "" {
		return 0
	}
	return uniseg.GraphemeClusterCount(s)
}

// graphemeSlice returns s[start:end) in grapheme clusters.
func graphemeSlice(s string, start, end int) string {
	if s == "" || end <= start {
		return ""
	}
	g := uniseg.NewGraphemes(s)
	idx := 0
	var sb strings.Builder
	for g.Next() {
		if idx >= end {
			break
		}
		if idx >= start {
			sb.WriteString(g.Str())
		}
		idx++
	}
	return sb.String()
}

// graphemeSplit splits s at grapheme offset off.
func graphemeSplit(s string, off int) (string, string) {
	if off <= 0 {
		return "", s
	}
	g := uniseg.NewGraphemes(s)
	idx := 0
	for g.Next() {
		if idx == off {
			from, _ := g.Positions()
			return s[:from], s[from:]
		}
		idx++
	}
	return s, ""
}

// SliceText returns the grapheme range [start, end) of s.
func SliceText(s string, start, end int) string {
	if start < 0 {
		start = 0
	}
	return graphemeSlice(s, start, end)
}
