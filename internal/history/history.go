// Package history holds the rules applied to clipboard entries around
// persistence: change detection, preview truncation and ordering.
package history

import (
	"sort"
	"unicode/utf8"

	"github.com/starford/clipman/internal/models"
)

// Preview limits.
const (
	PreviewLimit = 100
	Ellipsis     = "..."
)

// HasChanged reports whether content differs from the last observation.
// Comparison is exact: no trimming, no case folding.
func HasChanged(content string, last *string) bool {
	return last == nil || *last != content
}

// Preview returns content unchanged when it has at most PreviewLimit
// characters, otherwise its first PreviewLimit characters and Ellipsis.
// Truncation always lands on a rune boundary.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= PreviewLimit {
		return content
	}
	n := 0
	for i := range content {
		if n == PreviewLimit {
			return content[:i] + Ellipsis
		}
		n++
	}
	return content
}

// NextPinOrder returns the pin order for a newly pinned entry given the
// current maximum, or 1 when nothing is pinned.
func NextPinOrder(currentMax *int) int {
	if currentMax == nil {
		return 1
	}
	return *currentMax + 1
}

// SortByRecency orders entries newest first. Entries with equal timestamps
// keep their relative order.
func SortByRecency(entries []models.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}
