package trie

import "strings"

// Normalize case-folds content the same way for indexing and querying.
func Normalize(s string) string {
	return strings.ToLower(s)
}

// Tokenize splits normalized content on whitespace and returns the distinct
// tokens in first-seen order. Empty tokens never appear.
func Tokenize(normalized string) []string {
	fields := strings.Fields(normalized)
	if len(fields) < 2 {
		return fields
	}
	seen := make(map[string]struct{}, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// NormalizeQuery case-folds a query and collapses its words into a single
// space-joined string. Multi-word queries are matched as one prefix, not
// word by word.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(Normalize(q)), " ")
}
