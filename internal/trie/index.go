// Package trie provides a bounded, case-insensitive prefix index over the
// most recently inserted clipboard entries.
//
// The index keeps two structures in step: a token trie whose terminal nodes
// hold posting sets of entry ids, and a recency registry mapping each id to
// its normalized content. The registry is the only way to know which
// postings an evicted id owns, so eviction never scans the trie.
package trie

import (
	"sort"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultCapacity is the number of entries kept when no capacity is given.
const DefaultCapacity = 1000

// Index is safe for concurrent use. Every operation, reads included, runs
// under a single mutex so a search never observes a half-evicted id.
type Index struct {
	mu       sync.Mutex
	root     *node
	registry *simplelru.LRU[int64, string]
	capacity int
}

// New creates an index holding at most capacity entries. A non-positive
// capacity falls back to DefaultCapacity.
func New(capacity int) *Index {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	idx := &Index{root: newNode(), capacity: capacity}
	// simplelru only errors on a non-positive size.
	idx.registry, _ = simplelru.NewLRU[int64, string](capacity, idx.evict)
	return idx
}

// evict is the registry callback. It runs with mu held, inside Add, Remove
// or Purge.
func (idx *Index) evict(id int64, normalized string) {
	for _, tok := range Tokenize(normalized) {
		idx.root.remove(tok, id)
	}
}

// Insert indexes content under id and marks id as most recently used.
//
// Re-inserting an id replaces its token set: postings for tokens the new
// content no longer contains are dropped. When the registry is full the
// least recently used id is evicted along with all of its postings.
func (idx *Index) Insert(id int64, content string) {
	normalized := Normalize(content)
	tokens := Tokenize(normalized)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if len(tokens) == 0 {
		// Nothing to post; an id without postings must not stay registered.
		idx.registry.Remove(id)
		return
	}

	if prev, ok := idx.registry.Peek(id); ok && prev != normalized {
		keep := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			keep[tok] = struct{}{}
		}
		for _, tok := range Tokenize(prev) {
			if _, ok := keep[tok]; !ok {
				idx.root.remove(tok, id)
			}
		}
	}

	for _, tok := range tokens {
		idx.root.add(tok, id)
	}
	idx.registry.Add(id, normalized)
}

// SearchPrefix returns the ids posted under the longest stored token that is
// a prefix of the normalized query, plus every token extending it. Ids come
// back ascending and unique. An empty query matches nothing.
func (idx *Index) SearchPrefix(query string) []int64 {
	q := NormalizeQuery(query)
	if q == "" {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	match := idx.root.longestStored(q)
	if match == nil {
		return nil
	}
	set := make(map[int64]struct{})
	match.collect(set)

	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Contains reports whether id currently has live postings.
func (idx *Index) Contains(id int64) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.registry.Contains(id)
}

// Len returns the number of registered ids.
func (idx *Index) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.registry.Len()
}

// Capacity returns the configured maximum number of ids.
func (idx *Index) Capacity() int {
	return idx.capacity
}

// Tokens returns the number of distinct tokens currently stored.
func (idx *Index) Tokens() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.root.tokenCount()
}

// Clear drops every posting and registry entry.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.registry.Purge()
	idx.root = newNode()
}
