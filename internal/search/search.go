// Package search merges results from the in-memory prefix index with the
// persistent full-text search so recent entries are found instantly while
// older history is still reachable.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/clipman/internal/apperr"
	"github.com/starford/clipman/internal/history"
	"github.com/starford/clipman/internal/models"
	"github.com/starford/clipman/internal/trie"
)

// Store is the subset of the persistent history the coordinator needs.
type Store interface {
	GetByID(ctx context.Context, id int64) (*models.Entry, error)
	FullTextSearch(ctx context.Context, query string) ([]models.Entry, error)
	DeleteAll(ctx context.Context) error
	Latest(ctx context.Context, limit int) ([]models.Entry, error)
}

// Hybrid coordinates the prefix index and the persistent store. The index
// lock and store access are taken one after the other, never nested.
type Hybrid struct {
	index  *trie.Index
	store  Store
	logger *slog.Logger
}

// NewHybrid creates a coordinator whose prefix index holds capacity entries.
func NewHybrid(store Store, capacity int, logger *slog.Logger) *Hybrid {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hybrid{
		index:  trie.New(capacity),
		store:  store,
		logger: logger,
	}
}

// AddToTrie indexes a newly persisted entry. Call it once per insert; pin
// state changes never touch the index.
func (h *Hybrid) AddToTrie(id int64, content string) {
	h.index.Insert(id, content)
}

// Search returns entries matching query from both sources, each id once,
// newest first. Prefix index hits precede full-text-only hits among equal
// timestamps. A failed full-text query fails the whole search.
func (h *Hybrid) Search(ctx context.Context, query string) ([]models.Entry, error) {
	candidates := h.index.SearchPrefix(query)

	seen := make(map[int64]struct{}, len(candidates))
	results := make([]models.Entry, 0, len(candidates))
	for _, id := range candidates {
		e, err := h.store.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%w: search: resolve %d: %w", apperr.ErrStorage, id, err)
		}
		if e == nil {
			// Deleted upstream; the index is only a recency cache.
			continue
		}
		seen[id] = struct{}{}
		results = append(results, *e)
	}
	fromIndex := len(results)

	fts, err := h.store.FullTextSearch(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: search: full text: %w", apperr.ErrStorage, err)
	}
	for _, e := range fts {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		results = append(results, e)
	}

	history.SortByRecency(results)

	h.logger.Debug("search: merged",
		slog.Int("prefix_hits", fromIndex),
		slog.Int("fulltext_hits", len(fts)),
		slog.Int("results", len(results)))
	return results, nil
}

// Clear empties the prefix index and deletes every persisted entry. A store
// failure is returned as is; the index is not restored.
func (h *Hybrid) Clear(ctx context.Context) error {
	h.index.Clear()
	if err := h.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("%w: clear: %w", apperr.ErrStorage, err)
	}
	return nil
}

// Len returns the number of entries live in the prefix index.
func (h *Hybrid) Len() int {
	return h.index.Len()
}

// Capacity returns the prefix index capacity.
func (h *Hybrid) Capacity() int {
	return h.index.Capacity()
}
