package search

import (
	"context"
	"fmt"
	"log/slog"
)

// Warm rebuilds the prefix index from the newest persisted entries, up to
// the index capacity. Entries are inserted oldest first so the newest end
// up most recently used. Existing index contents are kept.
func (h *Hybrid) Warm(ctx context.Context) (int, error) {
	entries, err := h.store.Latest(ctx, h.index.Capacity())
	if err != nil {
		return 0, fmt.Errorf("search: warm: %w", err)
	}
	for i := len(entries) - 1; i >= 0; i-- {
		h.index.Insert(entries[i].ID, entries[i].Content)
	}
	h.logger.Info("search: prefix index warmed",
		slog.Int("entries", len(entries)),
		slog.Int("capacity", h.index.Capacity()))
	return len(entries), nil
}
