//go:build !sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/clipman/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; full-text search uses LIKE over content and preview.
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// FullTextSearch performs a LIKE-based search (fallback when FTS5 is not
// compiled in). Every term must appear in content or preview; SQLite LIKE
// folds ASCII case only.
func (s *Store) FullTextSearch(ctx context.Context, query string) ([]models.Entry, error) {
	terms := searchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	clauses := make([]string, len(terms))
	args := make([]any, 0, 2*len(terms))
	for i, t := range terms {
		clauses[i] = `(content LIKE ? ESCAPE '\' OR preview LIKE ? ESCAPE '\')`
		like := "%" + likeEscaper.Replace(t) + "%"
		args = append(args, like, like)
	}
	out, err := s.queryEntries(ctx, `
		SELECT `+entryColumns+`
		FROM clipboard_history
		WHERE `+strings.Join(clauses, " AND ")+`
		`+listingOrder, args...)
	if err != nil {
		return nil, fmt.Errorf("store: full text search: %w", err)
	}
	return out, nil
}
