//go:build sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/clipman/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS clipboard_history_fts USING fts5(
			content,
			preview,
			content = 'clipboard_history',
			content_rowid = 'id',
			tokenize = 'unicode61 remove_diacritics 2'
		);

		CREATE TRIGGER IF NOT EXISTS clipboard_history_ai AFTER INSERT ON clipboard_history BEGIN
			INSERT INTO clipboard_history_fts (rowid, content, preview)
			VALUES (new.id, new.content, new.preview);
		END;

		CREATE TRIGGER IF NOT EXISTS clipboard_history_ad AFTER DELETE ON clipboard_history BEGIN
			INSERT INTO clipboard_history_fts (clipboard_history_fts, rowid, content, preview)
			VALUES ('delete', old.id, old.content, old.preview);
		END;

		CREATE TRIGGER IF NOT EXISTS clipboard_history_au AFTER UPDATE OF content, preview ON clipboard_history BEGIN
			INSERT INTO clipboard_history_fts (clipboard_history_fts, rowid, content, preview)
			VALUES ('delete', old.id, old.content, old.preview);
			INSERT INTO clipboard_history_fts (rowid, content, preview)
			VALUES (new.id, new.content, new.preview);
		END;
	`)
	return err
}

// matchExpr quotes each term so user punctuation is never parsed as FTS5
// syntax. Terms are implicitly ANDed.
func matchExpr(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

// FullTextSearch returns entries whose content or preview contains every
// term of query, case-insensitively.
func (s *Store) FullTextSearch(ctx context.Context, query string) ([]models.Entry, error) {
	terms := searchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	out, err := s.queryEntries(ctx, `
		SELECT `+entryColumns+`
		FROM clipboard_history
		WHERE id IN (
			SELECT rowid FROM clipboard_history_fts WHERE clipboard_history_fts MATCH ?
		)
		`+listingOrder, matchExpr(terms))
	if err != nil {
		return nil, fmt.Errorf("store: full text search: %w", err)
	}
	return out, nil
}
