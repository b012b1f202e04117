package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/clipman/internal/apperr"
	"github.com/starford/clipman/internal/history"
	"github.com/starford/clipman/internal/models"
)

const entryColumns = `id, content, content_type, timestamp, preview, is_pinned, pin_order`

// listingOrder puts pinned entries first by pin order, then the rest newest first.
const listingOrder = `ORDER BY is_pinned DESC, pin_order ASC, timestamp DESC, id DESC`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (models.Entry, error) {
	var (
		e        models.Entry
		ts       int64
		pinned   int
		pinOrder sql.NullInt64
	)
	if err := row.Scan(&e.ID, &e.Content, &e.ContentType, &ts, &e.Preview, &pinned, &pinOrder); err != nil {
		return models.Entry{}, err
	}
	e.Timestamp = time.UnixMilli(ts)
	e.IsPinned = pinned == 1
	if pinOrder.Valid {
		v := int(pinOrder.Int64)
		e.PinOrder = &v
	}
	return e, nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]models.Entry, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Insert persists a new entry and returns its assigned id. A zero timestamp
// is replaced with the current time and a missing content type with text.
func (s *Store) Insert(ctx context.Context, e models.Entry) (int64, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.ContentType == "" {
		e.ContentType = models.ContentTypeText
	}
	var pinOrder any
	if e.IsPinned && e.PinOrder != nil {
		pinOrder = *e.PinOrder
	}
	pinned := 0
	if e.IsPinned {
		pinned = 1
	}
	res, err := s.conn.ExecContext(ctx, `
		INSERT INTO clipboard_history (content, content_type, timestamp, preview, is_pinned, pin_order)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.Content, e.ContentType, e.Timestamp.UnixMilli(), e.Preview, pinned, pinOrder)
	if err != nil {
		return 0, fmt.Errorf("store: insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: last insert id: %w", err)
	}
	return id, nil
}

// GetByID returns the entry with the given id, or nil when none exists.
func (s *Store) GetByID(ctx context.Context, id int64) (*models.Entry, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM clipboard_history WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // absent is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("store: get entry %d: %w", id, err)
	}
	return &e, nil
}

// DeleteAll removes every entry. FTS rows follow via triggers.
func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM clipboard_history`); err != nil {
		return fmt.Errorf("store: delete all: %w", err)
	}
	return nil
}

// Delete removes a single entry.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM clipboard_history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete entry %d: %w", id, err)
	}
	return requireAffected(res, id)
}

// Pin marks an entry pinned with the next pin order. Pinning an entry that
// is already pinned keeps its current order.
func (s *Store) Pin(ctx context.Context, id int64) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	var pinned int
	err = tx.QueryRowContext(ctx, `SELECT is_pinned FROM clipboard_history WHERE id = ?`, id).Scan(&pinned)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("store: pin entry %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("store: pin entry %d: %w", id, err)
	}
	if pinned == 1 {
		return nil
	}

	var maxOrder sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(pin_order) FROM clipboard_history WHERE is_pinned = 1`).Scan(&maxOrder); err != nil {
		return fmt.Errorf("store: max pin order: %w", err)
	}
	var current *int
	if maxOrder.Valid {
		v := int(maxOrder.Int64)
		current = &v
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE clipboard_history SET is_pinned = 1, pin_order = ? WHERE id = ?`,
		history.NextPinOrder(current), id); err != nil {
		return fmt.Errorf("store: pin entry %d: %w", id, err)
	}
	return tx.Commit()
}

// Unpin clears the pinned flag and pin order of an entry.
func (s *Store) Unpin(ctx context.Context, id int64) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE clipboard_history SET is_pinned = 0, pin_order = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: unpin entry %d: %w", id, err)
	}
	return requireAffected(res, id)
}

// Pinned returns pinned entries by pin order.
func (s *Store) Pinned(ctx context.Context) ([]models.Entry, error) {
	out, err := s.queryEntries(ctx, `
		SELECT `+entryColumns+`
		FROM clipboard_history
		WHERE is_pinned = 1
		ORDER BY pin_order ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: pinned: %w", err)
	}
	return out, nil
}

// Recent returns up to limit entries in listing order.
func (s *Store) Recent(ctx context.Context, limit int) ([]models.Entry, error) {
	out, err := s.queryEntries(ctx, `
		SELECT `+entryColumns+`
		FROM clipboard_history
		`+listingOrder+`
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	return out, nil
}

// Latest returns up to limit entries newest first, ignoring pin state.
func (s *Store) Latest(ctx context.Context, limit int) ([]models.Entry, error) {
	out, err := s.queryEntries(ctx, `
		SELECT `+entryColumns+`
		FROM clipboard_history
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: latest: %w", err)
	}
	return out, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT count(*) FROM clipboard_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("store: entry %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// searchTerms splits a raw query into the whitespace-delimited terms every
// match must contain.
func searchTerms(query string) []string {
	return strings.Fields(query)
}
