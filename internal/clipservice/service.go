// Package clipservice coordinates the clipboard history store, the hybrid
// search index and the clipboard itself for the API, MCP and monitor layers.
package clipservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/clipman/internal/apperr"
	"github.com/starford/clipman/internal/checksum"
	"github.com/starford/clipman/internal/history"
	"github.com/starford/clipman/internal/models"
	"github.com/starford/clipman/internal/monitor"
	"github.com/starford/clipman/internal/search"
	"github.com/starford/clipman/internal/store"
)

// Listing limits for Recent.
const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 1000
)

// Event kinds passed to the EventCallback.
const (
	EventCreated  = "created"
	EventDeleted  = "deleted"
	EventPinned   = "pinned"
	EventUnpinned = "unpinned"
	EventCleared  = "cleared"
)

// EventCallback is called after a successful history mutation. id is zero
// for EventCleared.
type EventCallback func(kind string, id int64)

// Service coordinates store and search operations.
type Service struct {
	store  store.History
	search *search.Hybrid
	logger *slog.Logger
	now    func() time.Time

	clip   monitor.Writer
	state  *monitor.State
	notify EventCallback
}

// Option configures a Service.
type Option func(*Service)

// WithClipboard sets the clipboard used by Copy.
func WithClipboard(w monitor.Writer) Option {
	return func(s *Service) { s.clip = w }
}

// WithMonitorState shares the monitor state so copied content is not
// captured again by the poller.
func WithMonitorState(st *monitor.State) Option {
	return func(s *Service) { s.state = st }
}

// WithEventCallback registers a change notification callback.
func WithEventCallback(cb EventCallback) Option {
	return func(s *Service) { s.notify = cb }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the capture timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new clipboard history service.
func NewService(st store.History, hs *search.Hybrid, opts ...Option) *Service {
	s := &Service{
		store:  st,
		search: hs,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capture persists content as a new entry and feeds it to the prefix index.
func (s *Service) Capture(ctx context.Context, content string) (*models.Entry, error) {
	if content == "" {
		return nil, apperr.ErrEmptyContent
	}
	e := models.Entry{
		Content:     content,
		ContentType: models.ContentTypeText,
		Timestamp:   s.now(),
		Preview:     history.Preview(content),
	}
	id, err := s.store.Insert(ctx, e)
	if err != nil {
		return nil, storageErr(err)
	}
	e.ID = id
	s.search.AddToTrie(id, content)

	s.logger.Debug("clip: captured",
		slog.Int64("id", id),
		slog.Int("bytes", len(content)),
		slog.String("digest", checksum.Short(content)))
	s.emit(EventCreated, id)
	return &e, nil
}

// Get returns a single entry.
func (s *Service) Get(ctx context.Context, id int64) (*models.Entry, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr(err)
	}
	if e == nil {
		return nil, apperr.ErrNotFound
	}
	return e, nil
}

// Recent returns history in listing order: pinned entries first.
func (s *Service) Recent(ctx context.Context, limit int) ([]models.Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	out, err := s.store.Recent(ctx, limit)
	if err != nil {
		return nil, storageErr(err)
	}
	return nonNilSlice(out), nil
}

// Pinned returns pinned entries by pin order.
func (s *Service) Pinned(ctx context.Context) ([]models.Entry, error) {
	out, err := s.store.Pinned(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	return nonNilSlice(out), nil
}

// Pin pins an entry. The prefix index is not touched.
func (s *Service) Pin(ctx context.Context, id int64) (*models.Entry, error) {
	if err := s.store.Pin(ctx, id); err != nil {
		return nil, storageErr(err)
	}
	s.emit(EventPinned, id)
	return s.Get(ctx, id)
}

// Unpin unpins an entry.
func (s *Service) Unpin(ctx context.Context, id int64) (*models.Entry, error) {
	if err := s.store.Unpin(ctx, id); err != nil {
		return nil, storageErr(err)
	}
	s.emit(EventUnpinned, id)
	return s.Get(ctx, id)
}

// Delete removes an entry from the store. Its prefix index postings stay
// until evicted; search skips ids the store no longer has.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return storageErr(err)
	}
	s.emit(EventDeleted, id)
	return nil
}

// Search runs a hybrid search.
func (s *Service) Search(ctx context.Context, query string) ([]models.Entry, error) {
	out, err := s.search.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(out), nil
}

// Clear empties the prefix index and the store.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.search.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("clip: history cleared")
	s.emit(EventCleared, 0)
	return nil
}

// Copy writes an entry's content to the clipboard and records it as already
// observed so the monitor does not capture it again.
func (s *Service) Copy(ctx context.Context, id int64) (*models.Entry, error) {
	if s.clip == nil {
		return nil, apperr.ErrUnavailable
	}
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// Remember before writing so a poll racing the write sees no change.
	undo := func() {}
	if s.state != nil {
		undo = s.state.Remember(e.Content)
	}
	if err := s.clip.WriteText(e.Content); err != nil {
		undo()
		return nil, fmt.Errorf("%w: %w", apperr.ErrUnavailable, err)
	}
	return e, nil
}

// IndexSize returns the number of entries live in the prefix index.
func (s *Service) IndexSize() int {
	return s.search.Len()
}

func (s *Service) emit(kind string, id int64) {
	if s.notify != nil {
		s.notify(kind, id)
	}
}

// storageErr marks store failures as ErrStorage, leaving not-found as is.
func storageErr(err error) error {
	if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %w", apperr.ErrStorage, err)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
