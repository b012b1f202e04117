package store

import (
	"context"

	"github.com/starford/clipman/internal/models"
)

// History defines the persistent clipboard history operations.
// Consumers should depend on this interface rather than the concrete *Store
// type to facilitate testing with fakes.
type History interface {
	Insert(ctx context.Context, e models.Entry) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Entry, error)
	FullTextSearch(ctx context.Context, query string) ([]models.Entry, error)
	DeleteAll(ctx context.Context) error
	Delete(ctx context.Context, id int64) error
	Pin(ctx context.Context, id int64) error
	Unpin(ctx context.Context, id int64) error
	Pinned(ctx context.Context) ([]models.Entry, error)
	Recent(ctx context.Context, limit int) ([]models.Entry, error)
	Latest(ctx context.Context, limit int) ([]models.Entry, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Verify *Store satisfies History at compile time.
var _ History = (*Store)(nil)
