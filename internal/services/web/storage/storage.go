package storage

import (
	"context"
	"time"
)

// Bookmark is a saved set of input values keyed by qualified input id.
type Bookmark struct {
	ID        string
	Values    map[string]any
	CreatedAt time.Time
}

// BookmarkStore persists bookmarks.
type BookmarkStore interface {
	// SaveBookmark stores values under a new id and returns the stored bookmark.
	SaveBookmark(ctx context.Context, values map[string]any) (Bookmark, error)
	// GetBookmark loads a bookmark. Missing ids fail with a not-found error.
	GetBookmark(ctx context.Context, id string) (Bookmark, error)
	Close() error
}
