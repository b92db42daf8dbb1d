package pagination

import (
	"context"
	"errors"
)

// ErrCursorNotFound is returned by CursorStore.Get when no cursor is known
// for the requested page.
var ErrCursorNotFound = errors.New("cursor not found")

// CursorStore keeps, per listing, the cursor that leads from a page to the
// next one. The entry for page N holds the cursor returned while fetching
// page N, which is what a request for page N+1 must carry.
//
// Implementations must be safe for concurrent use. Persisted data that is
// missing or unreadable must be reported as ErrCursorNotFound, never as a
// failure.
type CursorStore interface {
	// Get returns the cursor recorded after page was fetched for key.
	Get(ctx context.Context, key EntityKey, page int) (Cursor, error)

	// Nearest returns the highest page not above atMost that has a readable
	// cursor for key, and that cursor, in a single lookup. It returns
	// ErrCursorNotFound when there is none.
	Nearest(ctx context.Context, key EntityKey, atMost int) (int, Cursor, error)

	// Put records the cursor returned while fetching page for key. Storing
	// an equal cursor again is a no-op; a different one overwrites it.
	Put(ctx context.Context, key EntityKey, page int, cursor Cursor) error

	// Clear drops every cursor recorded for key.
	Clear(ctx context.Context, key EntityKey) error
}

// nopStore remembers nothing, so every page beyond the first is walked to.
type nopStore struct{}

func (nopStore) Get(context.Context, EntityKey, int) (Cursor, error) {
	return nil, ErrCursorNotFound
}

func (nopStore) Nearest(context.Context, EntityKey, int) (int, Cursor, error) {
	return 0, nil, ErrCursorNotFound
}

func (nopStore) Put(context.Context, EntityKey, int, Cursor) error {
	return nil
}

func (nopStore) Clear(context.Context, EntityKey) error {
	return nil
}
