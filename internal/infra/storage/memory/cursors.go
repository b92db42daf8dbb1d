// Package memory keeps pagination cursors in process memory. The number of
// listings is bounded: the least recently used listing loses all its
// cursors when a new one needs room.
package memory

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gabapcia/txpager/internal/pagination"
)

type store struct {
	mu       sync.Mutex
	listings *lru.Cache[pagination.EntityKey, map[int]pagination.Cursor]
}

var _ pagination.CursorStore = (*store)(nil)

// NewStore keeps the cursors of at most size listings.
func NewStore(size int) (*store, error) {
	listings, err := lru.New[pagination.EntityKey, map[int]pagination.Cursor](size)
	if err != nil {
		return nil, err
	}

	return &store{listings: listings}, nil
}

func (s *store) Get(_ context.Context, key pagination.EntityKey, page int) (pagination.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pages, ok := s.listings.Get(key)
	if !ok {
		return nil, pagination.ErrCursorNotFound
	}

	cursor, ok := pages[page]
	if !ok {
		return nil, pagination.ErrCursorNotFound
	}

	return cursor.Clone(), nil
}

func (s *store) Nearest(_ context.Context, key pagination.EntityKey, atMost int) (int, pagination.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pages, ok := s.listings.Get(key)
	if !ok {
		return 0, nil, pagination.ErrCursorNotFound
	}

	best := 0
	for page := range pages {
		if page <= atMost && page > best {
			best = page
		}
	}
	if best == 0 {
		return 0, nil, pagination.ErrCursorNotFound
	}

	return best, pages[best].Clone(), nil
}

func (s *store) Put(_ context.Context, key pagination.EntityKey, page int, cursor pagination.Cursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pages, ok := s.listings.Get(key)
	if !ok {
		pages = make(map[int]pagination.Cursor)
		s.listings.Add(key, pages)
	}

	if current, ok := pages[page]; ok && current.Equal(cursor) {
		return nil
	}
	pages[page] = cursor.Clone()

	return nil
}

func (s *store) Clear(_ context.Context, key pagination.EntityKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listings.Remove(key)
	return nil
}

// Len returns how many listings currently hold cursors.
func (s *store) Len() int {
	return s.listings.Len()
}
