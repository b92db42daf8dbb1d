package pagination

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/gabapcia/txpager/internal/pkg/logger"

	"github.com/stretchr/testify/mock"
)

func init() {
	_ = logger.Init("error")
}

var errForeignCursor = errors.New("cursor belongs to another listing")

// fakeListing serves synthetic listings of a fixed number of items per
// entity. Cursors carry the entity id, so replaying one against another
// listing fails loudly.
type fakeListing struct {
	mu       sync.Mutex
	items    map[string]int   // entity key -> total items
	failAt   map[int]error    // page -> error returned when fetching it
	gate     func(page int)   // called before serving a page, may block
	count    int64            // value returned by CountItems, -1 counts items
	countErr error            // error returned by CountItems
	fetched  []int            // pages served, in order
	counted  int              // CountItems calls
	cursors  map[string][]int // entity key -> pages fetched
}

func newFakeListing() *fakeListing {
	return &fakeListing{
		items:   make(map[string]int),
		failAt:  make(map[int]error),
		cursors: make(map[string][]int),
		count:   -1,
	}
}

func (f *fakeListing) with(key EntityKey, items int) *fakeListing {
	f.items[key.String()] = items
	return f
}

func (f *fakeListing) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.fetched)
}

func (f *fakeListing) pageFromCursor(key EntityKey, cursor Cursor) (int, error) {
	if cursor.IsZero() {
		return 1, nil
	}

	if cursor["entity"] != key.String() {
		return 0, fmt.Errorf("%w: %v", errForeignCursor, cursor)
	}

	seen, err := strconv.Atoi(cursor["items_count"])
	if err != nil {
		return 0, err
	}

	return seen/PageSize + 1, nil
}

func (f *fakeListing) FetchPage(_ context.Context, key EntityKey, cursor Cursor) (Page, error) {
	page, err := f.pageFromCursor(key, cursor)
	if err != nil {
		return Page{}, err
	}

	if f.gate != nil {
		f.gate(page)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetched = append(f.fetched, page)
	f.cursors[key.String()] = append(f.cursors[key.String()], page)
	if err := f.failAt[page]; err != nil {
		return Page{}, err
	}

	total := f.items[key.String()]
	first := (page - 1) * PageSize
	last := min(first+PageSize, total)

	result := Page{}
	for i := first; i < last; i++ {
		result.Items = append(result.Items, Transaction{
			Hash:        fmt.Sprintf("%s-tx-%d", key.ID, i+1),
			BlockNumber: uint64(1000 - i),
		})
	}

	if last < total {
		result.Next = Cursor{
			"entity":      key.String(),
			"items_count": strconv.Itoa(last),
		}
	}

	return result, nil
}

func (f *fakeListing) CountItems(_ context.Context, key EntityKey) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.counted++
	if f.countErr != nil {
		return 0, f.countErr
	}

	if f.count >= 0 {
		return f.count, nil
	}

	return int64(f.items[key.String()]), nil
}

// mapStore is an in-memory CursorStore that counts lookups.
type mapStore struct {
	mu      sync.Mutex
	cursors map[string]map[int]Cursor
	gets    int
	nearest int
	puts    int
}

func newMapStore() *mapStore {
	return &mapStore{cursors: make(map[string]map[int]Cursor)}
}

func (s *mapStore) Get(_ context.Context, key EntityKey, page int) (Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gets++
	cursor, ok := s.cursors[key.String()][page]
	if !ok {
		return nil, ErrCursorNotFound
	}

	return cursor.Clone(), nil
}

func (s *mapStore) Nearest(_ context.Context, key EntityKey, atMost int) (int, Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nearest++
	best := 0
	for page := range s.cursors[key.String()] {
		if page <= atMost && page > best {
			best = page
		}
	}
	if best == 0 {
		return 0, nil, ErrCursorNotFound
	}

	return best, s.cursors[key.String()][best].Clone(), nil
}

// lookups counts every store read.
func (s *mapStore) lookups() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.gets + s.nearest
}

func (s *mapStore) Put(_ context.Context, key EntityKey, page int, cursor Cursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.puts++
	if s.cursors[key.String()] == nil {
		s.cursors[key.String()] = make(map[int]Cursor)
	}

	s.cursors[key.String()][page] = cursor.Clone()
	return nil
}

func (s *mapStore) Clear(_ context.Context, key EntityKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cursors, key.String())
	return nil
}

func (s *mapStore) pages(key EntityKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.cursors[key.String()])
}

// cursorStoreMock is a testify mock of CursorStore.
type cursorStoreMock struct {
	mock.Mock
}

func (m *cursorStoreMock) Get(ctx context.Context, key EntityKey, page int) (Cursor, error) {
	args := m.Called(ctx, key, page)
	cursor, _ := args.Get(0).(Cursor)
	return cursor, args.Error(1)
}

func (m *cursorStoreMock) Nearest(ctx context.Context, key EntityKey, atMost int) (int, Cursor, error) {
	args := m.Called(ctx, key, atMost)
	cursor, _ := args.Get(1).(Cursor)
	return args.Int(0), cursor, args.Error(2)
}

func (m *cursorStoreMock) Put(ctx context.Context, key EntityKey, page int, cursor Cursor) error {
	return m.Called(ctx, key, page, cursor).Error(0)
}

func (m *cursorStoreMock) Clear(ctx context.Context, key EntityKey) error {
	return m.Called(ctx, key).Error(0)
}
