// Package pebble persists pagination cursors in a local Pebble database so
// that separate txpager invocations share them without a server.
package pebble

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/vmihailenco/msgpack/v4"

	"github.com/gabapcia/txpager/internal/pagination"
	"github.com/gabapcia/txpager/internal/pkg/logger"
)

// entry is the stored value. ExpiresAt is a unix timestamp, zero for
// entries that never expire.
type entry struct {
	Cursor    map[string]string `msgpack:"c"`
	ExpiresAt int64             `msgpack:"e"`
}

type store struct {
	db  *pebble.DB
	ttl time.Duration
	now func() time.Time
}

var _ pagination.CursorStore = (*store)(nil)

// Open opens or creates the database in dir. Entries older than ttl read as
// misses; zero keeps them forever.
func Open(dir string, ttl time.Duration) (*store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open cursor db: %w", err)
	}

	return &store{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

// listingPrefix is "<entity key>\x00"; entity keys never contain NUL.
func listingPrefix(key pagination.EntityKey) []byte {
	return append([]byte(key.String()), 0)
}

// cursorKey appends the page as a big endian uint64 so a listing's pages
// sort in order.
func cursorKey(key pagination.EntityKey, page uint64) []byte {
	return binary.BigEndian.AppendUint64(listingPrefix(key), page)
}

// decode returns the cursor held by raw, or false when it is unreadable or
// expired.
func (s *store) decode(ctx context.Context, key pagination.EntityKey, page uint64, raw []byte) (pagination.Cursor, bool) {
	var e entry
	if err := msgpack.Unmarshal(raw, &e); err != nil || len(e.Cursor) == 0 {
		logger.Warn(ctx, "discarding unreadable cursor", "entity", key.String(), "page", page, "error", err)
		return nil, false
	}

	if e.ExpiresAt != 0 && s.now().Unix() >= e.ExpiresAt {
		return nil, false
	}

	return pagination.Cursor(e.Cursor), true
}

func (s *store) Get(ctx context.Context, key pagination.EntityKey, page int) (pagination.Cursor, error) {
	if page < 1 {
		return nil, pagination.ErrCursorNotFound
	}

	raw, closer, err := s.db.Get(cursorKey(key, uint64(page)))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, pagination.ErrCursorNotFound
		}
		return nil, err
	}
	defer closer.Close()

	cursor, ok := s.decode(ctx, key, uint64(page), raw)
	if !ok {
		return nil, pagination.ErrCursorNotFound
	}

	return cursor, nil
}

// Nearest scans the listing backwards from atMost, skipping unreadable and
// expired entries.
func (s *store) Nearest(ctx context.Context, key pagination.EntityKey, atMost int) (int, pagination.Cursor, error) {
	if atMost < 1 {
		return 0, nil, pagination.ErrCursorNotFound
	}

	prefix := listingPrefix(key)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: cursorKey(key, uint64(atMost)+1),
	})
	if err != nil {
		return 0, nil, err
	}
	defer iter.Close()

	for valid := iter.Last(); valid; valid = iter.Prev() {
		suffix := iter.Key()[len(prefix):]
		if len(suffix) != 8 {
			continue
		}

		page := binary.BigEndian.Uint64(suffix)
		if cursor, ok := s.decode(ctx, key, page, iter.Value()); ok {
			return int(page), cursor, nil
		}
	}

	return 0, nil, pagination.ErrCursorNotFound
}

func (s *store) Put(_ context.Context, key pagination.EntityKey, page int, cursor pagination.Cursor) error {
	if page < 1 {
		return fmt.Errorf("%w: got %d", pagination.ErrInvalidPage, page)
	}

	e := entry{Cursor: cursor}
	if s.ttl > 0 {
		e.ExpiresAt = s.now().Add(s.ttl).Unix()
	}

	raw, err := msgpack.Marshal(e)
	if err != nil {
		return err
	}

	return s.db.Set(cursorKey(key, uint64(page)), raw, pebble.Sync)
}

// Clear deletes every page of key with a single range tombstone.
func (s *store) Clear(_ context.Context, key pagination.EntityKey) error {
	start := listingPrefix(key)
	end := append([]byte(key.String()), 1)

	return s.db.DeleteRange(start, end, pebble.Sync)
}
