package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/gabapcia/txpager/internal/pagination"
	"github.com/gabapcia/txpager/internal/pkg/logger"
)

const cursorsKeyPrefix = "pagination"

// cursorsKey is the hash holding every cursor of one listing, one field per
// page: "pagination:cursors:<entity key>".
func cursorsKey(key pagination.EntityKey) string {
	return fmt.Sprintf("%s:cursors:%s", cursorsKeyPrefix, key)
}

var _ pagination.CursorStore = (*client)(nil)

// Get reports unreadable entries as pagination.ErrCursorNotFound so the
// walker refetches them.
func (c *client) Get(ctx context.Context, key pagination.EntityKey, page int) (pagination.Cursor, error) {
	raw, err := c.conn.HGet(ctx, cursorsKey(key), strconv.Itoa(page)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			err = pagination.ErrCursorNotFound
		}
		return nil, err
	}

	var cursor pagination.Cursor
	if err := json.Unmarshal(raw, &cursor); err != nil || cursor.IsZero() {
		logger.Warn(ctx, "discarding unreadable cursor", "entity", key.String(), "page", page, "error", err)
		return nil, pagination.ErrCursorNotFound
	}

	return cursor, nil
}

// Nearest lists the listing's pages with one HKEYS and reads the highest
// usable one, skipping unreadable entries.
func (c *client) Nearest(ctx context.Context, key pagination.EntityKey, atMost int) (int, pagination.Cursor, error) {
	fields, err := c.conn.HKeys(ctx, cursorsKey(key)).Result()
	if err != nil {
		return 0, nil, err
	}

	pages := make([]int, 0, len(fields))
	for _, field := range fields {
		page, err := strconv.Atoi(field)
		if err != nil || page < 1 || page > atMost {
			continue
		}
		pages = append(pages, page)
	}
	slices.Sort(pages)

	for _, page := range slices.Backward(pages) {
		cursor, err := c.Get(ctx, key, page)
		if errors.Is(err, pagination.ErrCursorNotFound) {
			continue
		}
		if err != nil {
			return 0, nil, err
		}

		return page, cursor, nil
	}

	return 0, nil, pagination.ErrCursorNotFound
}

func (c *client) Put(ctx context.Context, key pagination.EntityKey, page int, cursor pagination.Cursor) error {
	raw, err := json.Marshal(cursor)
	if err != nil {
		return err
	}

	hash := cursorsKey(key)
	_, err = c.conn.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hash, strconv.Itoa(page), raw)
		if c.ttl > 0 {
			pipe.Expire(ctx, hash, c.ttl)
		}
		return nil
	})

	return err
}

func (c *client) Clear(ctx context.Context, key pagination.EntityKey) error {
	return c.conn.Del(ctx, cursorsKey(key)).Err()
}
