package pagination

import (
	"context"
	"errors"

	"github.com/gabapcia/txpager/internal/pkg/logger"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// walkResult tells the resolver how to serve the requested page.
type walkResult struct {
	// Page is the page that will be served: the target, or the last
	// reachable page when the listing ended before the target.
	Page int

	// Cursor fetches Page. It is zero when Page is 1.
	Cursor Cursor

	// Last holds Page's content when the walk already fetched it because
	// the listing ended early. It is nil otherwise.
	Last *Page

	// Hit reports whether the cursor for the target's predecessor was
	// already cached, in which case no page was walked.
	Hit bool
}

// walker resolves cursors that are not yet cached by fetching pages
// one after the other from the nearest cached predecessor. Every fetched
// page's next cursor is written to the store before moving on, so an
// interrupted walk can resume from where it stopped.
type walker struct {
	store       CursorStore
	lister      Lister
	tracer      trace.Tracer
	instruments instruments
}

// nearestCursor returns the highest page at or below `from` with a cached
// cursor, and that cursor. It returns 0 and a zero cursor when none is cached.
func (w *walker) nearestCursor(ctx context.Context, key EntityKey, from int) (int, Cursor) {
	page, cursor, err := w.store.Nearest(ctx, key, from)
	if err == nil && page > 0 && page <= from && !cursor.IsZero() {
		return page, cursor
	}

	if err != nil && !errors.Is(err, ErrCursorNotFound) {
		logger.Warn(ctx, "cursor lookup failed, treating as miss",
			"entity", key.String(),
			"page", from,
			"error", err,
		)
	}

	return 0, nil
}

// remember stores the cursor returned with page. Failed writes are logged
// and otherwise ignored.
func (w *walker) remember(ctx context.Context, key EntityKey, page int, cursor Cursor) {
	if err := w.store.Put(ctx, key, page, cursor); err != nil {
		logger.Warn(ctx, "failed to store cursor",
			"entity", key.String(),
			"page", page,
			"error", err,
		)
	}
}

// fetch performs exactly one upstream call for page of key.
func (w *walker) fetch(ctx context.Context, key EntityKey, page int, cursor Cursor) (Page, error) {
	ctx, span := w.tracer.Start(ctx, "pagination.fetch", trace.WithAttributes(
		attribute.String("entity", key.String()),
		attribute.Int("page", page),
	))
	defer span.End()

	w.instruments.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(key.Kind))))
	logger.Debug(ctx, "fetching page", "entity", key.String(), "page", page)

	result, err := w.lister.FetchPage(ctx, key, cursor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Page{}, err
	}

	span.SetAttributes(attribute.Int("items", len(result.Items)), attribute.Bool("last", result.Next.IsZero()))
	return result, nil
}

// walkTo finds the cursor that fetches target (target > 1).
//
// Starting from the nearest cached predecessor P, it fetches pages P+1 ..
// target-1, storing each page's next cursor. A walk costs exactly
// target-1-P upstream calls. If a page comes back without a next cursor the
// listing is exhausted: the walk stops and reports that page, already
// fetched, as the one to serve.
//
// A failed fetch aborts the walk; cursors stored before the failure are kept.
func (w *walker) walkTo(ctx context.Context, key EntityKey, target int) (walkResult, error) {
	page, cursor := w.nearestCursor(ctx, key, target-1)

	attrs := metric.WithAttributes(attribute.String("kind", string(key.Kind)))
	if page == target-1 {
		w.instruments.hits.Add(ctx, 1, attrs)
		return walkResult{Page: target, Cursor: cursor, Hit: true}, nil
	}
	w.instruments.misses.Add(ctx, 1, attrs)

	ctx, span := w.tracer.Start(ctx, "pagination.walk", trace.WithAttributes(
		attribute.String("entity", key.String()),
		attribute.Int("from", page),
		attribute.Int("target", target),
	))
	defer span.End()

	for page < target-1 {
		if err := ctx.Err(); err != nil {
			return walkResult{}, err
		}

		result, err := w.fetch(ctx, key, page+1, cursor)
		if err != nil {
			return walkResult{}, err
		}
		page++

		if result.Next.IsZero() {
			logger.Debug(ctx, "listing ended before target page",
				"entity", key.String(),
				"target", target,
				"last", page,
			)

			return walkResult{Page: page, Cursor: cursor, Last: &result}, nil
		}

		w.remember(ctx, key, page, result.Next)
		cursor = result.Next
	}

	return walkResult{Page: target, Cursor: cursor}, nil
}
