package pagination

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabapcia/txpager/internal/pkg/logger"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrInvalidPage is returned for page numbers below 1.
	ErrInvalidPage = errors.New("page must be 1 or greater")

	// ErrLoadFailed wraps every upstream failure surfaced by ResolvePage.
	// Callers treat it as a single retryable "failed to load" condition.
	ErrLoadFailed = errors.New("failed to load page")
)

// ResultPage is a fully resolved page of a listing.
type ResultPage struct {
	Key       EntityKey
	Page      int // the page actually served
	Requested int // the page asked for
	Items     []Transaction

	// Next is the cursor to the following page; zero on the last page.
	Next Cursor

	// TotalPages is the upstream item count turned into pages, corrected by
	// what the live stream showed: it equals Page when the stream ended
	// here and is at least Page+1 otherwise. Zero items still yield 1.
	TotalPages int
}

// Clamped reports whether the requested page lay beyond the end of the
// listing and the last reachable page was served instead.
func (r ResultPage) Clamped() bool {
	return r.Page != r.Requested
}

// HasNext reports whether a following page exists.
func (r ResultPage) HasNext() bool {
	return !r.Next.IsZero()
}

// Service resolves arbitrary page numbers against a forward-only upstream.
type Service interface {
	// ResolvePage returns page of the listing identified by key.
	//
	// Page 1 is fetched directly. Any other page uses the cached cursor of
	// its predecessor when present (one upstream call) and otherwise walks
	// forward from the nearest cached page first. Pages beyond the end of
	// the listing are clamped to the last page. Upstream failures wrap
	// ErrLoadFailed; no partial result is ever returned.
	ResolvePage(ctx context.Context, key EntityKey, page int) (ResultPage, error)

	// Forget drops every cursor and count hint cached for key.
	Forget(ctx context.Context, key EntityKey) error
}

// config holds the resolver settings.
type config struct {
	countCacheSize int
}

// Option configures the resolver.
type Option func(*config)

// WithCountCacheSize bounds how many listings keep a memoized item count.
// Default: 1024.
func WithCountCacheSize(n int) Option {
	return func(c *config) {
		c.countCacheSize = n
	}
}

// service is the default Service implementation.
type service struct {
	store  CursorStore
	lister Lister
	walker *walker
	tracer trace.Tracer
	counts *lru.Cache[string, int64]
}

// Compile-time assertion that service implements Service.
var _ Service = (*service)(nil)

// New builds a resolver over the given store and lister. A nil store
// disables cursor caching.
func New(store CursorStore, lister Lister, opts ...Option) (*service, error) {
	cfg := config{countCacheSize: 1024}
	for _, opt := range opts {
		opt(&cfg)
	}

	counts, err := lru.New[string, int64](cfg.countCacheSize)
	if err != nil {
		return nil, err
	}

	if store == nil {
		store = nopStore{}
	}

	tracer := defaultTracer()
	return &service{
		store:  store,
		lister: lister,
		tracer: tracer,
		counts: counts,
		walker: &walker{
			store:       store,
			lister:      lister,
			tracer:      tracer,
			instruments: defaultInstruments(),
		},
	}, nil
}

func (s *service) ResolvePage(ctx context.Context, key EntityKey, page int) (ResultPage, error) {
	if page < 1 {
		return ResultPage{}, fmt.Errorf("%w: got %d", ErrInvalidPage, page)
	}

	ctx, span := s.tracer.Start(ctx, "pagination.ResolvePage", trace.WithAttributes(
		attribute.String("entity", key.String()),
		attribute.Int("page", page),
	))
	defer span.End()

	result, err := s.resolve(ctx, key, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		// Cancellation means the caller moved on; it is not a load failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ResultPage{}, ctxErr
		}

		return ResultPage{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	span.SetAttributes(attribute.Int("served", result.Page), attribute.Bool("clamped", result.Clamped()))
	return result, nil
}

func (s *service) resolve(ctx context.Context, key EntityKey, page int) (ResultPage, error) {
	target := walkResult{Page: 1}
	if page > 1 {
		var err error
		if target, err = s.walker.walkTo(ctx, key, page); err != nil {
			return ResultPage{}, err
		}
	}

	fetched := target.Last
	if fetched == nil {
		result, err := s.walker.fetch(ctx, key, target.Page, target.Cursor)
		if err != nil {
			return ResultPage{}, err
		}

		fetched = &result
	}

	if !fetched.Next.IsZero() {
		s.walker.remember(ctx, key, target.Page, fetched.Next)
	}

	return ResultPage{
		Key:        key,
		Page:       target.Page,
		Requested:  page,
		Items:      fetched.Items,
		Next:       fetched.Next,
		TotalPages: s.totalPages(ctx, key, target.Page, fetched.Next),
	}, nil
}

// totalPages reconciles the upstream count hint with the live stream, which
// is authoritative for where the listing ends.
func (s *service) totalPages(ctx context.Context, key EntityKey, served int, next Cursor) int {
	if next.IsZero() {
		return served
	}

	hinted := int((s.itemCount(ctx, key) + PageSize - 1) / PageSize)
	return max(hinted, served+1)
}

// itemCount returns the memoized item count of key, fetching it on first use.
// Failures are logged and reported as 0 so they never fail a page.
func (s *service) itemCount(ctx context.Context, key EntityKey) int64 {
	if count, ok := s.counts.Get(key.String()); ok {
		return count
	}

	count, err := s.lister.CountItems(ctx, key)
	if err != nil {
		logger.Warn(ctx, "failed to fetch item count",
			"entity", key.String(),
			"error", err,
		)

		return 0
	}

	s.counts.Add(key.String(), count)
	return count
}

func (s *service) Forget(ctx context.Context, key EntityKey) error {
	s.counts.Remove(key.String())
	return s.store.Clear(ctx, key)
}
