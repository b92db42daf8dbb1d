package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnsupportedEntity is returned when a Lister receives a key of a kind
// it does not serve.
var ErrUnsupportedEntity = errors.New("unsupported entity kind")

// Transaction is the summary of a transaction shown in a listing row.
type Transaction struct {
	Hash        string
	BlockNumber uint64
	From        string
	To          string // empty for contract creations
	Value       string // wei, base 10
	Fee         string // wei, base 10
	Method      string
	Status      string
	Timestamp   time.Time
}

// Page is one upstream response: up to PageSize items and the cursor for the
// following page. A zero Next means this is the last page.
type Page struct {
	Items []Transaction
	Next  Cursor
}

// Lister fetches pages of one entity listing. It is the only component that
// knows how an entity kind maps to an upstream call, so the walker and the
// resolver never branch on the kind.
type Lister interface {
	// FetchPage returns the page reached with cursor, or the first page when
	// cursor is zero.
	FetchPage(ctx context.Context, key EntityKey, cursor Cursor) (Page, error)

	// CountItems returns the upstream's total item count for the listing.
	// It is a display hint only.
	CountItems(ctx context.Context, key EntityKey) (int64, error)
}

// Explorer is the upstream indexing API as seen by the listers.
type Explorer interface {
	AddressTransactions(ctx context.Context, address, filter string, cursor Cursor) (Page, error)
	AddressTransactionCount(ctx context.Context, address string) (int64, error)
	BlockTransactions(ctx context.Context, block string, cursor Cursor) (Page, error)
	BlockTransactionCount(ctx context.Context, block string) (int64, error)
}

type addressLister struct {
	explorer Explorer
}

func (l addressLister) FetchPage(ctx context.Context, key EntityKey, cursor Cursor) (Page, error) {
	return l.explorer.AddressTransactions(ctx, key.ID, key.Filter, cursor)
}

func (l addressLister) CountItems(ctx context.Context, key EntityKey) (int64, error) {
	return l.explorer.AddressTransactionCount(ctx, key.ID)
}

type blockLister struct {
	explorer Explorer
}

func (l blockLister) FetchPage(ctx context.Context, key EntityKey, cursor Cursor) (Page, error) {
	return l.explorer.BlockTransactions(ctx, key.ID, cursor)
}

func (l blockLister) CountItems(ctx context.Context, key EntityKey) (int64, error) {
	return l.explorer.BlockTransactionCount(ctx, key.ID)
}

// kindLister routes each key to the lister registered for its kind.
type kindLister map[EntityKind]Lister

func (l kindLister) lister(key EntityKey) (Lister, error) {
	lister, ok := l[key.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEntity, key.Kind)
	}

	return lister, nil
}

func (l kindLister) FetchPage(ctx context.Context, key EntityKey, cursor Cursor) (Page, error) {
	lister, err := l.lister(key)
	if err != nil {
		return Page{}, err
	}

	return lister.FetchPage(ctx, key, cursor)
}

func (l kindLister) CountItems(ctx context.Context, key EntityKey) (int64, error) {
	lister, err := l.lister(key)
	if err != nil {
		return 0, err
	}

	return lister.CountItems(ctx, key)
}

// NewLister returns a Lister serving both address and block listings from
// the given upstream.
func NewLister(e Explorer) Lister {
	return kindLister{
		EntityAddress: addressLister{explorer: e},
		EntityBlock:   blockLister{explorer: e},
	}
}
