package pagination

import "maps"

// PageSize is the number of items requested from the upstream per page.
const PageSize = 10

// Cursor is the upstream's token for "the items after the current page".
//
// Its fields (for example items_count and block_number) are never
// interpreted. They are stored and replayed verbatim as request parameters
// on the following request. A cursor is only valid for the listing it was
// obtained from; it must never be replayed against another EntityKey.
type Cursor map[string]string

// IsZero reports whether the cursor is absent. An absent next cursor marks
// the last page of a listing.
func (c Cursor) IsZero() bool {
	return len(c) == 0
}

// Equal reports whether both cursors carry the same fields and values.
func (c Cursor) Equal(other Cursor) bool {
	return maps.Equal(c, other)
}

// Clone returns a copy of the cursor that shares no state with c.
func (c Cursor) Clone() Cursor {
	return maps.Clone(c)
}
