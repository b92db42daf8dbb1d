package pagination

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	addressA = "0x1111111111111111111111111111111111111111"
	addressB = "0x2222222222222222222222222222222222222222"
)

func mustAddressKey(t *testing.T, address, filter string) EntityKey {
	t.Helper()

	key, err := NewAddressKey("mainnet", address, filter)
	require.NoError(t, err)
	return key
}

func newTestService(t *testing.T, store CursorStore, lister Lister) *service {
	t.Helper()

	s, err := New(store, lister)
	require.NoError(t, err)
	return s
}

func TestService_ResolvePage(t *testing.T) {
	t.Run("first page is fetched without any cursor lookup", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing().with(key, 25)

		store := new(cursorStoreMock)
		store.On("Put", mock.Anything, key, 1, mock.Anything).Return(nil).Once()

		s := newTestService(t, store, listing)

		result, err := s.ResolvePage(t.Context(), key, 1)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Page)
		assert.Len(t, result.Items, 10)
		assert.True(t, result.HasNext())
		assert.Equal(t, []int{1}, listing.fetched)
		store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "Nearest", mock.Anything, mock.Anything, mock.Anything)
		store.AssertExpectations(t)
	})

	t.Run("walks from the cached page to a later page", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing().with(key, 25)
		store := newMapStore()
		s := newTestService(t, store, listing)

		first, err := s.ResolvePage(t.Context(), key, 1)
		require.NoError(t, err)
		assert.Equal(t, addressA+"-tx-1", first.Items[0].Hash)
		assert.Equal(t, 1, store.pages(key))

		third, err := s.ResolvePage(t.Context(), key, 3)
		require.NoError(t, err)

		assert.Equal(t, 3, third.Page)
		assert.False(t, third.Clamped())
		assert.False(t, third.HasNext())
		assert.Equal(t, 3, third.TotalPages)
		require.Len(t, third.Items, 5)
		assert.Equal(t, addressA+"-tx-21", third.Items[0].Hash)
		assert.Equal(t, addressA+"-tx-25", third.Items[4].Hash)
		assert.Equal(t, []int{1, 2, 3}, listing.fetched)
		assert.Equal(t, 2, store.pages(key), "the last page has no next cursor to store")
	})

	t.Run("resolving a page twice costs a single extra call", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing().with(key, 100)
		s := newTestService(t, newMapStore(), listing)

		_, err := s.ResolvePage(t.Context(), key, 6)
		require.NoError(t, err)
		before := listing.fetches()

		again, err := s.ResolvePage(t.Context(), key, 6)
		require.NoError(t, err)

		assert.Equal(t, before+1, listing.fetches())
		assert.Equal(t, 6, again.Page)
		assert.Equal(t, addressA+"-tx-51", again.Items[0].Hash)
	})

	t.Run("going back to a visited page costs a single call", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing().with(key, 100)
		s := newTestService(t, newMapStore(), listing)

		_, err := s.ResolvePage(t.Context(), key, 8)
		require.NoError(t, err)
		before := listing.fetches()

		back, err := s.ResolvePage(t.Context(), key, 4)
		require.NoError(t, err)

		assert.Equal(t, before+1, listing.fetches())
		assert.Equal(t, addressA+"-tx-31", back.Items[0].Hash)
	})

	t.Run("a cold jump costs one call per page up to the target", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing().with(key, 100)
		s := newTestService(t, newMapStore(), listing)

		result, err := s.ResolvePage(t.Context(), key, 7)
		require.NoError(t, err)

		assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, listing.fetched)
		assert.Equal(t, addressA+"-tx-61", result.Items[0].Hash)
		assert.Equal(t, 10, result.TotalPages)
	})

	t.Run("pages beyond the end are clamped to the last page", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing().with(key, 25)
		s := newTestService(t, newMapStore(), listing)

		result, err := s.ResolvePage(t.Context(), key, 7)
		require.NoError(t, err)

		assert.Equal(t, 3, result.Page)
		assert.Equal(t, 7, result.Requested)
		assert.True(t, result.Clamped())
		assert.Len(t, result.Items, 5)
		assert.Equal(t, 3, result.TotalPages)
		assert.Equal(t, []int{1, 2, 3}, listing.fetched, "the last page is not fetched twice")

		again, err := s.ResolvePage(t.Context(), key, 7)
		require.NoError(t, err)
		assert.Equal(t, 3, again.Page)
		assert.Equal(t, []int{1, 2, 3, 3}, listing.fetched)
	})

	t.Run("a page right after the last one is clamped", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing().with(key, 20)
		s := newTestService(t, newMapStore(), listing)

		result, err := s.ResolvePage(t.Context(), key, 3)
		require.NoError(t, err)

		assert.Equal(t, 2, result.Page)
		assert.True(t, result.Clamped())
		assert.Equal(t, []int{1, 2}, listing.fetched)
	})

	t.Run("a far page costs one store lookup before walking", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing().with(key, 25)
		store := newMapStore()
		s := newTestService(t, store, listing)

		_, err := s.ResolvePage(t.Context(), key, 1)
		require.NoError(t, err)

		result, err := s.ResolvePage(t.Context(), key, 1_000_000)
		require.NoError(t, err)

		assert.Equal(t, 3, result.Page)
		assert.True(t, result.Clamped())
		assert.Equal(t, 1, store.lookups())
		assert.Equal(t, []int{1, 2, 3}, listing.fetched)
	})

	t.Run("an empty listing serves an empty first page", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing()
		s := newTestService(t, newMapStore(), listing)

		result, err := s.ResolvePage(t.Context(), key, 4)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Page)
		assert.Empty(t, result.Items)
		assert.Equal(t, 1, result.TotalPages)
	})

	t.Run("cursors of one address are never used for another", func(t *testing.T) {
		keyA := mustAddressKey(t, addressA, FilterAll)
		keyB := mustAddressKey(t, addressB, FilterAll)
		listing := newFakeListing().with(keyA, 50).with(keyB, 50)
		store := newMapStore()
		s := newTestService(t, store, listing)

		_, err := s.ResolvePage(t.Context(), keyA, 3)
		require.NoError(t, err)

		result, err := s.ResolvePage(t.Context(), keyB, 3)
		require.NoError(t, err)

		assert.Equal(t, addressB+"-tx-21", result.Items[0].Hash)
		assert.Equal(t, []int{1, 2, 3}, listing.cursors[keyB.String()], "B is walked from its own first page")
		assert.Equal(t, 3, store.pages(keyA))
		assert.Equal(t, 3, store.pages(keyB))
	})

	t.Run("cursors of one filter are never used for another", func(t *testing.T) {
		all := mustAddressKey(t, addressA, FilterAll)
		outgoing := mustAddressKey(t, addressA, FilterFrom)
		listing := newFakeListing().with(all, 50).with(outgoing, 30)
		s := newTestService(t, newMapStore(), listing)

		_, err := s.ResolvePage(t.Context(), all, 3)
		require.NoError(t, err)

		result, err := s.ResolvePage(t.Context(), outgoing, 3)
		require.NoError(t, err)

		assert.Equal(t, []int{1, 2, 3}, listing.cursors[outgoing.String()])
		assert.False(t, result.HasNext())
	})

	t.Run("a transport failure aborts the walk and keeps its progress", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing().with(key, 100)
		boom := errors.New("upstream returned 502")
		listing.failAt[3] = boom
		store := newMapStore()
		s := newTestService(t, store, listing)

		result, err := s.ResolvePage(t.Context(), key, 5)
		assert.ErrorIs(t, err, ErrLoadFailed)
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, result.Items, "no partial page on failure")
		assert.Equal(t, 2, store.pages(key))

		delete(listing.failAt, 3)
		before := listing.fetches()

		result, err = s.ResolvePage(t.Context(), key, 5)
		require.NoError(t, err)
		assert.Equal(t, before+3, listing.fetches(), "resumes from page 3")
		assert.Equal(t, addressA+"-tx-41", result.Items[0].Hash)
	})

	t.Run("a failure on the target page itself is a load failure", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing().with(key, 30)
		listing.failAt[1] = errors.New("connection refused")
		s := newTestService(t, newMapStore(), listing)

		_, err := s.ResolvePage(t.Context(), key, 1)
		assert.ErrorIs(t, err, ErrLoadFailed)
	})

	t.Run("rejects pages below one", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing().with(key, 30)
		s := newTestService(t, newMapStore(), listing)

		_, err := s.ResolvePage(t.Context(), key, 0)
		assert.ErrorIs(t, err, ErrInvalidPage)
		assert.Zero(t, listing.fetches())
	})

	t.Run("store failures degrade to cache misses", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing().with(key, 50)

		store := new(cursorStoreMock)
		store.On("Nearest", mock.Anything, key, mock.Anything).Return(0, nil, errors.New("redis: connection refused"))
		store.On("Put", mock.Anything, key, mock.Anything, mock.Anything).Return(errors.New("redis: connection refused"))

		s := newTestService(t, store, listing)

		result, err := s.ResolvePage(t.Context(), key, 3)
		require.NoError(t, err)
		assert.Equal(t, addressA+"-tx-21", result.Items[0].Hash)
		assert.Equal(t, []int{1, 2, 3}, listing.fetched)
	})

	t.Run("a nil store walks every time", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing().with(key, 50)
		s := newTestService(t, nil, listing)

		_, err := s.ResolvePage(t.Context(), key, 2)
		require.NoError(t, err)
		_, err = s.ResolvePage(t.Context(), key, 2)
		require.NoError(t, err)

		assert.Equal(t, []int{1, 2, 1, 2}, listing.fetched)
	})

	t.Run("cancellation is reported as such, not as a load failure", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing().with(key, 100)

		ctx, cancel := context.WithCancel(t.Context())
		listing.gate = func(page int) {
			if page == 2 {
				cancel()
			}
		}

		s := newTestService(t, newMapStore(), listing)

		_, err := s.ResolvePage(ctx, key, 6)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrLoadFailed)
	})
}

func TestService_TotalPages(t *testing.T) {
	t.Run("the count hint is used while the stream continues", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing().with(key, 45)
		s := newTestService(t, newMapStore(), listing)

		result, err := s.ResolvePage(t.Context(), key, 1)
		require.NoError(t, err)
		assert.Equal(t, 5, result.TotalPages)
	})

	t.Run("a low hint is raised to the pages the stream proves to exist", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing().with(key, 45)
		listing.count = 5
		s := newTestService(t, newMapStore(), listing)

		result, err := s.ResolvePage(t.Context(), key, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, result.TotalPages)
	})

	t.Run("a high hint is cut where the stream ends", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing().with(key, 25)
		listing.count = 1000
		s := newTestService(t, newMapStore(), listing)

		result, err := s.ResolvePage(t.Context(), key, 3)
		require.NoError(t, err)
		assert.Equal(t, 3, result.TotalPages)
	})

	t.Run("the count is fetched once per listing", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing().with(key, 100)
		s := newTestService(t, newMapStore(), listing)

		for page := 1; page <= 3; page++ {
			_, err := s.ResolvePage(t.Context(), key, page)
			require.NoError(t, err)
		}

		assert.Equal(t, 1, listing.counted)
	})

	t.Run("a count failure does not fail the page", func(t *testing.T) {
		key := mustAddressKey(t, addressA, FilterAll)
		listing := newFakeListing().with(key, 100)
		listing.countErr = errors.New("counters unavailable")
		s := newTestService(t, newMapStore(), listing)

		result, err := s.ResolvePage(t.Context(), key, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, result.TotalPages)
	})
}

func TestWithCountCacheSize(t *testing.T) {
	t.Run("bounds how many listings keep their count", func(t *testing.T) {
		keyA := mustAddressKey(t, addressA, FilterAll)
		keyB := mustAddressKey(t, addressB, FilterAll)
		listing := newFakeListing().with(keyA, 100).with(keyB, 100)

		s, err := New(newMapStore(), listing, WithCountCacheSize(1))
		require.NoError(t, err)

		for _, key := range []EntityKey{keyA, keyB, keyA} {
			_, err := s.ResolvePage(t.Context(), key, 1)
			require.NoError(t, err)
		}

		assert.Equal(t, 3, listing.counted)
	})

	t.Run("rejects a non-positive size", func(t *testing.T) {
		_, err := New(newMapStore(), newFakeListing(), WithCountCacheSize(0))

		assert.Error(t, err)
	})
}

func TestService_Forget(t *testing.T) {
	key := mustAddressKey(t, addressA, FilterAll)
	listing := newFakeListing().with(key, 50)
	store := newMapStore()
	s := newTestService(t, store, listing)

	_, err := s.ResolvePage(t.Context(), key, 3)
	require.NoError(t, err)
	require.Equal(t, 3, store.pages(key))

	require.NoError(t, s.Forget(t.Context(), key))
	assert.Zero(t, store.pages(key))

	before := listing.fetches()
	_, err = s.ResolvePage(t.Context(), key, 3)
	require.NoError(t, err)
	assert.Equal(t, before+3, listing.fetches())
	assert.Equal(t, 2, listing.counted, "the count hint is forgotten too")
}
