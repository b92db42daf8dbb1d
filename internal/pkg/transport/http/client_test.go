package http

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabapcia/txpager/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error")
}

func TestNewClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := NewClient()

		assert.Equal(t, 5*time.Second, c.HTTPClient.Timeout)
		assert.Equal(t, time.Second, c.RetryWaitMin)
		assert.Equal(t, 5*time.Second, c.RetryWaitMax)
		assert.Equal(t, 2, c.RetryMax)
		assert.IsType(t, leveledLogger{}, c.Logger)
	})

	t.Run("options", func(t *testing.T) {
		c := NewClient(
			WithTimeout(750*time.Millisecond),
			WithRetryWaitMin(10*time.Millisecond),
			WithRetryWaitMax(20*time.Millisecond),
			WithRetryMax(4),
		)

		assert.Equal(t, 750*time.Millisecond, c.HTTPClient.Timeout)
		assert.Equal(t, 10*time.Millisecond, c.RetryWaitMin)
		assert.Equal(t, 20*time.Millisecond, c.RetryWaitMax)
		assert.Equal(t, 4, c.RetryMax)
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c := NewClient(WithRetryWaitMin(time.Millisecond), WithRetryWaitMax(time.Millisecond), WithRetryMax(3))

		res, err := c.Get(srv.URL)
		require.NoError(t, err)
		defer res.Body.Close()

		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, int32(3), calls.Load())
	})
}
