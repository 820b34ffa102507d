// engine/integration_test.go
package engine_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gateguard/gateguard/cache"
	"github.com/gateguard/gateguard/engine"
	"github.com/gateguard/gateguard/lapi"
	"github.com/gateguard/gateguard/model"
)

// End-to-end pipeline against a real HTTP decision service.
func TestCheckEndToEnd(t *testing.T) {
	t.Run("MissThenCachedAllow", func(t *testing.T) {
		var queries atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			queries.Add(1)
			assert.Equal(t, "/v1/decisions", r.URL.Path)
			w.Write([]byte("null"))
		}))
		defer server.Close()

		endpoint, err := lapi.ParseBaseURL(server.URL)
		require.NoError(t, err)
		client := lapi.NewClient(endpoint, "", "gateguard/test", server.Client())

		adapter := cache.NewAdapter(cache.NewMemoryStore(), cache.NewMutexLock(), time.Minute)
		eng := engine.New(adapter, client)

		for i := 0; i < 3; i++ {
			decision := eng.Check(context.Background(), enabledPolicy(), request("192.0.2.1"))
			assert.Equal(t, model.Allow, decision.Kind)
		}
		assert.Equal(t, int64(1), queries.Load())

		payload, found := adapter.Get(context.Background(), "192.0.2.1")
		require.True(t, found)
		assert.Equal(t, "null", payload)
	})

	t.Run("MissThenBlock", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"reason":"ban"}]`))
		}))
		defer server.Close()

		endpoint, err := lapi.ParseBaseURL(server.URL)
		require.NoError(t, err)
		client := lapi.NewClient(endpoint, "", "gateguard/test", server.Client())

		adapter := cache.NewAdapter(cache.NewMemoryStore(), cache.NewMutexLock(), time.Minute)
		eng := engine.New(adapter, client)

		decision := eng.Check(context.Background(), enabledPolicy(), request("192.0.2.1"))
		assert.Equal(t, model.Block, decision.Kind)
		assert.Equal(t, http.StatusTooManyRequests, decision.StatusCode)
	})
}
