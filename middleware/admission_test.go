// middleware/admission_test.go
package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gateguard/gateguard/audit"
	"github.com/gateguard/gateguard/cache"
	"github.com/gateguard/gateguard/config"
	"github.com/gateguard/gateguard/engine"
	gateguard_errors "github.com/gateguard/gateguard/errors"
	logger "github.com/gateguard/gateguard/logging"
	"github.com/gateguard/gateguard/middleware"
	"github.com/gateguard/gateguard/model"
	"github.com/gateguard/gateguard/util"
)

func TestMain(m *testing.M) {
	logger.InitLogger()
	defer logger.Sync()
	gin.SetMode(gin.TestMode)
	m.Run()
}

type stubQuerier struct {
	payload string
	err     error
}

func (q *stubQuerier) Query(_ context.Context, _ string) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	return q.payload, nil
}

func (q *stubQuerier) QueryURL(addr string) string {
	return "http://localhost:8081/v1/decisions?ip=" + addr
}

func newRouter(querier engine.Querier, policy *model.AccessPolicy, bus *util.EventBus) *gin.Engine {
	adapter := cache.NewAdapter(cache.NewMemoryStore(), cache.NewMutexLock(), time.Minute)
	eng := engine.New(adapter, querier)
	policies := &config.PolicySet{Default: policy}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Admission(eng, policies, bus))
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "upstream")
	})
	return router
}

func serve(router *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:4711"
	router.ServeHTTP(w, req)
	return w
}

func TestAdmission(t *testing.T) {
	t.Run("AllowReachesUpstream", func(t *testing.T) {
		router := newRouter(&stubQuerier{payload: "null"}, &model.AccessPolicy{
			Enabled:           true,
			BlockedStatusCode: http.StatusTooManyRequests,
		}, nil)

		w := serve(router)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "upstream", w.Body.String())
	})

	t.Run("DisabledPolicyReachesUpstream", func(t *testing.T) {
		router := newRouter(&stubQuerier{payload: `[{"reason":"ban"}]`}, &model.AccessPolicy{
			Enabled: false,
		}, nil)

		w := serve(router)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("BlockShortCircuits", func(t *testing.T) {
		router := newRouter(&stubQuerier{payload: `[{"reason":"ban"}]`}, &model.AccessPolicy{
			Enabled:           true,
			BlockedStatusCode: http.StatusTooManyRequests,
		}, nil)

		w := serve(router)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEqual(t, "upstream", w.Body.String())
	})

	t.Run("RedirectSetsLocation", func(t *testing.T) {
		router := newRouter(&stubQuerier{payload: `[{"reason":"ban"}]`}, &model.AccessPolicy{
			Enabled:           true,
			BlockedStatusCode: http.StatusForbidden,
			Redirect:          staticRedirect("https://example.com/blocked"),
		}, nil)

		w := serve(router)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "https://example.com/blocked", w.Header().Get("Location"))
	})

	t.Run("FallbackFailSurfacesNote", func(t *testing.T) {
		router := newRouter(&stubQuerier{
			err: &gateguard_errors.ServiceError{Status: http.StatusBadGateway},
		}, &model.AccessPolicy{
			Enabled:           true,
			Fallback:          model.FallbackFail,
			BlockedStatusCode: http.StatusTooManyRequests,
		}, nil)

		w := serve(router)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "threat intelligence")
	})

	t.Run("BlockedDecisionIsPublished", func(t *testing.T) {
		bus := util.NewEventBus()

		var mu sync.Mutex
		var records []audit.DecisionRecord
		done := make(chan struct{})
		bus.Subscribe(middleware.EventDecisionBlocked, func(_ context.Context, event util.Event) error {
			mu.Lock()
			defer mu.Unlock()
			records = append(records, event.Payload.(audit.DecisionRecord))
			close(done)
			return nil
		})

		router := newRouter(&stubQuerier{payload: `[{"reason":"ban"}]`}, &model.AccessPolicy{
			Enabled:           true,
			BlockedStatusCode: http.StatusTooManyRequests,
		}, bus)

		serve(router)

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("blocked decision was never published")
		}

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, records, 1)
		assert.Equal(t, "block", records[0].Outcome)
		assert.Equal(t, "192.0.2.1", records[0].ClientIP)
		assert.Equal(t, http.StatusTooManyRequests, records[0].StatusCode)
		assert.NotEmpty(t, records[0].RequestID)
	})
}

type staticRedirect string

func (r staticRedirect) Eval(_ *model.RequestContext) (string, error) {
	return string(r), nil
}
