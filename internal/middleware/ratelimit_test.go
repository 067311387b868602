package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"food-delivery/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLimitedHandler(t *testing.T, limit int) (http.Handler, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	cfg := RateLimitConfig{
		RequestsPerWindow: limit,
		Window:            time.Minute,
		KeyPrefix:         "test_rate_limit",
	}
	handler := RateLimitMiddleware(redisClient, cfg, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	return handler, mr
}

func TestProperty_RateLimitingBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("excessive requests are blocked with 429", prop.ForAll(
		func(requestsPerWindow int, excessRequests int) bool {
			handler, _ := newLimitedHandler(t, requestsPerWindow)

			successCount, blockedCount := 0, 0
			for i := 0; i < requestsPerWindow+excessRequests; i++ {
				req := httptest.NewRequest("POST", "/api/auth/login", nil)
				req.RemoteAddr = "192.168.1.100:4321"
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)

				switch w.Code {
				case http.StatusOK:
					successCount++
				case http.StatusTooManyRequests:
					blockedCount++
				}
			}

			return successCount == requestsPerWindow && blockedCount == excessRequests
		},
		gen.IntRange(5, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimit_KeysByHostIgnoringPort(t *testing.T) {
	handler, _ := newLimitedHandler(t, 1)

	first := httptest.NewRequest("POST", "/api/auth/login", nil)
	first.RemoteAddr = "10.0.0.7:1111"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, first)
	require.Equal(t, http.StatusOK, w.Code)

	second := httptest.NewRequest("POST", "/api/auth/login", nil)
	second.RemoteAddr = "10.0.0.7:2222"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, second)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	other := httptest.NewRequest("POST", "/api/auth/login", nil)
	other.RemoteAddr = "10.0.0.8:1111"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, other)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_AuthenticatedUsersHaveTheirOwnBucket(t *testing.T) {
	handler, mr := newLimitedHandler(t, 1)

	for _, id := range []int64{1, 2} {
		req := httptest.NewRequest("GET", "/cliente/pedidos", nil)
		req.RemoteAddr = "10.0.0.9:1000"
		req = req.WithContext(WithIdentity(req.Context(), domain.Identity{UserID: id, Role: domain.RoleCustomer}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.True(t, mr.Exists("test_rate_limit:user:1"))
	assert.True(t, mr.Exists("test_rate_limit:user:2"))
}

func TestRateLimit_WindowExpires(t *testing.T) {
	handler, mr := newLimitedHandler(t, 1)

	send := func() int {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.10:1000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusOK, send())
	require.Equal(t, http.StatusTooManyRequests, send())

	mr.FastForward(2 * time.Minute)
	assert.Equal(t, http.StatusOK, send())
}

func TestRateLimit_PassesThroughWhenRedisIsDown(t *testing.T) {
	handler, mr := newLimitedHandler(t, 1)
	mr.Close()

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.11:1000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestProperty_RateLimitHeadersAreSet(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("rate limit headers are present in responses", prop.ForAll(
		func(requestsPerWindow int) bool {
			handler, _ := newLimitedHandler(t, requestsPerWindow)

			req := httptest.NewRequest("GET", "/api/public/categorias", nil)
			req.RemoteAddr = "192.168.1.101:5555"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Header().Get("X-RateLimit-Limit") != "" &&
				w.Header().Get("X-RateLimit-Remaining") != ""
		},
		gen.IntRange(5, 50),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
