package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/session-auth/internal/config"
)

func TestTokenBucketPassesThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	e.GET("/auth/check-session", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/check-session", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestBuildRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/auth/logout")

	cases := map[string]string{
		"ip":       "rl:ip:192.0.2.7",
		"user":     "rl:user:anon",
		"ip_route": "rl:ip:192.0.2.7:route:POST /auth/logout",
		"IP_USER":  "rl:ip:192.0.2.7:user:anon",
		"":         "rl:ip:192.0.2.7:user:anon:route:POST /auth/logout",
		"bogus":    "rl:ip:192.0.2.7:user:anon:route:POST /auth/logout",
	}
	for strategy, want := range cases {
		got := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}, c)
		require.Equal(t, want, got, strategy)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	require.Equal(t, 0, retryAfterSeconds(0))
	require.Equal(t, 1, retryAfterSeconds(time.Millisecond))
	require.Equal(t, 3, retryAfterSeconds(3*time.Second))
	require.Equal(t, 4, retryAfterSeconds(3*time.Second+time.Millisecond))
}

func TestTokenBucketWithRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            5 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "test_rl_" + time.Now().Format("150405.000000"),
	}
	e := echo.New()
	e.GET("/auth/me", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, NewTokenBucket(cfg, rdb))

	// preflights never consume tokens
	e.OPTIONS("/auth/me", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, NewTokenBucket(cfg, rdb))
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		e.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/auth/me", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			require.NotEmpty(t, w.Header().Get("Retry-After"))
		}
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	iter := rdb.Scan(context.Background(), 0, cfg.Prefix+":*", 100).Iterator()
	for iter.Next(context.Background()) {
		rdb.Del(context.Background(), iter.Val())
	}
}
