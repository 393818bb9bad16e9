package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func newCORSServer(called *int) *echo.Echo {
	e := echo.New()
	origins := NewAllowList("http://localhost:3000", "https://app.example.com")
	e.Match([]string{http.MethodGet, http.MethodOptions}, "/resource", func(c echo.Context) error {
		*called++
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	}, CORS(origins, http.MethodGet))
	return e
}

func TestCORSEchoesAllowedOrigin(t *testing.T) {
	calls := 0
	e := newCORSServer(&calls)

	for _, origin := range []string{"http://localhost:3000", "https://app.example.com"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/resource", nil)
		req.Header.Set("Origin", origin)
		e.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, origin, w.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		require.Equal(t, "GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
		require.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
	}
	require.Equal(t, 2, calls)
}

func TestCORSOmitsHeaderForUnknownOrigin(t *testing.T) {
	calls := 0
	e := newCORSServer(&calls)

	for _, origin := range []string{"https://evil.example", "https://app.example.com.evil", "http://localhost:3001", ""} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/resource", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		e.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, origin)
		_, present := w.Header()["Access-Control-Allow-Origin"]
		require.False(t, present, origin)
	}
	// request is not rejected server-side
	require.Equal(t, 4, calls)
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	calls := 0
	e := newCORSServer(&calls)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/resource", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	e.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Body.String())
	require.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	require.Zero(t, calls)
}
