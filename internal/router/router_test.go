package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestRegisterRoutesIgnoresForwardingHeaders(t *testing.T) {
	e := echo.New()
	RegisterRoutes(e, nil)
	e.GET("/ip", func(c echo.Context) error { return c.String(http.StatusOK, c.RealIP()) })

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "198.51.100.77:5555"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	req.Header.Set("X-Real-IP", "1.2.3.4")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	require.Equal(t, "198.51.100.77", w.Body.String())
}

func TestIPExtractor(t *testing.T) {
	direct, err := IPExtractor(nil)
	require.NoError(t, err)

	trusted, err := IPExtractor([]string{"10.0.0.0/8", "192.0.2.10"})
	require.NoError(t, err)

	newReq := func(remote string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		return req
	}

	require.Equal(t, "10.1.2.3", direct(newReq("10.1.2.3:80")))
	require.Equal(t, "203.0.113.9", trusted(newReq("10.1.2.3:80")))
	require.Equal(t, "203.0.113.9", trusted(newReq("192.0.2.10:80")))
	// forwarding headers from an untrusted peer are ignored
	require.Equal(t, "198.51.100.77", trusted(newReq("198.51.100.77:5555")))

	_, err = IPExtractor([]string{"not-a-cidr"})
	require.Error(t, err)
}
