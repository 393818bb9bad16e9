package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/session-auth/internal/handler"
	"github.com/iliyamo/session-auth/internal/middleware"
	"github.com/iliyamo/session-auth/internal/session"
)

// RegisterRoutes installs the global middleware and the routes that do not
// touch sessions: health check and Prometheus metrics.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	// without an extractor echo trusts client-sent X-Forwarded-For / X-Real-IP
	if e.IPExtractor == nil {
		e.IPExtractor = echo.ExtractIPDirect()
	}
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())

	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// IPExtractor returns the client IP strategy. With no trusted proxies the
// peer address is used as is. Otherwise X-Forwarded-For is honoured only for
// hops inside the given CIDRs.
func IPExtractor(trustedProxies []string) (echo.IPExtractor, error) {
	if len(trustedProxies) == 0 {
		return echo.ExtractIPDirect(), nil
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range trustedProxies {
		if !strings.Contains(cidr, "/") {
			if ip := net.ParseIP(cidr); ip != nil && ip.To4() != nil {
				cidr += "/32"
			} else {
				cidr += "/128"
			}
		}
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", cidr, err)
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	return echo.ExtractIPFromXFFHeader(opts...), nil
}

// AuthDeps is everything RegisterAuth needs besides the handler.
type AuthDeps struct {
	Origins        middleware.AllowList
	Sessions       *session.Manager
	Restorer       middleware.Restorer // optional
	RememberCookie string
	RateLimit      echo.MiddlewareFunc // optional
}

// RegisterAuth registers the /auth endpoints. Each route runs its own CORS
// gate first so preflight requests end before rate limiting or session
// loading, and every rejection still carries the CORS headers.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, d AuthDeps) {
	g := e.Group("/auth")

	withSession := middleware.Sessions(d.Sessions, d.Restorer, d.RememberCookie)
	// login builds its own session; logout must not revive one it is ending
	plainSession := middleware.Sessions(d.Sessions, nil, "")

	chain := func(method string, sessions echo.MiddlewareFunc) []echo.MiddlewareFunc {
		mw := []echo.MiddlewareFunc{middleware.CORS(d.Origins, method)}
		if d.RateLimit != nil {
			mw = append(mw, d.RateLimit)
		}
		return append(mw, sessions)
	}

	g.Match([]string{http.MethodGet, http.MethodOptions}, "/check-session", a.CheckSession,
		chain(http.MethodGet, withSession)...)
	g.Match([]string{http.MethodGet, http.MethodOptions}, "/me", a.Me,
		chain(http.MethodGet, withSession)...)
	g.Match([]string{http.MethodPost, http.MethodOptions}, "/login", a.Login,
		chain(http.MethodPost, plainSession)...)
	// Any: non-POST methods reach the handler and get the JSON 405 body.
	g.Any("/logout", a.Logout, chain(http.MethodPost, plainSession)...)
}
