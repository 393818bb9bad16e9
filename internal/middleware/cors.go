package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// AllowList is the exact set of origins allowed to make credentialed
// cross-origin requests.
type AllowList map[string]struct{}

func NewAllowList(origins ...string) AllowList {
	al := make(AllowList, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			al[o] = struct{}{}
		}
	}
	return al
}

// Allows reports exact membership; no wildcard or suffix matching.
func (al AllowList) Allows(origin string) bool {
	_, ok := al[origin]
	return ok
}

// CORS gates one endpoint. The request origin is echoed back only when it is
// on the allow-list; other origins get no Access-Control-Allow-Origin header
// and the request still runs (the browser discards the response). Preflight
// OPTIONS requests are answered with 200 and an empty body before the
// handler chain continues.
func CORS(origins AllowList, methods ...string) echo.MiddlewareFunc {
	allowMethods := strings.Join(append(append([]string{}, methods...), http.MethodOptions), ", ")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Add(echo.HeaderVary, echo.HeaderOrigin)
			if origin := c.Request().Header.Get(echo.HeaderOrigin); origin != "" && origins.Allows(origin) {
				h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			}
			h.Set(echo.HeaderAccessControlAllowMethods, allowMethods)
			h.Set(echo.HeaderAccessControlAllowHeaders, echo.HeaderContentType)
			h.Set(echo.HeaderAccessControlAllowCredentials, "true")

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
