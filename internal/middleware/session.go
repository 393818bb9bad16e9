package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/session-auth/internal/logger"
	"github.com/iliyamo/session-auth/internal/session"
)

// sessionKey is the echo context key holding the request *session.Session.
const sessionKey = "session"

// Restorer re-authenticates an anonymous session from a raw remember token
// and returns the cookies to set (possibly an expired remember cookie).
type Restorer interface {
	Restore(ctx context.Context, sess *session.Session, raw string) ([]*http.Cookie, error)
}

// Sessions loads the request session into the context. When restorer is
// non-nil and the session is anonymous, a remember cookie named
// rememberCookie is used to restore it.
func Sessions(mgr *session.Manager, restorer Restorer, rememberCookie string) echo.MiddlewareFunc {
	log := logger.WithModule("session")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := mgr.Load(c.Request())
			if ok, _ := session.IsAuthenticated(sess); !ok && restorer != nil {
				if rc, err := c.Cookie(rememberCookie); err == nil && rc.Value != "" {
					cookies, err := restorer.Restore(c.Request().Context(), sess, rc.Value)
					if err != nil {
						log.Debug("remember restore failed", zap.Error(err))
					}
					for _, ck := range cookies {
						c.SetCookie(ck)
					}
				}
			}
			c.Set(sessionKey, sess)
			return next(c)
		}
	}
}

// CurrentSession returns the session loaded by Sessions, or nil.
func CurrentSession(c echo.Context) *session.Session {
	s, _ := c.Get(sessionKey).(*session.Session)
	return s
}

// currentUserID renders the session user id for rate-limit keys.
func currentUserID(c echo.Context) string {
	if _, uid := session.IsAuthenticated(CurrentSession(c)); uid != nil {
		return formatUint(*uid)
	}
	return "anon"
}
