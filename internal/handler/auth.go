package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/session-auth/internal/logger"
	"github.com/iliyamo/session-auth/internal/middleware"
	"github.com/iliyamo/session-auth/internal/service"
	"github.com/iliyamo/session-auth/internal/session"
)

// AuthHandler bundles dependencies for the /auth endpoints.
type AuthHandler struct {
	Logouts *service.LogoutService
	Logins  *service.LoginService
	log     *zap.Logger
}

func NewAuthHandler(logouts *service.LogoutService, logins *service.LoginService) *AuthHandler {
	return &AuthHandler{Logouts: logouts, Logins: logins, log: logger.WithModule("auth")}
}

// ----- DTOs -----

type sessionResp struct {
	Authenticated bool    `json:"authenticated"`
	UserID        *uint64 `json:"user_id"`
}

type resultResp struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

type loginResp struct {
	Success bool   `json:"success"`
	UserID  uint64 `json:"user_id"`
}

// CheckSession reports whether the request session is authenticated.
func (h *AuthHandler) CheckSession(c echo.Context) error {
	ok, uid := session.IsAuthenticated(middleware.CurrentSession(c))
	return c.JSON(http.StatusOK, sessionResp{Authenticated: ok, UserID: uid})
}

// Me returns the current session identity in the same shape as CheckSession.
func (h *AuthHandler) Me(c echo.Context) error {
	return h.CheckSession(c)
}

// Logout: revoke remember tokens, audit, destroy session. Only POST.
func (h *AuthHandler) Logout(c echo.Context) (err error) {
	if c.Request().Method != http.MethodPost {
		c.Response().Header().Set(echo.HeaderAllow, http.MethodPost+", "+http.MethodOptions)
		return c.JSON(http.StatusMethodNotAllowed, resultResp{Success: false, Message: "Method Not Allowed"})
	}

	defer func() {
		if r := recover(); r != nil {
			h.log.Error("logout panicked", zap.Any("panic", r))
			err = c.JSON(http.StatusInternalServerError, resultResp{Success: false, Message: "Logout failed"})
		}
	}()

	res, err := h.Logouts.Logout(c.Request().Context(), middleware.CurrentSession(c), c.RealIP())
	if err != nil {
		h.log.Error("logout failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, resultResp{Success: false, Message: "Logout failed"})
	}
	for _, ck := range res.Cookies {
		c.SetCookie(ck)
	}
	return c.JSON(http.StatusOK, resultResp{Success: true, Message: "Logged out successfully"})
}

// Login: verify credentials and authenticate the request session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, resultResp{Success: false, Message: "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, resultResp{Success: false, Message: "email/password required"})
	}

	sess := middleware.CurrentSession(c)
	if sess == nil {
		h.log.Error("login without session middleware")
		return c.JSON(http.StatusInternalServerError, resultResp{Success: false, Message: "Login failed"})
	}

	res, err := h.Logins.Login(c.Request().Context(), sess, req.Email, req.Password, req.Remember, c.RealIP())
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, resultResp{Success: false, Message: "invalid credentials"})
		}
		h.log.Error("login failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, resultResp{Success: false, Message: "Login failed"})
	}
	for _, ck := range res.Cookies {
		c.SetCookie(ck)
	}
	return c.JSON(http.StatusOK, loginResp{Success: true, UserID: res.User.ID})
}
