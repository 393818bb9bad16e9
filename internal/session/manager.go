package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/session-auth/internal/config"
	"github.com/iliyamo/session-auth/internal/logger"
	"github.com/iliyamo/session-auth/internal/utils"
)

// Manager moves sessions between the Store and the session cookie. Every
// cookie it emits shares the configured path, domain, secure, http-only
// and same-site attributes.
type Manager struct {
	store Store
	cfg   config.SessionConfig
	log   *zap.Logger
}

func NewManager(store Store, cfg config.SessionConfig) *Manager {
	return &Manager{store: store, cfg: cfg, log: logger.WithModule("session")}
}

// CookieName is the configured session cookie name.
func (m *Manager) CookieName() string { return m.cfg.CookieName }

// Load resolves the request's session. It never fails: a missing cookie,
// an unknown token or a store error all yield a fresh anonymous session.
func (m *Manager) Load(r *http.Request) *Session {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil || c.Value == "" {
		return &Session{}
	}
	st, err := m.store.Load(r.Context(), c.Value)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.Warn("session load failed", zap.Error(err))
		}
		return &Session{}
	}
	return &Session{Token: c.Value, State: st}
}

// Save persists the session, issuing a token on first save, and returns the
// cookie the response must carry.
func (m *Manager) Save(ctx context.Context, s *Session) (*http.Cookie, error) {
	if s.Token == "" {
		tok, err := utils.RandomHex(32)
		if err != nil {
			return nil, err
		}
		s.Token = tok
	}
	if err := m.store.Save(ctx, s.Token, s.State); err != nil {
		return nil, err
	}
	return m.Cookie(m.cfg.CookieName, s.Token, m.cfg.TTL), nil
}

// Renew discards the server record behind the current token so the next
// Save issues a new one. Called on login to avoid session fixation.
func (m *Manager) Renew(ctx context.Context, s *Session) {
	if s.Token == "" {
		return
	}
	if err := m.store.Destroy(ctx, s.Token); err != nil {
		m.log.Warn("session renew: destroy old token failed", zap.Error(err))
	}
	s.Token = ""
}

// Destroy clears the session state, returns an expired session cookie and
// removes the server record. The cookie is valid even when err != nil.
func (m *Manager) Destroy(ctx context.Context, s *Session) (*http.Cookie, error) {
	token := s.Token
	s.Clear()
	s.Token = ""
	cookie := m.Expired(m.cfg.CookieName)
	if token == "" {
		return cookie, nil
	}
	return cookie, m.store.Destroy(ctx, token)
}

// Cookie builds a cookie with the configured attributes.
func (m *Manager) Cookie(name, value string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.cfg.Path,
		Domain:   m.cfg.Domain,
		Secure:   m.cfg.Secure,
		HttpOnly: true,
		SameSite: m.cfg.SameSite,
	}
	if ttl > 0 {
		c.Expires = time.Now().Add(ttl).UTC()
		c.MaxAge = int(ttl.Seconds())
	}
	return c
}

// Expired builds a deletion cookie: empty value, expiry in the past.
func (m *Manager) Expired(name string) *http.Cookie {
	c := m.Cookie(name, "", 0)
	c.Expires = time.Unix(0, 0).UTC()
	c.MaxAge = -1
	return c
}
