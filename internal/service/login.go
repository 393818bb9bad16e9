package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/session-auth/internal/config"
	"github.com/iliyamo/session-auth/internal/logger"
	"github.com/iliyamo/session-auth/internal/metrics"
	"github.com/iliyamo/session-auth/internal/model"
	"github.com/iliyamo/session-auth/internal/repository"
	"github.com/iliyamo/session-auth/internal/session"
	"github.com/iliyamo/session-auth/internal/utils"
)

var (
	// ErrInvalidCredentials covers unknown email, inactive account and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRememberToken is returned by Restore for unknown or expired tokens.
	ErrInvalidRememberToken = errors.New("invalid remember token")
)

// LoginResult carries the authenticated user and the cookies to set.
type LoginResult struct {
	User    model.User
	Cookies []*http.Cookie
}

// LoginService authenticates users into the request session and restores
// sessions from remember cookies.
type LoginService struct {
	db             *sql.DB
	sessions       *session.Manager
	audit          *AuditLogger
	timeout        time.Duration
	bcryptCost     int
	rememberTTL    time.Duration
	rememberCookie string
	now            func() time.Time
	log            *zap.Logger
}

func NewLoginService(db *sql.DB, sessions *session.Manager, audit *AuditLogger, cfg config.Config) *LoginService {
	return &LoginService{
		db:             db,
		sessions:       sessions,
		audit:          audit,
		timeout:        cfg.DBTimeout,
		bcryptCost:     cfg.BcryptCost,
		rememberTTL:    cfg.RememberTTL(),
		rememberCookie: cfg.RememberCookieName,
		now:            time.Now,
		log:            logger.WithModule("login"),
	}
}

// Login verifies the credentials, rotates the session token, stores the
// user in the session and, when remember is set, issues a remember token.
func (s *LoginService) Login(ctx context.Context, sess *session.Session, email, password string, remember bool, ip string) (LoginResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	u, err := repository.NewUserRepo(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.BurnPasswordCheck(password, s.bcryptCost)
			metrics.LoginAttempts.WithLabelValues("invalid").Inc()
			return LoginResult{}, ErrInvalidCredentials
		}
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return LoginResult{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) || !u.IsActive {
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return LoginResult{}, ErrInvalidCredentials
	}

	cookie, err := s.establish(ctx, sess, u)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return LoginResult{}, err
	}
	res := LoginResult{User: u, Cookies: []*http.Cookie{cookie}}

	if remember {
		tok, err := utils.NewRememberToken(s.rememberTTL)
		if err == nil {
			err = repository.NewTokenRepo(s.db).Store(ctx, u.ID, utils.HashToken(tok.Raw), tok.Exp)
		}
		if err != nil {
			// the session is already valid; the client just won't be remembered
			s.log.Warn("issue remember token failed", zap.Uint64("user_id", u.ID), zap.Error(err))
		} else {
			res.Cookies = append(res.Cookies, s.sessions.Cookie(s.rememberCookie, tok.Raw, s.rememberTTL))
		}
	}

	if _, err := s.audit.Append(ctx, s.db, u.ID, model.ActionLogin, ip); err != nil {
		metrics.BestEffortFailures.WithLabelValues(StepAuditLog).Inc()
		s.log.Warn("login audit failed", zap.Uint64("user_id", u.ID), zap.Error(err))
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return res, nil
}

// Restore re-authenticates an anonymous session from a raw remember token.
// On ErrInvalidRememberToken the returned cookies expire the stale remember
// cookie.
func (s *LoginService) Restore(ctx context.Context, sess *session.Session, raw string) ([]*http.Cookie, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	uid, err := repository.NewTokenRepo(s.db).UserIDByHash(ctx, utils.HashToken(raw), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []*http.Cookie{s.sessions.Expired(s.rememberCookie)}, ErrInvalidRememberToken
		}
		return nil, err
	}
	u, err := repository.NewUserRepo(s.db).GetByID(ctx, uid)
	if err != nil || !u.IsActive {
		if err == nil || errors.Is(err, repository.ErrNotFound) {
			return []*http.Cookie{s.sessions.Expired(s.rememberCookie)}, ErrInvalidRememberToken
		}
		return nil, err
	}

	cookie, err := s.establish(ctx, sess, u)
	if err != nil {
		return nil, err
	}
	return []*http.Cookie{cookie}, nil
}

func (s *LoginService) establish(ctx context.Context, sess *session.Session, u model.User) (*http.Cookie, error) {
	s.sessions.Renew(ctx, sess)
	sess.Authenticate(u.ID, u.Profile())
	return s.sessions.Save(ctx, sess)
}
