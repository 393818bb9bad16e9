package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/session-auth/internal/logger"
	"github.com/iliyamo/session-auth/internal/metrics"
	"github.com/iliyamo/session-auth/internal/model"
	"github.com/iliyamo/session-auth/internal/repository"
	"github.com/iliyamo/session-auth/internal/session"
)

// Names of the best-effort logout steps.
const (
	StepRevokeTokens = "revoke_remember_tokens"
	StepAuditLog     = "audit_log"
)

// ErrNoSession is returned when Logout is called without a request session.
var ErrNoSession = errors.New("logout: no session in request")

// StepResult is the outcome of one best-effort step. A non-nil Err is
// logged by the sequencer and otherwise ignored.
type StepResult struct {
	Step string
	Err  error
}

func (r StepResult) OK() bool { return r.Err == nil }

// LogoutResult describes what the handler must send back.
type LogoutResult struct {
	UserID  *uint64
	Steps   []StepResult
	Cookies []*http.Cookie
}

// LogoutService tears sessions down: revoke remember tokens, record the
// logout, then clear and destroy the session unconditionally.
type LogoutService struct {
	db             *sql.DB
	sessions       *session.Manager
	audit          *AuditLogger
	timeout        time.Duration
	rememberCookie string
	log            *zap.Logger
}

func NewLogoutService(db *sql.DB, sessions *session.Manager, audit *AuditLogger, timeout time.Duration, rememberCookie string) *LogoutService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LogoutService{
		db:             db,
		sessions:       sessions,
		audit:          audit,
		timeout:        timeout,
		rememberCookie: rememberCookie,
		log:            logger.WithModule("logout"),
	}
}

// Logout runs the logout sequence for sess. Only a missing session makes it
// fail; step and store failures are logged and the teardown still happens.
func (s *LogoutService) Logout(ctx context.Context, sess *session.Session, ip string) (LogoutResult, error) {
	if sess == nil {
		return LogoutResult{}, ErrNoSession
	}
	res := LogoutResult{UserID: sess.State.UserID}

	if uid := sess.State.UserID; uid != nil {
		res.Steps = s.revokeAndRecord(ctx, *uid, ip)
		for _, step := range res.Steps {
			if !step.OK() {
				metrics.BestEffortFailures.WithLabelValues(step.Step).Inc()
				s.log.Warn("logout step failed",
					zap.String("step", step.Step), zap.Uint64("user_id", *uid), zap.Error(step.Err))
			}
		}
		metrics.Logouts.WithLabelValues("authenticated").Inc()
	} else {
		metrics.Logouts.WithLabelValues("anonymous").Inc()
	}

	cookie, err := s.sessions.Destroy(ctx, sess)
	if err != nil {
		metrics.BestEffortFailures.WithLabelValues("session_destroy").Inc()
		s.log.Warn("session destroy failed", zap.Error(err))
	}
	res.Cookies = append(res.Cookies, cookie)
	if s.rememberCookie != "" {
		res.Cookies = append(res.Cookies, s.sessions.Expired(s.rememberCookie))
	}
	return res, nil
}

// revokeAndRecord runs both database steps on one scoped connection bounded
// by the service timeout. The steps do not depend on each other.
func (s *LogoutService) revokeAndRecord(ctx context.Context, userID uint64, ip string) []StepResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return []StepResult{{Step: StepRevokeTokens, Err: err}, {Step: StepAuditLog, Err: err}}
	}
	defer func() { _ = conn.Close() }()

	return []StepResult{
		s.revokeTokens(ctx, conn, userID),
		s.recordLogout(ctx, conn, userID, ip),
	}
}

func (s *LogoutService) revokeTokens(ctx context.Context, db repository.DBTX, userID uint64) StepResult {
	n, err := repository.NewTokenRepo(db).DeleteAllForUser(ctx, userID)
	if err == nil {
		s.log.Debug("remember tokens revoked", zap.Uint64("user_id", userID), zap.Int64("count", n))
	}
	return StepResult{Step: StepRevokeTokens, Err: err}
}

func (s *LogoutService) recordLogout(ctx context.Context, db repository.DBTX, userID uint64, ip string) StepResult {
	_, err := s.audit.Append(ctx, db, userID, model.ActionLogout, ip)
	return StepResult{Step: StepAuditLog, Err: err}
}
