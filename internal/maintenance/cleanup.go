package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iliyamo/session-auth/internal/logger"
	"github.com/iliyamo/session-auth/internal/repository"
)

const (
	defaultTokenSpec   = "@daily"
	defaultSessionSpec = "@hourly"
)

// SessionPurger drops expired server-side sessions. Stores that expire
// records on their own (Redis) need no purger.
type SessionPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Cleaner runs periodic housekeeping: expired remember tokens and, for the
// in-memory store, expired sessions.
type Cleaner struct {
	db       repository.DBTX
	sessions SessionPurger
	cron     *cron.Cron
	now      func() time.Time
	timeout  time.Duration
	log      *zap.Logger

	tokenSchedule   string
	sessionSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithSessionPurger enables the session sweep job.
func WithSessionPurger(p SessionPurger) Option {
	return func(cleaner *Cleaner) { cleaner.sessions = p }
}

// WithTokenSchedule overrides the cron specification for token cleanup.
func WithTokenSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.tokenSchedule = spec
		}
	}
}

// WithSessionSchedule overrides the cron specification for the session sweep.
func WithSessionSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sessionSchedule = spec
		}
	}
}

// WithTimeout bounds each job run.
func WithTimeout(d time.Duration) Option {
	return func(cleaner *Cleaner) {
		if d > 0 {
			cleaner.timeout = d
		}
	}
}

// NewCleaner constructs a Cleaner. A nil db disables the token job.
func NewCleaner(db repository.DBTX, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:              db,
		now:             time.Now,
		timeout:         30 * time.Second,
		tokenSchedule:   defaultTokenSpec,
		sessionSchedule: defaultSessionSpec,
		log:             logger.WithModule("maintenance"),
	}
	for _, opt := range opts {
		opt(cleaner)
	}
	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cleaner
}

// Start registers the enabled jobs and launches the scheduler.
func (c *Cleaner) Start() error {
	if c.db == nil && c.sessions == nil {
		return nil
	}

	if c.db != nil {
		if _, err := c.cron.AddFunc(c.tokenSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
			defer cancel()
			if n, err := CleanupTokens(ctx, c.db, c.now()); err != nil {
				c.log.Warn("token cleanup failed", zap.Error(err))
			} else if n > 0 {
				c.log.Info("expired remember tokens removed", zap.Int64("count", n))
			}
		}); err != nil {
			return fmt.Errorf("schedule token cleanup: %w", err)
		}
	}

	if c.sessions != nil {
		if _, err := c.cron.AddFunc(c.sessionSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
			defer cancel()
			if _, err := c.sessions.PurgeExpired(ctx, c.now()); err != nil {
				c.log.Warn("session sweep failed", zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("schedule session sweep: %w", err)
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the scheduler. The returned context is done once running jobs
// have finished.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every enabled job sequentially.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	var errs error
	if c.db != nil {
		if _, err := CleanupTokens(ctx, c.db, c.now()); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if c.sessions != nil {
		if _, err := c.sessions.PurgeExpired(ctx, c.now()); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("purge sessions: %w", err))
		}
	}
	return errs
}

// CleanupTokens removes remember tokens that expired before now.
func CleanupTokens(ctx context.Context, db repository.DBTX, now time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("cleanup tokens: db is required")
	}
	n, err := repository.NewTokenRepo(db).DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("cleanup tokens: %w", err)
	}
	return n, nil
}
