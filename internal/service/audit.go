// Package service holds the session lifecycle sequences (login, remember
// restore, logout) and the audit logger they write through.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/session-auth/internal/logger"
	"github.com/iliyamo/session-auth/internal/queue"
	"github.com/iliyamo/session-auth/internal/repository"
)

// EventPublisher forwards activity events to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, event queue.ActivityEvent) error
}

// AuditLogger appends activity records. Ids come from the database, so
// concurrent appends never collide.
type AuditLogger struct {
	publisher      EventPublisher
	publishTimeout time.Duration
	now            func() time.Time
	log            *zap.Logger
}

// NewAuditLogger returns an AuditLogger. publisher may be nil.
func NewAuditLogger(publisher EventPublisher) *AuditLogger {
	return &AuditLogger{
		publisher:      publisher,
		publishTimeout: 5 * time.Second,
		now:            time.Now,
		log:            logger.WithModule("audit"),
	}
}

// Append writes one activity row through db and returns its id. A
// successful write is then published asynchronously; publish errors are
// only logged.
func (a *AuditLogger) Append(ctx context.Context, db repository.DBTX, userID uint64, action, ip string) (uint64, error) {
	id, err := repository.NewActivityRepo(db).Append(ctx, userID, action, ip)
	if err != nil {
		return 0, err
	}
	if a.publisher != nil {
		ev := queue.ActivityEvent{
			ID:         id,
			UserID:     userID,
			Action:     action,
			IPAddress:  ip,
			OccurredAt: a.now().UTC().Format(time.RFC3339),
		}
		go a.publish(ev)
	}
	return id, nil
}

func (a *AuditLogger) publish(ev queue.ActivityEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), a.publishTimeout)
	defer cancel()
	if err := a.publisher.Publish(ctx, ev); err != nil {
		a.log.Warn("publish activity event failed",
			zap.Uint64("activity_id", ev.ID), zap.String("action", ev.Action), zap.Error(err))
	}
}
