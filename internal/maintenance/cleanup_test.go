package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/session-auth/internal/database/testutil"
	"github.com/iliyamo/session-auth/internal/repository"
	"github.com/iliyamo/session-auth/internal/session"
)

func TestCleanupTokens(t *testing.T) {
	db := testutil.MustOpenDB(t)
	now := time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)
	tokens := repository.NewTokenRepo(db)
	ctx := context.Background()

	require.NoError(t, tokens.Store(ctx, 1, "expired", now.Add(-time.Hour)))
	require.NoError(t, tokens.Store(ctx, 1, "active", now.Add(time.Hour)))
	require.NoError(t, tokens.Store(ctx, 2, "expired-2", now.Add(-48*time.Hour)))

	n, err := CleanupTokens(ctx, db, now)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	var remaining int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM remember_tokens").Scan(&remaining))
	require.Equal(t, 1, remaining)

	uid, err := tokens.UserIDByHash(ctx, "active", now)
	require.NoError(t, err)
	require.Equal(t, uint64(1), uid)
}

func TestCleanupTokensRequiresDB(t *testing.T) {
	_, err := CleanupTokens(context.Background(), nil, time.Now())
	require.Error(t, err)
}

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenDB(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, repository.NewTokenRepo(db).Store(ctx, 3, "old", now.Add(-time.Minute)))

	store := session.NewMemoryStore(time.Minute)
	require.NoError(t, store.Save(ctx, "tok", session.State{}))

	cleaner := NewCleaner(db,
		WithSessionPurger(store),
		WithNow(func() time.Time { return now.Add(time.Hour) }),
	)
	require.NoError(t, cleaner.RunOnce(ctx))

	var remaining int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM remember_tokens").Scan(&remaining))
	require.Zero(t, remaining)
	require.Zero(t, store.Len())
}

type failingPurger struct{}

func (failingPurger) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, errors.New("boom")
}

func TestCleanerRunOnceAggregatesErrors(t *testing.T) {
	db := testutil.MustOpenDB(t)
	_, err := db.Exec("DROP TABLE remember_tokens")
	require.NoError(t, err)

	err = NewCleaner(db, WithSessionPurger(failingPurger{})).RunOnce(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "cleanup tokens")
	require.Contains(t, err.Error(), "purge sessions")
}

func TestCleanerStartRejectsBadSchedule(t *testing.T) {
	db := testutil.MustOpenDB(t)
	c := NewCleaner(db, WithTokenSchedule("not a schedule"))
	require.Error(t, c.Start())
}

func TestCleanerStartStop(t *testing.T) {
	db := testutil.MustOpenDB(t)
	sched := cron.New(cron.WithLogger(cron.DiscardLogger))
	c := NewCleaner(db, WithCron(sched), WithSessionPurger(session.NewMemoryStore(time.Minute)))
	require.NoError(t, c.Start())
	require.Len(t, sched.Entries(), 2)

	select {
	case <-c.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("cleaner did not stop")
	}
}

func TestCleanerWithoutJobsIsNoop(t *testing.T) {
	c := NewCleaner(nil)
	require.NoError(t, c.Start())
	require.NoError(t, c.RunOnce(context.Background()))
}
