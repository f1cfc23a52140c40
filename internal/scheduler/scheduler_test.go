package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	authdomain "github.com/agrilink/agrilink/internal/auth/domain"
	"github.com/agrilink/agrilink/internal/clock"
	obsmetrics "github.com/agrilink/agrilink/internal/observability/metrics"
	"github.com/agrilink/agrilink/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestScheduler(t *testing.T, cfg Config) (*Scheduler, *gorm.DB, *clock.FakeClock) {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&authdomain.Session{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))

	s, err := New(Params{DB: conn, Log: zap.NewNop(), GenID: node, Clock: fake, Config: cfg, Metrics: obsmetrics.NewNoop()})
	require.NoError(t, err)
	return s, conn, fake
}

func seedSessions(t *testing.T, conn *gorm.DB, node *snowflake.Node, expiresAt time.Time, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		id := node.Generate()
		require.NoError(t, conn.Create(&authdomain.Session{
			ID:               id,
			UserID:           1,
			RefreshTokenHash: "hash-" + id.String(),
			ExpiresAt:        expiresAt,
			CreatedAt:        expiresAt.Add(-time.Hour),
		}).Error)
	}
}

func TestExpireSessionsDeletesOnlyExpired(t *testing.T) {
	s, conn, fake := newTestScheduler(t, Config{BatchSize: 2})

	seedSessions(t, conn, s.genID, fake.Now().Add(-time.Hour), 5)
	seedSessions(t, conn, s.genID, fake.Now().Add(time.Hour), 3)

	require.NoError(t, s.RunOnce(context.Background()))

	var remaining int64
	require.NoError(t, conn.Model(&authdomain.Session{}).Count(&remaining).Error)
	assert.EqualValues(t, 3, remaining)

	var expired int64
	require.NoError(t, conn.Model(&authdomain.Session{}).Where("expires_at < ?", fake.Now()).Count(&expired).Error)
	assert.Zero(t, expired)
}

func TestExpireSessionsFollowsClock(t *testing.T) {
	s, conn, fake := newTestScheduler(t, Config{})
	seedSessions(t, conn, s.genID, fake.Now().Add(time.Hour), 2)

	require.NoError(t, s.RunOnce(context.Background()))
	var n int64
	require.NoError(t, conn.Model(&authdomain.Session{}).Count(&n).Error)
	assert.EqualValues(t, 2, n)

	fake.Advance(2 * time.Hour)
	require.NoError(t, s.RunOnce(context.Background()))
	require.NoError(t, conn.Model(&authdomain.Session{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestDisabledJobIsSkipped(t *testing.T) {
	s, conn, fake := newTestScheduler(t, Config{EnabledJobs: []string{"something_else"}})
	seedSessions(t, conn, s.genID, fake.Now().Add(-time.Hour), 1)

	require.NoError(t, s.RunOnce(context.Background()))
	var n int64
	require.NoError(t, conn.Model(&authdomain.Session{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestRunJobTimeoutIsSoft(t *testing.T) {
	s, _, _ := newTestScheduler(t, Config{})

	err := s.runJob(context.Background(), "timeout_job", 0, 5*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.NoError(t, err)
}

func TestRunJobWrapsErrors(t *testing.T) {
	s, _, _ := newTestScheduler(t, Config{})
	boom := errors.New("boom")

	err := s.runJob(context.Background(), "failing_job", 0, time.Second, func(context.Context) error {
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failing_job")
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
