package publish

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterAllowConsumesBurst(t *testing.T) {
	l := NewLimiter()
	// one token, refilled far too slowly to matter in this test
	l.SetLimit("douyin", Limit{Requests: 1, Window: time.Hour, Burst: 1})

	require.True(t, l.Allow("douyin"))
	require.False(t, l.Allow("douyin"))
}

func TestLimiterUnconfiguredPlatformUnthrottled(t *testing.T) {
	l := NewLimiter()

	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("tencent"))
	}
	require.NoError(t, l.CheckBudget("tencent", 10000, 10000))
}

func TestLimiterBudgets(t *testing.T) {
	l := NewLimiter()
	l.SetLimit("douyin", Limit{Requests: 100, Window: time.Hour, Burst: 100, DailyLimit: 50, HourlyLimit: 10})

	require.NoError(t, l.CheckBudget("douyin", 49, 9))
	require.Error(t, l.CheckBudget("douyin", 50, 0))
	require.Error(t, l.CheckBudget("douyin", 0, 10))
}

func TestLimiterDefaultsLoaded(t *testing.T) {
	l := NewLimiter()

	limit, ok := l.GetLimit("kuaishou")
	require.True(t, ok)
	require.Equal(t, 25, limit.DailyLimit)
	require.Equal(t, 6, limit.HourlyLimit)

	_, ok = l.GetLimit("tencent")
	require.False(t, ok)
}

func TestCreateSkipsRateLimitedPlatform(t *testing.T) {
	svc, fake, _ := newTestService(t)
	limiter := NewLimiter()
	// exhausted bucket for douyin, tencent stays open
	limiter.SetLimit("douyin", Limit{Requests: 1, Window: time.Hour, Burst: 1})
	require.True(t, limiter.Allow("douyin"))
	svc.limits = limiter

	throttled := specFor(1)
	open := specFor(2)
	open.Platform = "tencent"

	tasks, err := svc.Create(context.Background(), []Spec{throttled, open})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, "tencent", tasks[0].Platform)
	require.Len(t, fake.Created(), 1)
}

func TestCreateFailsWhenEverythingRateLimited(t *testing.T) {
	svc, fake, _ := newTestService(t)
	limiter := NewLimiter()
	limiter.SetLimit("douyin", Limit{Requests: 1, Window: time.Hour, Burst: 1})
	require.True(t, limiter.Allow("douyin"))
	svc.limits = limiter

	_, err := svc.Create(context.Background(), []Spec{specFor(1), specFor(2)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "rate limit")
	require.Empty(t, fake.Created())
}

func TestCreateEnforcesDailyBudget(t *testing.T) {
	svc, _, db := newTestService(t)
	limiter := NewLimiter()
	limiter.SetLimit("douyin", Limit{Requests: 100, Window: time.Hour, Burst: 100, DailyLimit: 1})
	svc.limits = limiter

	tasks, err := svc.Create(context.Background(), []Spec{specFor(1)})
	require.NoError(t, err)

	// one success today exhausts the daily budget
	require.NoError(t, db.Model(&Task{}).Where("id = ?", tasks[0].ID).
		Update("status", StatusSuccess).Error)

	_, err = svc.Create(context.Background(), []Spec{specFor(2)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "daily")
}
