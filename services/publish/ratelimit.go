package publish

import (
	"fmt"
	"sync"
	"time"

	"crosspost/pkg/errutil"

	"golang.org/x/time/rate"
)

// Limit is one platform's creation budget: a token bucket over Window plus
// hard daily and hourly caps on successful publishes. Zero caps are
// unbounded.
type Limit struct {
	Requests    int           `json:"requests"`
	Window      time.Duration `json:"window"`
	Burst       int           `json:"burst"`
	DailyLimit  int           `json:"dailyLimit"`
	HourlyLimit int           `json:"hourlyLimit"`
}

// defaultLimits carries the known per-platform publish budgets. Platforms
// absent from the map (tencent) are unthrottled.
var defaultLimits = map[string]Limit{
	"douyin":      {Requests: 10, Window: time.Hour, Burst: 3, DailyLimit: 50, HourlyLimit: 10},
	"bilibili":    {Requests: 8, Window: time.Hour, Burst: 2, DailyLimit: 30, HourlyLimit: 8},
	"tiktok":      {Requests: 8, Window: time.Hour, Burst: 2, DailyLimit: 30, HourlyLimit: 8},
	"kuaishou":    {Requests: 6, Window: time.Hour, Burst: 2, DailyLimit: 25, HourlyLimit: 6},
	"xiaohongshu": {Requests: 5, Window: time.Hour, Burst: 2, DailyLimit: 20, HourlyLimit: 5},
	"baijiahao":   {Requests: 5, Window: time.Hour, Burst: 2, DailyLimit: 20, HourlyLimit: 5},
}

// Limiter throttles task creation per platform.
type Limiter struct {
	mu      sync.RWMutex
	limits  map[string]Limit
	buckets map[string]*rate.Limiter
}

func NewLimiter() *Limiter {
	l := &Limiter{
		limits:  make(map[string]Limit),
		buckets: make(map[string]*rate.Limiter),
	}
	for platform, limit := range defaultLimits {
		l.SetLimit(platform, limit)
	}
	return l
}

// SetLimit installs or replaces a platform budget, resetting its bucket.
func (l *Limiter) SetLimit(platform string, limit Limit) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limits[platform] = limit
	l.buckets[platform] = rate.NewLimiter(
		rate.Every(limit.Window/time.Duration(limit.Requests)),
		limit.Burst,
	)
}

// Allow consumes one token for the platform. Platforms without a configured
// budget are always allowed.
func (l *Limiter) Allow(platform string) bool {
	l.mu.RLock()
	bucket, ok := l.buckets[platform]
	l.mu.RUnlock()
	if !ok {
		return true
	}
	return bucket.Allow()
}

// GetLimit returns the platform's budget, if one is configured.
func (l *Limiter) GetLimit(platform string) (Limit, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	limit, ok := l.limits[platform]
	return limit, ok
}

// CheckBudget validates the observed success counts against the platform's
// daily and hourly caps.
func (l *Limiter) CheckBudget(platform string, dailyCount, hourlyCount int) error {
	limit, ok := l.GetLimit(platform)
	if !ok {
		return nil
	}

	if limit.DailyLimit > 0 && dailyCount >= limit.DailyLimit {
		return errutil.TooManyRequests(fmt.Sprintf("platform %s reached its daily publish limit (%d)", platform, limit.DailyLimit))
	}
	if limit.HourlyLimit > 0 && hourlyCount >= limit.HourlyLimit {
		return errutil.TooManyRequests(fmt.Sprintf("platform %s reached its hourly publish limit (%d)", platform, limit.HourlyLimit))
	}
	return nil
}
