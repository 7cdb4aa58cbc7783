package services

import (
	"context"
	"errors"
	"time"

	"vietlingo/cache"
	"vietlingo/events"
	"vietlingo/metrics"
	"vietlingo/repository"
)

// maxSaveAttempts bounds the read-modify-write retries after a version conflict.
const maxSaveAttempts = 3

type options struct {
	clock     func() time.Time
	location  *time.Location
	publisher events.Publisher
	cache     cache.Cache
	cacheTTL  time.Duration
	policy    UnlockPolicy
}

type Option func(*options)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// WithLocation sets the time zone calendar days are counted in.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.location = loc }
}

func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithLeaderboardCache serves leaderboard reads from c for ttl. A ttl <= 0 disables caching.
func WithLeaderboardCache(c cache.Cache, ttl time.Duration) Option {
	return func(o *options) {
		if ttl <= 0 {
			o.cache = nil
			return
		}
		o.cache = c
		o.cacheTTL = ttl
	}
}

func WithUnlockPolicy(p UnlockPolicy) Option {
	return func(o *options) { o.policy = p }
}

func buildOptions(opts []Option) options {
	o := options{
		clock:     time.Now,
		location:  time.Local,
		publisher: events.Nop{},
		policy:    ReviewLessonPolicy{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) now() time.Time {
	return o.clock().UTC()
}

// retryOnConflict reruns fn while it fails with a version conflict, at most maxSaveAttempts times.
func retryOnConflict(ctx context.Context, record string, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = fn(); !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
		metrics.VersionConflicts.WithLabelValues(record).Inc()
	}
	return err
}
