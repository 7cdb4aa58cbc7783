package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/jinzhu/now"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"vietlingo/events"
	"vietlingo/logger"
	"vietlingo/metrics"
	"vietlingo/models"
	"vietlingo/repository"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100

	leaderboardCacheKey = "leaderboard:top"
)

// Ledger owns experience records: points, derived level and the daily streak.
type Ledger struct {
	experience repository.ExperienceRepository
	users      repository.UserRepository
	opts       options

	// cacheGen counts invalidations; a snapshot built across one is not kept.
	cacheGen atomic.Uint64
}

func NewLedger(experience repository.ExperienceRepository, users repository.UserRepository, opts ...Option) *Ledger {
	return &Ledger{experience: experience, users: users, opts: buildOptions(opts)}
}

// Location is the time zone calendar days are counted in.
func (l *Ledger) Location() *time.Location {
	return l.opts.location
}

// ExperiencePatch is a partial overwrite. Level and level name are always derived from points.
type ExperiencePatch struct {
	Points           *int `json:"exp"`
	Streak           *int `json:"streak"`
	LessonsCompleted *int `json:"totalLessonsCompleted"`
	WordsLearned     *int `json:"totalWordsLearned"`
}

type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	LearnerID string `json:"userId"`
	Name      string `json:"name"`
	Points    int    `json:"points"`
	XP        string `json:"xp"`
	Level     int    `json:"level"`
	LevelName string `json:"levelName"`
	Streak    int    `json:"streak"`
}

var xpPrinter = message.NewPrinter(language.English)

// FormatXP renders points with thousands separators, e.g. "12,345 XP".
func FormatXP(points int) string {
	return xpPrinter.Sprintf("%d XP", points)
}

// Get returns the learner's record, creating the zero-state record when there is none.
func (l *Ledger) Get(ctx context.Context, learnerID string) (*models.ExperienceRecord, error) {
	rec, err := l.experience.Find(ctx, learnerID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find experience record: %w", err)
	}

	rec = models.NewExperienceRecord(learnerID)
	if err := l.experience.Create(ctx, rec); err != nil {
		// Another request created it first.
		if errors.Is(err, repository.ErrDuplicate) {
			return l.experience.Find(ctx, learnerID)
		}
		return nil, err
	}
	return rec, nil
}

// mutate runs a read-modify-write cycle on the learner's record, retrying on version conflicts.
func (l *Ledger) mutate(ctx context.Context, learnerID string, fn func(rec *models.ExperienceRecord) error) (*models.ExperienceRecord, error) {
	var rec *models.ExperienceRecord
	err := retryOnConflict(ctx, "experience", func() error {
		var err error
		rec, err = l.Get(ctx, learnerID)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		return l.experience.Save(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// AddPoints adds a positive amount and re-derives the level.
func (l *Ledger) AddPoints(ctx context.Context, learnerID string, amount int) (*models.ExperienceRecord, error) {
	return l.addPoints(ctx, learnerID, amount, false)
}

// AddPointsAndStreak adds points and advances the streak in a single write.
func (l *Ledger) AddPointsAndStreak(ctx context.Context, learnerID string, amount int) (*models.ExperienceRecord, error) {
	return l.addPoints(ctx, learnerID, amount, true)
}

func (l *Ledger) addPoints(ctx context.Context, learnerID string, amount int, streak bool) (*models.ExperienceRecord, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var levelChanged bool
	rec, err := l.mutate(ctx, learnerID, func(rec *models.ExperienceRecord) error {
		if amount > math.MaxInt-rec.Points {
			return ErrInvalidAmount
		}
		levelChanged = rec.AddPoints(amount)
		if streak {
			rec.UpdateStreak(l.opts.now(), l.opts.location)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PointsAwarded.Add(float64(amount))
	events.Emit(ctx, l.opts.publisher, events.PointsAdded, map[string]interface{}{
		"learnerId": learnerID, "amount": amount, "points": rec.Points,
	})
	if levelChanged {
		metrics.LevelUps.Inc()
		events.Emit(ctx, l.opts.publisher, events.LevelUp, map[string]interface{}{
			"learnerId": learnerID, "level": rec.Level, "levelName": rec.LevelName,
		})
	}
	l.invalidateLeaderboard(ctx)
	return rec, nil
}

// UpdateStreak records activity for today in the configured location.
func (l *Ledger) UpdateStreak(ctx context.Context, learnerID string) (*models.ExperienceRecord, error) {
	var before int
	rec, err := l.mutate(ctx, learnerID, func(rec *models.ExperienceRecord) error {
		before = rec.StreakCount
		rec.UpdateStreak(l.opts.now(), l.opts.location)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rec.StreakCount != before {
		events.Emit(ctx, l.opts.publisher, events.StreakUpdated, map[string]interface{}{
			"learnerId": learnerID, "streak": rec.StreakCount,
		})
		l.invalidateLeaderboard(ctx)
	}
	return rec, nil
}

// IncrementLessonsCompleted bumps the lifetime lesson counter.
func (l *Ledger) IncrementLessonsCompleted(ctx context.Context, learnerID string) (*models.ExperienceRecord, error) {
	return l.mutate(ctx, learnerID, func(rec *models.ExperienceRecord) error {
		rec.LessonsCompletedCount++
		return nil
	})
}

// Update applies a partial overwrite of the counters.
func (l *Ledger) Update(ctx context.Context, learnerID string, patch ExperiencePatch) (*models.ExperienceRecord, error) {
	for _, v := range []*int{patch.Points, patch.Streak, patch.LessonsCompleted, patch.WordsLearned} {
		if v != nil && *v < 0 {
			return nil, ErrInvalidPatch
		}
	}

	rec, err := l.mutate(ctx, learnerID, func(rec *models.ExperienceRecord) error {
		if patch.Points != nil {
			rec.SetPoints(*patch.Points)
		}
		if patch.Streak != nil {
			rec.StreakCount = *patch.Streak
		}
		if patch.LessonsCompleted != nil {
			rec.LessonsCompletedCount = *patch.LessonsCompleted
		}
		if patch.WordsLearned != nil {
			rec.WordsLearnedCount = *patch.WordsLearned
		}
		rec.CalculateLevel()
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.invalidateLeaderboard(ctx)
	return rec, nil
}

// Leaderboard returns the top learners by points. limit defaults to 10 and is capped at 100.
func (l *Ledger) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	var entries []LeaderboardEntry
	if l.opts.cache != nil {
		ok, err := l.opts.cache.Get(ctx, leaderboardCacheKey, &entries)
		if err != nil {
			logger.Log.Warn("leaderboard cache read failed", zap.Error(err))
		}
		if ok && err == nil {
			return truncate(entries, limit), nil
		}
	}

	gen := l.cacheGen.Load()
	entries, err := l.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if l.opts.cache != nil {
		if err := l.opts.cache.Set(ctx, leaderboardCacheKey, entries, l.opts.cacheTTL); err != nil {
			logger.Log.Warn("leaderboard cache write failed", zap.Error(err))
		}
		if l.cacheGen.Load() != gen {
			l.dropLeaderboard(ctx)
		}
	}
	return truncate(entries, limit), nil
}

func (l *Ledger) snapshot(ctx context.Context) ([]LeaderboardEntry, error) {
	recs, err := l.experience.Top(ctx, MaxLeaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.LearnerID
	}
	names := map[string]string{}
	if l.users != nil && len(ids) > 0 {
		if names, err = l.users.DisplayNames(ctx, ids); err != nil {
			return nil, fmt.Errorf("load display names: %w", err)
		}
	}

	entries := make([]LeaderboardEntry, 0, len(recs))
	for i, r := range recs {
		u := &models.User{Fullname: names[r.LearnerID]}
		entries = append(entries, LeaderboardEntry{
			Rank:      i + 1,
			LearnerID: r.LearnerID,
			Name:      u.DisplayName(),
			Points:    r.Points,
			XP:        FormatXP(r.Points),
			Level:     r.Level,
			LevelName: r.LevelName,
			Streak:    r.StreakCount,
		})
	}
	return entries, nil
}

func truncate(entries []LeaderboardEntry, limit int) []LeaderboardEntry {
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

func (l *Ledger) invalidateLeaderboard(ctx context.Context) {
	if l.opts.cache == nil {
		return
	}
	l.cacheGen.Add(1)
	l.dropLeaderboard(ctx)
}

func (l *Ledger) dropLeaderboard(ctx context.Context) {
	if err := l.opts.cache.Delete(ctx, leaderboardCacheKey); err != nil {
		logger.Log.Warn("leaderboard cache invalidation failed", zap.Error(err))
	}
}

// SweepBrokenStreaks zeroes streaks whose last active day is before yesterday.
func (l *Ledger) SweepBrokenStreaks(ctx context.Context) (int64, error) {
	cutoff := StreakCutoff(l.opts.now(), l.opts.location)
	n, err := l.experience.ResetBrokenStreaks(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reset broken streaks: %w", err)
	}
	if n > 0 {
		metrics.StreaksReset.Add(float64(n))
		l.invalidateLeaderboard(ctx)
	}
	return n, nil
}

// StreakCutoff is the start of yesterday in loc. A last streak day before it breaks the streak.
func StreakCutoff(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	today := now.With(t.In(loc)).BeginningOfDay()
	return today.AddDate(0, 0, -1).UTC()
}
