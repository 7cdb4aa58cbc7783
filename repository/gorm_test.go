package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vietlingo/models"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "repo.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	store := NewGormStore(db)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func TestGormUsers(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	user := &models.User{ID: "u-1", Fullname: "Lan", Email: "lan@example.com", Password: "hash"}
	require.NoError(t, store.Users.Create(ctx, user))

	err := store.Users.Create(ctx, &models.User{ID: "u-2", Email: "lan@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := store.Users.FindByEmail(ctx, "lan@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", found.ID)

	_, err = store.Users.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	names, err := store.Users.DisplayNames(ctx, []string{"u-1", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"u-1": "Lan"}, names)

	base := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Users.RecordLogin(ctx, &models.LoginTracking{
			LearnerID: "u-1", IPAddress: "127.0.0.1", Device: "test", Timestamp: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	history, total, err := store.Users.LoginHistory(ctx, "u-1", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, history, 2)
	assert.True(t, history[0].Timestamp.After(history[1].Timestamp))
}

func TestGormExperienceCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	require.NoError(t, store.Experience.Create(ctx, models.NewExperienceRecord("u-1")))

	first, err := store.Experience.Find(ctx, "u-1")
	require.NoError(t, err)
	second, err := store.Experience.Find(ctx, "u-1")
	require.NoError(t, err)

	first.AddPoints(1200)
	require.NoError(t, store.Experience.Save(ctx, first))
	assert.Equal(t, 1, first.Version)

	second.AddPoints(10)
	assert.ErrorIs(t, store.Experience.Save(ctx, second), ErrVersionConflict)

	stored, err := store.Experience.Find(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 1200, stored.Points)
	assert.Equal(t, 2, stored.Level)
	assert.Equal(t, "Lớp lá", stored.LevelName)

	_, err = store.Experience.Find(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormExperienceTopOrdering(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	for _, id := range []string{"c", "b", "a", "d"} {
		require.NoError(t, store.Experience.Create(ctx, models.NewExperienceRecord(id)))
	}
	points := map[string]int{"c": 100, "b": 300, "a": 100, "d": 50}
	// "c" is saved before "a", so it wins the tie on updatedAt.
	for _, id := range []string{"c", "b", "a", "d"} {
		rec, err := store.Experience.Find(ctx, id)
		require.NoError(t, err)
		rec.SetPoints(points[id])
		require.NoError(t, store.Experience.Save(ctx, rec))
		time.Sleep(5 * time.Millisecond)
	}

	top, err := store.Experience.Top(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "b", top[0].LearnerID)
	assert.Equal(t, "c", top[1].LearnerID)
	assert.Equal(t, "a", top[2].LearnerID)
}

func TestGormResetBrokenStreaks(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	today := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	longAgo := today.AddDate(0, 0, -5)

	for id, last := range map[string]time.Time{"fresh": yesterday, "stale": longAgo} {
		rec := models.NewExperienceRecord(id)
		require.NoError(t, store.Experience.Create(ctx, rec))
		rec.StreakCount = 4
		l := last
		rec.LastStreakDate = &l
		require.NoError(t, store.Experience.Save(ctx, rec))
	}

	n, err := store.Experience.ResetBrokenStreaks(ctx, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stale, err := store.Experience.Find(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, 0, stale.StreakCount)
	assert.Equal(t, 2, stale.Version)

	fresh, err := store.Experience.Find(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, 4, fresh.StreakCount)
}

func TestGormProgressRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	ts := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Progress.Create(ctx, models.NewProgressRecord("u-1", ts)))

	rec, err := store.Progress.Find(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, []int(rec.UnlockedTopics))
	assert.Empty(t, rec.CompletedLessons)

	rec.RecordLesson(1, 2, 10, ts)
	rec.RecordLesson(1, 1, 20, ts)
	rec.UnlockTopic(2)
	require.NoError(t, store.Progress.Save(ctx, rec))

	rec, err = store.Progress.Find(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, rec.CompletedLessons, 2)
	assert.Equal(t, 1, rec.CompletedLessons[0].LessonID)
	assert.Equal(t, []int{1, 2}, []int(rec.UnlockedTopics))

	rec.RecordLesson(1, 2, 5, ts)
	require.NoError(t, store.Progress.Save(ctx, rec))

	rec, err = store.Progress.Find(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, rec.CompletedLessons, 2)
	entry := rec.Lesson(1, 2)
	require.NotNil(t, entry)
	assert.Equal(t, 10, entry.Score)
	assert.Equal(t, 2, entry.Attempts)
}

func TestGormProgressVersionConflict(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	require.NoError(t, store.Progress.Create(ctx, models.NewProgressRecord("u-1", time.Now())))
	a, err := store.Progress.Find(ctx, "u-1")
	require.NoError(t, err)
	b, err := store.Progress.Find(ctx, "u-1")
	require.NoError(t, err)

	a.TotalStudyTime = 5
	require.NoError(t, store.Progress.Save(ctx, a))

	b.RecordLesson(1, 1, 10, time.Now())
	assert.ErrorIs(t, store.Progress.Save(ctx, b), ErrVersionConflict)

	stored, err := store.Progress.Find(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, stored.CompletedLessons)
	assert.Equal(t, 5, stored.TotalStudyTime)
}
