package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vietlingo/models"
	"vietlingo/repository"
)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "services.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	store := repository.NewGormStore(db)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

// fakeClock is a settable clock for streak and lockout tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// conflictingProgress fails the first n saves with a version conflict after letting a
// competing writer bump the stored version.
type conflictingProgress struct {
	repository.ProgressRepository
	remaining int
	saves     int
}

func (c *conflictingProgress) Save(ctx context.Context, rec *models.ProgressRecord) error {
	c.saves++
	if c.remaining > 0 {
		c.remaining--
		other, err := c.ProgressRepository.Find(ctx, rec.LearnerID)
		if err != nil {
			return err
		}
		other.TotalStudyTime += 7
		if err := c.ProgressRepository.Save(ctx, other); err != nil {
			return err
		}
	}
	return c.ProgressRepository.Save(ctx, rec)
}

type failingExperience struct {
	repository.ExperienceRepository
}

func (failingExperience) Find(context.Context, string) (*models.ExperienceRecord, error) {
	return nil, repository.ErrNotFound
}

func (failingExperience) Create(context.Context, *models.ExperienceRecord) error {
	return errStoreDown
}
