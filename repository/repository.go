// Package repository persists learners, experience records and progress records.
//
// Two backends exist: GORM (postgres, mysql, sqlite) and MongoDB. Experience and progress
// writes are compare-and-swap on the record version; callers retry on ErrVersionConflict.
package repository

import (
	"context"
	"errors"
	"time"

	"vietlingo/models"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("record already exists")
	ErrVersionConflict = errors.New("record was modified concurrently")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	// DisplayNames maps learner ids to full names. Unknown ids are absent from the result.
	DisplayNames(ctx context.Context, ids []string) (map[string]string, error)
	RecordLogin(ctx context.Context, entry *models.LoginTracking) error
	// LoginHistory pages through a learner's logins, newest first, and returns the total count.
	LoginHistory(ctx context.Context, learnerID string, offset, limit int) ([]models.LoginTracking, int64, error)
}

type ExperienceRepository interface {
	Find(ctx context.Context, learnerID string) (*models.ExperienceRecord, error)
	Create(ctx context.Context, rec *models.ExperienceRecord) error
	// Save writes rec when the stored version still equals rec.Version and bumps it.
	Save(ctx context.Context, rec *models.ExperienceRecord) error
	// Top orders by points desc, then updatedAt asc, then learnerId asc.
	Top(ctx context.Context, limit int) ([]models.ExperienceRecord, error)
	// ResetBrokenStreaks zeroes positive streaks whose last streak date is before cutoff.
	ResetBrokenStreaks(ctx context.Context, cutoff time.Time) (int64, error)
}

type ProgressRepository interface {
	Find(ctx context.Context, learnerID string) (*models.ProgressRecord, error)
	Create(ctx context.Context, rec *models.ProgressRecord) error
	// Save writes rec and upserts its lesson completions when the stored version still
	// equals rec.Version and bumps it.
	Save(ctx context.Context, rec *models.ProgressRecord) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Users      UserRepository
	Experience ExperienceRepository
	Progress   ProgressRepository

	closer func(ctx context.Context) error
}

// Close releases the underlying connection, if the backend owns one.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer(ctx)
}
