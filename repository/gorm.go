package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vietlingo/models"
)

// Migrate creates or updates the SQL schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.LoginTracking{},
		&models.ExperienceRecord{},
		&models.ProgressRecord{},
		&models.LessonCompletion{},
	)
}

// NewGormStore wires the GORM repositories to db. The connection should be opened with
// TranslateError enabled so unique violations surface as ErrDuplicate.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:      &gormUsers{db: db},
		Experience: &gormExperience{db: db},
		Progress:   &gormProgress{db: db},
		closer: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

type gormUsers struct {
	db *gorm.DB
}

func (r *gormUsers) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (r *gormUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *gormUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *gormUsers) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("update user: %w", translate(err))
	}
	return nil
}

func (r *gormUsers) DisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Select("id", "fullname").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		names[u.ID] = u.Fullname
	}
	return names, nil
}

func (r *gormUsers) RecordLogin(ctx context.Context, entry *models.LoginTracking) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *gormUsers) LoginHistory(ctx context.Context, learnerID string, offset, limit int) ([]models.LoginTracking, int64, error) {
	var (
		entries []models.LoginTracking
		total   int64
	)
	db := r.db.WithContext(ctx)
	if err := db.Where("learner_id = ?", learnerID).
		Order("timestamp DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Model(&models.LoginTracking{}).Where("learner_id = ?", learnerID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

type gormExperience struct {
	db *gorm.DB
}

func (r *gormExperience) Find(ctx context.Context, learnerID string) (*models.ExperienceRecord, error) {
	var rec models.ExperienceRecord
	if err := r.db.WithContext(ctx).Where("learner_id = ?", learnerID).First(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (r *gormExperience) Create(ctx context.Context, rec *models.ExperienceRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create experience record: %w", translate(err))
	}
	return nil
}

func (r *gormExperience) Save(ctx context.Context, rec *models.ExperienceRecord) error {
	updatedAt := time.Now()
	res := r.db.WithContext(ctx).Model(&models.ExperienceRecord{}).
		Where("learner_id = ? AND version = ?", rec.LearnerID, rec.Version).
		Updates(map[string]interface{}{
			"points":                  rec.Points,
			"level":                   rec.Level,
			"level_name":              rec.LevelName,
			"streak_count":            rec.StreakCount,
			"last_streak_date":        rec.LastStreakDate,
			"lessons_completed_count": rec.LessonsCompletedCount,
			"words_learned_count":     rec.WordsLearnedCount,
			"version":                 rec.Version + 1,
			"updated_at":              updatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("save experience record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	rec.Version++
	rec.UpdatedAt = updatedAt
	return nil
}

func (r *gormExperience) Top(ctx context.Context, limit int) ([]models.ExperienceRecord, error) {
	var recs []models.ExperienceRecord
	err := r.db.WithContext(ctx).
		Order("points DESC").Order("updated_at ASC").Order("learner_id ASC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *gormExperience) ResetBrokenStreaks(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.ExperienceRecord{}).
		Where("streak_count > 0 AND (last_streak_date IS NULL OR last_streak_date < ?)", cutoff).
		Updates(map[string]interface{}{
			"streak_count": 0,
			"version":      gorm.Expr("version + 1"),
			"updated_at":   time.Now(),
		})
	return res.RowsAffected, res.Error
}

type gormProgress struct {
	db *gorm.DB
}

func (r *gormProgress) Find(ctx context.Context, learnerID string) (*models.ProgressRecord, error) {
	var rec models.ProgressRecord
	err := r.db.WithContext(ctx).
		Preload("CompletedLessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("topic_id ASC").Order("lesson_id ASC")
		}).
		Where("learner_id = ?", learnerID).
		First(&rec).Error
	if err != nil {
		return nil, translate(err)
	}
	rec.Normalize()
	return &rec, nil
}

func (r *gormProgress) Create(ctx context.Context, rec *models.ProgressRecord) error {
	for i := range rec.CompletedLessons {
		rec.CompletedLessons[i].LearnerID = rec.LearnerID
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create progress record: %w", translate(err))
	}
	return nil
}

func (r *gormProgress) Save(ctx context.Context, rec *models.ProgressRecord) error {
	updatedAt := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ProgressRecord{}).
			Where("learner_id = ? AND version = ?", rec.LearnerID, rec.Version).
			Updates(map[string]interface{}{
				"current_topic":    rec.CurrentTopic,
				"current_lesson":   rec.CurrentLesson,
				"unlocked_topics":  rec.UnlockedTopics,
				"last_activity":    rec.LastActivity,
				"last_study_date":  rec.LastStudyDate,
				"total_study_time": rec.TotalStudyTime,
				"version":          rec.Version + 1,
				"updated_at":       updatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}

		if len(rec.CompletedLessons) == 0 {
			return nil
		}
		for i := range rec.CompletedLessons {
			rec.CompletedLessons[i].LearnerID = rec.LearnerID
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "learner_id"}, {Name: "topic_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"completed", "completed_at", "score", "attempts",
			}),
		}).Create(&rec.CompletedLessons).Error
	})
	if errors.Is(err, ErrVersionConflict) {
		return err
	}
	if err != nil {
		return fmt.Errorf("save progress record: %w", err)
	}
	rec.Version++
	rec.UpdatedAt = updatedAt
	return nil
}
