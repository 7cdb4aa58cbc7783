package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"vietlingo/curriculum"
	"vietlingo/events"
	"vietlingo/logger"
	"vietlingo/metrics"
	"vietlingo/models"
	"vietlingo/repository"
)

// Tracker owns progress records: completed lessons, unlocked topics and map position.
type Tracker struct {
	progress   repository.ProgressRepository
	ledger     *Ledger
	curriculum *curriculum.Curriculum
	opts       options
}

// NewTracker builds a tracker. ledger may be nil, in which case lesson counters are not
// maintained; cur may be nil, in which case only the fixed lesson range is checked.
func NewTracker(progress repository.ProgressRepository, ledger *Ledger, cur *curriculum.Curriculum, opts ...Option) *Tracker {
	return &Tracker{progress: progress, ledger: ledger, curriculum: cur, opts: buildOptions(opts)}
}

// CompletionResult reports what a recorded completion changed.
type CompletionResult struct {
	Record        *models.ProgressRecord `json:"progress"`
	NewCompletion bool                   `json:"newCompletion"`
	// UnlockedTopic is the topic opened by this completion, or 0.
	UnlockedTopic int `json:"unlockedTopic"`
}

type TopicProgress struct {
	TopicID          int `json:"topicId"`
	CompletedLessons int `json:"completedLessons"`
	TotalLessons     int `json:"totalLessons"`
	Percent          int `json:"progress"`
}

// ProgressPatch is a partial overwrite. CurrentTopic and CurrentLesson go together and only
// move the position forward.
type ProgressPatch struct {
	TotalStudyTime *int `json:"totalStudyTime"`
	CurrentTopic   *int `json:"currentTopic"`
	CurrentLesson  *int `json:"currentLesson"`
}

func (t *Tracker) validateTopic(topicID int) error {
	if topicID < models.FirstTopicID {
		return ErrInvalidTopic
	}
	if t.curriculum != nil {
		if _, ok := t.curriculum.Topic(topicID); !ok {
			return ErrInvalidTopic
		}
	}
	return nil
}

// hasTopic reports whether topicID can be studied. Without a curriculum any topic can.
func (t *Tracker) hasTopic(topicID int) bool {
	return t.validateTopic(topicID) == nil
}

func (t *Tracker) validateLesson(topicID, lessonID int) error {
	total := models.LessonsPerTopic
	if t.curriculum != nil {
		total = t.curriculum.TotalLessons(topicID)
	}
	if lessonID < 1 || lessonID > total {
		return ErrInvalidLesson
	}
	return nil
}

// Get returns the learner's record, creating the default record when there is none.
func (t *Tracker) Get(ctx context.Context, learnerID string) (*models.ProgressRecord, error) {
	rec, err := t.progress.Find(ctx, learnerID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find progress record: %w", err)
	}

	rec = models.NewProgressRecord(learnerID, t.opts.now())
	if err := t.progress.Create(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return t.progress.Find(ctx, learnerID)
		}
		return nil, err
	}
	return rec, nil
}

// RecordLessonCompletion upserts the completion, advances the position and applies the
// unlock policy. Recording the same lesson again never duplicates the entry.
func (t *Tracker) RecordLessonCompletion(ctx context.Context, learnerID string, topicID, lessonID, score int) (*CompletionResult, error) {
	if err := t.validateTopic(topicID); err != nil {
		return nil, err
	}
	if err := t.validateLesson(topicID, lessonID); err != nil {
		return nil, err
	}
	if score < 0 {
		return nil, ErrInvalidScore
	}

	var result CompletionResult
	err := retryOnConflict(ctx, "progress", func() error {
		rec, err := t.Get(ctx, learnerID)
		if err != nil {
			return err
		}

		ts := t.opts.now()
		result = CompletionResult{Record: rec}
		result.NewCompletion = rec.RecordLesson(topicID, lessonID, score, ts)
		rec.AdvancePosition(topicID, lessonID)
		if t.hasTopic(topicID+1) && t.opts.policy.ShouldUnlockNext(rec, topicID) && rec.UnlockTopic(topicID+1) {
			result.UnlockedTopic = topicID + 1
		}
		return t.progress.Save(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	kind := "repeat"
	if result.NewCompletion {
		kind = "new"
		if t.ledger != nil {
			if _, err := t.ledger.IncrementLessonsCompleted(ctx, learnerID); err != nil {
				logger.Log.Warn("update lessons completed counter failed",
					zap.String("learnerId", learnerID), zap.Error(err))
			}
		}
	}
	metrics.LessonCompletions.WithLabelValues(kind).Inc()
	events.Emit(ctx, t.opts.publisher, events.LessonCompleted, map[string]interface{}{
		"learnerId": learnerID, "topicId": topicID, "lessonId": lessonID,
		"score": score, "newCompletion": result.NewCompletion,
	})
	if result.UnlockedTopic != 0 {
		metrics.TopicUnlocks.Inc()
		events.Emit(ctx, t.opts.publisher, events.TopicUnlocked, map[string]interface{}{
			"learnerId": learnerID, "topicId": result.UnlockedTopic,
		})
	}
	return &result, nil
}

// IsLessonCompleted is a read-only lookup. A learner without a record has completed nothing.
func (t *Tracker) IsLessonCompleted(ctx context.Context, learnerID string, topicID, lessonID int) (bool, error) {
	rec, err := t.progress.Find(ctx, learnerID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.IsLessonCompleted(topicID, lessonID), nil
}

// TopicProgress counts completed lessons of topicID. It does not create a record.
func (t *Tracker) TopicProgress(ctx context.Context, learnerID string, topicID int) (*TopicProgress, error) {
	if err := t.validateTopic(topicID); err != nil {
		return nil, err
	}
	total := models.LessonsPerTopic
	if t.curriculum != nil {
		total = t.curriculum.TotalLessons(topicID)
	}
	out := &TopicProgress{TopicID: topicID, TotalLessons: total}

	rec, err := t.progress.Find(ctx, learnerID)
	if errors.Is(err, repository.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	out.CompletedLessons = rec.CompletedInTopic(topicID)
	if total > 0 {
		out.Percent = out.CompletedLessons * 100 / total
	}
	return out, nil
}

// Update applies a partial overwrite. Completed lessons and unlocked topics only change
// through RecordLessonCompletion.
func (t *Tracker) Update(ctx context.Context, learnerID string, patch ProgressPatch) (*models.ProgressRecord, error) {
	if patch.TotalStudyTime != nil && *patch.TotalStudyTime < 0 {
		return nil, ErrInvalidPatch
	}
	if (patch.CurrentTopic == nil) != (patch.CurrentLesson == nil) {
		return nil, ErrInvalidPatch
	}
	if patch.CurrentTopic != nil {
		if err := t.validateTopic(*patch.CurrentTopic); err != nil {
			return nil, err
		}
		if err := t.validateLesson(*patch.CurrentTopic, *patch.CurrentLesson); err != nil {
			return nil, err
		}
	}

	var rec *models.ProgressRecord
	err := retryOnConflict(ctx, "progress", func() error {
		var err error
		rec, err = t.Get(ctx, learnerID)
		if err != nil {
			return err
		}
		if patch.TotalStudyTime != nil {
			rec.TotalStudyTime = *patch.TotalStudyTime
		}
		if patch.CurrentTopic != nil {
			rec.AdvancePosition(*patch.CurrentTopic, *patch.CurrentLesson)
		}
		rec.LastActivity = t.opts.now()
		return t.progress.Save(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}
