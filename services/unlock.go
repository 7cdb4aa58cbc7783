package services

import (
	"fmt"

	"vietlingo/models"
)

// UnlockPolicy decides whether finishing work in a topic opens the next one.
type UnlockPolicy interface {
	Name() string
	ShouldUnlockNext(rec *models.ProgressRecord, topicID int) bool
}

// ReviewLessonPolicy unlocks topic+1 once the review lesson of topic is completed.
type ReviewLessonPolicy struct{}

func (ReviewLessonPolicy) Name() string { return "review" }

func (ReviewLessonPolicy) ShouldUnlockNext(rec *models.ProgressRecord, topicID int) bool {
	return rec.IsLessonCompleted(topicID, models.ReviewLessonID) && !rec.IsTopicUnlocked(topicID+1)
}

// SequentialPolicy additionally requires every regular lesson of topic to be completed.
type SequentialPolicy struct{}

func (SequentialPolicy) Name() string { return "sequential" }

func (SequentialPolicy) ShouldUnlockNext(rec *models.ProgressRecord, topicID int) bool {
	if !(ReviewLessonPolicy{}).ShouldUnlockNext(rec, topicID) {
		return false
	}
	for lesson := 1; lesson < models.ReviewLessonID; lesson++ {
		if !rec.IsLessonCompleted(topicID, lesson) {
			return false
		}
	}
	return true
}

// PolicyByName maps the UNLOCK_POLICY setting to a policy.
func PolicyByName(name string) (UnlockPolicy, error) {
	switch name {
	case "", "review":
		return ReviewLessonPolicy{}, nil
	case "sequential":
		return SequentialPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown unlock policy %q", name)
}
