package models

import (
	"sort"
	"time"

	"gorm.io/datatypes"
)

const (
	// FirstTopicID is always unlocked.
	FirstTopicID = 1
	// ReviewLessonID is the review/story lesson of every topic.
	ReviewLessonID = 5
	// LessonsPerTopic is the fixed number of lessons in a topic.
	LessonsPerTopic = 5
)

// LessonCompletion is one (topic, lesson) entry of a learner's progress.
type LessonCompletion struct {
	LearnerID   string     `gorm:"primaryKey;type:varchar(36)" json:"-" bson:"-"`
	TopicID     int        `gorm:"primaryKey;autoIncrement:false" json:"topicId" bson:"topicId"`
	LessonID    int        `gorm:"primaryKey;autoIncrement:false" json:"lessonId" bson:"lessonId"`
	Completed   bool       `gorm:"not null;default:false" json:"completed" bson:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	Score       int        `gorm:"not null;default:0" json:"score" bson:"score"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts" bson:"attempts"`
}

// ProgressRecord tracks completed lessons, unlocked topics and the map position of a learner.
type ProgressRecord struct {
	LearnerID        string                   `gorm:"primaryKey;type:varchar(36)" json:"learnerId" bson:"_id"`
	CompletedLessons []LessonCompletion       `gorm:"foreignKey:LearnerID;references:LearnerID;constraint:OnDelete:CASCADE" json:"completedLessons" bson:"completedLessons"`
	CurrentTopic     int                      `gorm:"not null" json:"currentTopic" bson:"currentTopic"`
	CurrentLesson    int                      `gorm:"not null" json:"currentLesson" bson:"currentLesson"`
	UnlockedTopics   datatypes.JSONSlice[int] `json:"unlockedTopics" bson:"unlockedTopics"`
	LastActivity     time.Time                `json:"lastActivity" bson:"lastActivity"`
	LastStudyDate    time.Time                `json:"lastStudyDate" bson:"lastStudyDate"`
	TotalStudyTime   int                      `gorm:"not null;default:0" json:"totalStudyTime" bson:"totalStudyTime"` // minutes
	Version          int                      `gorm:"not null;default:0" json:"-" bson:"version"`
	CreatedAt        time.Time                `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time                `json:"updatedAt" bson:"updatedAt"`
}

// NewProgressRecord returns the default record: topic 1 unlocked, position (1, 1).
func NewProgressRecord(learnerID string, t time.Time) *ProgressRecord {
	return &ProgressRecord{
		LearnerID:        learnerID,
		CompletedLessons: []LessonCompletion{},
		CurrentTopic:     FirstTopicID,
		CurrentLesson:    1,
		UnlockedTopics:   datatypes.JSONSlice[int]{FirstTopicID},
		LastActivity:     t,
		LastStudyDate:    t,
	}
}

// Lesson returns the entry for (topicID, lessonID) or nil.
func (p *ProgressRecord) Lesson(topicID, lessonID int) *LessonCompletion {
	for i := range p.CompletedLessons {
		if p.CompletedLessons[i].TopicID == topicID && p.CompletedLessons[i].LessonID == lessonID {
			return &p.CompletedLessons[i]
		}
	}
	return nil
}

// IsLessonCompleted reports whether (topicID, lessonID) is recorded as completed.
func (p *ProgressRecord) IsLessonCompleted(topicID, lessonID int) bool {
	l := p.Lesson(topicID, lessonID)
	return l != nil && l.Completed
}

// RecordLesson upserts the completion of (topicID, lessonID). An existing entry keeps the
// best score and gains one attempt; it never produces a duplicate entry. The return value is
// true when the lesson was not completed before this call.
func (p *ProgressRecord) RecordLesson(topicID, lessonID, score int, t time.Time) bool {
	if score < 0 {
		score = 0
	}
	wasCompleted := p.IsLessonCompleted(topicID, lessonID)

	if l := p.Lesson(topicID, lessonID); l != nil {
		l.Completed = true
		l.CompletedAt = &t
		if score > l.Score {
			l.Score = score
		}
		l.Attempts++
	} else {
		p.CompletedLessons = append(p.CompletedLessons, LessonCompletion{
			LearnerID:   p.LearnerID,
			TopicID:     topicID,
			LessonID:    lessonID,
			Completed:   true,
			CompletedAt: &t,
			Score:       score,
			Attempts:    1,
		})
	}

	p.LastActivity = t
	p.LastStudyDate = t
	return !wasCompleted
}

// AdvancePosition moves the current position to (topicID, lessonID) when it is further along.
func (p *ProgressRecord) AdvancePosition(topicID, lessonID int) bool {
	if topicID > p.CurrentTopic || (topicID == p.CurrentTopic && lessonID > p.CurrentLesson) {
		p.CurrentTopic = topicID
		p.CurrentLesson = lessonID
		return true
	}
	return false
}

// IsTopicUnlocked reports whether topicID is in the unlocked set.
func (p *ProgressRecord) IsTopicUnlocked(topicID int) bool {
	for _, t := range p.UnlockedTopics {
		if t == topicID {
			return true
		}
	}
	return false
}

// UnlockTopic adds topicID to the unlocked set, keeping it sorted and free of duplicates.
func (p *ProgressRecord) UnlockTopic(topicID int) bool {
	if p.IsTopicUnlocked(topicID) {
		return false
	}
	p.UnlockedTopics = append(p.UnlockedTopics, topicID)
	sort.Ints(p.UnlockedTopics)
	return true
}

// CompletedInTopic counts completed lessons of topicID.
func (p *ProgressRecord) CompletedInTopic(topicID int) int {
	n := 0
	for _, l := range p.CompletedLessons {
		if l.TopicID == topicID && l.Completed {
			n++
		}
	}
	return n
}

// Normalize restores the structural invariants after loading from storage: topic 1 is
// unlocked, the unlocked set is sorted and unique, and the position is at least (1, 1).
func (p *ProgressRecord) Normalize() {
	seen := make(map[int]bool, len(p.UnlockedTopics)+1)
	topics := make([]int, 0, len(p.UnlockedTopics)+1)
	for _, t := range append([]int{FirstTopicID}, p.UnlockedTopics...) {
		if t < FirstTopicID || seen[t] {
			continue
		}
		seen[t] = true
		topics = append(topics, t)
	}
	sort.Ints(topics)
	p.UnlockedTopics = topics

	if p.CompletedLessons == nil {
		p.CompletedLessons = []LessonCompletion{}
	}
	if p.CurrentTopic < FirstTopicID {
		p.CurrentTopic = FirstTopicID
	}
	if p.CurrentLesson < 1 {
		p.CurrentLesson = 1
	}
}
