package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func TestNewProgressRecordDefaults(t *testing.T) {
	p := NewProgressRecord("l1", testNow)

	assert.Equal(t, []int{1}, []int(p.UnlockedTopics))
	assert.Equal(t, 1, p.CurrentTopic)
	assert.Equal(t, 1, p.CurrentLesson)
	assert.Empty(t, p.CompletedLessons)
}

func TestRecordLessonKeepsBestScore(t *testing.T) {
	p := NewProgressRecord("l1", testNow)

	assert.True(t, p.RecordLesson(1, 1, 10, testNow))
	assert.False(t, p.RecordLesson(1, 1, 5, testNow.Add(time.Minute)))

	require.Len(t, p.CompletedLessons, 1)
	l := p.CompletedLessons[0]
	assert.Equal(t, 10, l.Score)
	assert.Equal(t, 2, l.Attempts)
	assert.True(t, l.Completed)
	assert.True(t, l.CompletedAt.Equal(testNow.Add(time.Minute)))
}

func TestRecordLessonCompletesExistingIncompleteEntry(t *testing.T) {
	p := NewProgressRecord("l1", testNow)
	p.CompletedLessons = append(p.CompletedLessons, LessonCompletion{TopicID: 2, LessonID: 3, Score: 7})

	assert.True(t, p.RecordLesson(2, 3, 4, testNow))
	require.Len(t, p.CompletedLessons, 1)
	assert.Equal(t, 7, p.CompletedLessons[0].Score)
	assert.Equal(t, 1, p.CompletedLessons[0].Attempts)
}

func TestIsLessonCompleted(t *testing.T) {
	p := NewProgressRecord("l1", testNow)
	assert.False(t, p.IsLessonCompleted(3, 2))

	p.RecordLesson(3, 2, 0, testNow)
	assert.True(t, p.IsLessonCompleted(3, 2))
	assert.False(t, p.IsLessonCompleted(2, 3))
}

func TestAdvancePosition(t *testing.T) {
	p := NewProgressRecord("l1", testNow)

	assert.True(t, p.AdvancePosition(1, 3))
	assert.False(t, p.AdvancePosition(1, 2))
	assert.True(t, p.AdvancePosition(2, 1))
	assert.False(t, p.AdvancePosition(1, 5))
	assert.Equal(t, 2, p.CurrentTopic)
	assert.Equal(t, 1, p.CurrentLesson)
}

func TestUnlockTopicSortedAndUnique(t *testing.T) {
	p := NewProgressRecord("l1", testNow)

	assert.True(t, p.UnlockTopic(4))
	assert.True(t, p.UnlockTopic(2))
	assert.False(t, p.UnlockTopic(2))
	assert.Equal(t, []int{1, 2, 4}, []int(p.UnlockedTopics))
}

func TestNormalize(t *testing.T) {
	p := &ProgressRecord{LearnerID: "l1", UnlockedTopics: []int{3, 3, 0, 2}}
	p.Normalize()

	assert.Equal(t, []int{1, 2, 3}, []int(p.UnlockedTopics))
	assert.Equal(t, 1, p.CurrentTopic)
	assert.Equal(t, 1, p.CurrentLesson)
	assert.NotNil(t, p.CompletedLessons)
}

func TestCompletedInTopic(t *testing.T) {
	p := NewProgressRecord("l1", testNow)
	for lesson := 1; lesson <= 3; lesson++ {
		p.RecordLesson(1, lesson, 10, testNow)
	}
	p.RecordLesson(2, 1, 10, testNow)

	assert.Equal(t, 3, p.CompletedInTopic(1))
	assert.Equal(t, 1, p.CompletedInTopic(2))
	assert.Equal(t, 0, p.CompletedInTopic(3))
}
