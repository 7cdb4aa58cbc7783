package models

import (
	"time"

	"github.com/jinzhu/now"
)

// PointsPerLevel is the amount of experience between two consecutive levels.
const PointsPerLevel = 1000

// LevelNames is indexed by level-1. Levels past the end keep the last label.
var LevelNames = []string{
	"Mầm non",
	"Lớp lá",
	"Lớp 1",
	"Lớp 2",
	"Lớp 3",
	"Lớp 4",
	"Lớp 5",
	"Lớp 6",
	"Lớp 7",
	"Lớp 8",
	"Lớp 9",
	"Lớp 10",
	"Lớp 11",
	"Lớp 12",
	"Đại học",
}

// ExperienceRecord holds experience points, the derived level and the daily streak of a learner.
type ExperienceRecord struct {
	LearnerID             string     `gorm:"primaryKey;type:varchar(36)" json:"learnerId" bson:"_id"`
	Points                int        `gorm:"index;not null;default:0" json:"points" bson:"points"`
	Level                 int        `gorm:"not null;default:1" json:"level" bson:"level"`
	LevelName             string     `json:"levelName" bson:"levelName"`
	StreakCount           int        `gorm:"not null;default:0" json:"streakCount" bson:"streakCount"`
	LastStreakDate        *time.Time `json:"lastStreakDate" bson:"lastStreakDate"`
	LessonsCompletedCount int        `gorm:"not null;default:0" json:"lessonsCompletedCount" bson:"lessonsCompletedCount"`
	WordsLearnedCount     int        `gorm:"not null;default:0" json:"wordsLearnedCount" bson:"wordsLearnedCount"`
	Version               int        `gorm:"not null;default:0" json:"-" bson:"version"`
	CreatedAt             time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// NewExperienceRecord returns the zero-state record of a freshly registered learner.
func NewExperienceRecord(learnerID string) *ExperienceRecord {
	return &ExperienceRecord{
		LearnerID: learnerID,
		Level:     1,
		LevelName: LevelNames[0],
	}
}

// LevelFor returns floor(points/1000)+1. Negative points count as zero.
func LevelFor(points int) int {
	if points < 0 {
		points = 0
	}
	return points/PointsPerLevel + 1
}

// LevelNameFor looks up the label for level, clamping to the first and last entries.
func LevelNameFor(level int) string {
	idx := level - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(LevelNames) {
		idx = len(LevelNames) - 1
	}
	return LevelNames[idx]
}

// CalculateLevel re-derives Level and LevelName from Points and returns the new level.
func (e *ExperienceRecord) CalculateLevel() int {
	e.Level = LevelFor(e.Points)
	e.LevelName = LevelNameFor(e.Level)
	return e.Level
}

// AddPoints adds amount and recomputes the level. It reports whether the level changed.
// Callers validate amount; the record itself only guards the points >= 0 invariant.
func (e *ExperienceRecord) AddPoints(amount int) bool {
	before := e.Level
	e.Points += amount
	if e.Points < 0 {
		e.Points = 0
	}
	return e.CalculateLevel() != before
}

// SetPoints overwrites the points total and recomputes the level.
func (e *ExperienceRecord) SetPoints(points int) bool {
	before := e.Level
	if points < 0 {
		points = 0
	}
	e.Points = points
	return e.CalculateLevel() != before
}

// UpdateStreak advances, keeps or resets the streak by comparing the calendar day of
// LastStreakDate with the calendar day of t, both taken in loc.
func (e *ExperienceRecord) UpdateStreak(t time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	if e.LastStreakDate == nil {
		e.StreakCount = 1
		e.LastStreakDate = &t
		return e.StreakCount
	}

	switch CalendarDaysBetween(*e.LastStreakDate, t, loc) {
	case 0:
		return e.StreakCount
	case 1:
		e.StreakCount++
	default:
		e.StreakCount = 1
	}
	e.LastStreakDate = &t
	return e.StreakCount
}

// StreakBroken reports whether the streak can no longer be continued at t: the last streak
// day lies before yesterday.
func (e *ExperienceRecord) StreakBroken(t time.Time, loc *time.Location) bool {
	if e.LastStreakDate == nil {
		return e.StreakCount > 0
	}
	return CalendarDaysBetween(*e.LastStreakDate, t, loc) > 1
}

// CalendarDaysBetween counts calendar-day boundaries from a to b in loc. The result is
// negative when b falls on an earlier day than a.
func CalendarDaysBetween(a, b time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	da := now.With(a.In(loc)).BeginningOfDay()
	db := now.With(b.In(loc)).BeginningOfDay()

	// Re-date in UTC so DST transitions do not produce 23h or 25h days.
	ay, am, ad := da.Date()
	by, bm, bd := db.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
