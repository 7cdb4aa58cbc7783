package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		points int
		level  int
		name   string
	}{
		{0, 1, "Mầm non"},
		{999, 1, "Mầm non"},
		{1000, 2, "Lớp lá"},
		{1999, 2, "Lớp lá"},
		{13999, 14, "Lớp 12"},
		{14000, 15, "Đại học"},
		{250000, 251, "Đại học"},
	}

	for _, tt := range tests {
		rec := NewExperienceRecord("l1")
		rec.SetPoints(tt.points)
		assert.Equal(t, tt.level, rec.Level, "points=%d", tt.points)
		assert.Equal(t, tt.name, rec.LevelName, "points=%d", tt.points)
		assert.Equal(t, tt.level, LevelFor(tt.points))
	}
}

func TestLevelNames(t *testing.T) {
	require.Len(t, LevelNames, 15)
	assert.Equal(t, LevelNames[0], LevelNameFor(0))
	assert.Equal(t, LevelNames[14], LevelNameFor(99))
}

func TestAddPointsReportsLevelChange(t *testing.T) {
	rec := NewExperienceRecord("l1")

	assert.False(t, rec.AddPoints(999))
	assert.True(t, rec.AddPoints(1))
	assert.Equal(t, 1000, rec.Points)
	assert.Equal(t, 2, rec.Level)
}

func TestUpdateStreak(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 3, 10, 20, 0, 0, 0, loc)

	t.Run("first update starts a streak", func(t *testing.T) {
		rec := NewExperienceRecord("l1")
		assert.Equal(t, 1, rec.UpdateStreak(day, loc))
		require.NotNil(t, rec.LastStreakDate)
	})

	t.Run("same day leaves streak unchanged", func(t *testing.T) {
		rec := NewExperienceRecord("l1")
		rec.UpdateStreak(day, loc)
		assert.Equal(t, 1, rec.UpdateStreak(day.Add(2*time.Hour), loc))
		assert.Equal(t, 1, rec.StreakCount)
		assert.True(t, rec.LastStreakDate.Equal(day))
	})

	t.Run("next calendar day increments", func(t *testing.T) {
		rec := NewExperienceRecord("l1")
		rec.StreakCount = 4
		last := day
		rec.LastStreakDate = &last
		// Five hours later is already the next calendar day.
		assert.Equal(t, 5, rec.UpdateStreak(day.Add(5*time.Hour), loc))
	})

	t.Run("gap of two days resets", func(t *testing.T) {
		rec := NewExperienceRecord("l1")
		rec.StreakCount = 9
		last := day
		rec.LastStreakDate = &last
		assert.Equal(t, 1, rec.UpdateStreak(day.AddDate(0, 0, 2), loc))
	})

	t.Run("date in the future resets", func(t *testing.T) {
		rec := NewExperienceRecord("l1")
		rec.StreakCount = 3
		future := day.AddDate(0, 0, 3)
		rec.LastStreakDate = &future
		assert.Equal(t, 1, rec.UpdateStreak(day, loc))
	})
}

func TestCalendarDaysBetweenUsesLocation(t *testing.T) {
	hcm := time.FixedZone("ICT", 7*3600)
	a := time.Date(2026, 3, 10, 16, 30, 0, 0, time.UTC) // 23:30 in ICT
	b := time.Date(2026, 3, 10, 17, 30, 0, 0, time.UTC) // 00:30 next day in ICT

	assert.Equal(t, 0, CalendarDaysBetween(a, b, time.UTC))
	assert.Equal(t, 1, CalendarDaysBetween(a, b, hcm))
}

func TestStreakBroken(t *testing.T) {
	loc := time.UTC
	today := time.Date(2026, 3, 10, 9, 0, 0, 0, loc)
	rec := NewExperienceRecord("l1")
	rec.StreakCount = 2

	yesterday := today.AddDate(0, 0, -1)
	rec.LastStreakDate = &yesterday
	assert.False(t, rec.StreakBroken(today, loc))

	older := today.AddDate(0, 0, -2)
	rec.LastStreakDate = &older
	assert.True(t, rec.StreakBroken(today, loc))
}
