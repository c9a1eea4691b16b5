package services

import (
	"time"

	"powertrack/contexts/progression/power-engine/domain/entities"
)

type StreakStatus string

const (
	StreakActive StreakStatus = "active"
	StreakBroken StreakStatus = "broken"
)

type StreakState struct {
	Status StreakStatus
	Days   int
}

func newStreakState(days int) StreakState {
	if days <= 0 {
		return StreakState{Status: StreakBroken}
	}
	return StreakState{Status: StreakActive, Days: days}
}

// DayQualifier reports whether a calendar day counts toward a streak: the
// daily minimum (or the habit) was met, or an off-day was recorded.
type DayQualifier func(day time.Time) bool

// UserStreak counts consecutive qualifying days ending at asOf. The day
// asOf is still in progress, so when it has not qualified yet the count
// starts from the previous day instead of breaking.
func UserStreak(asOf time.Time, qualifies DayQualifier, maxDays int) StreakState {
	day := entities.DateOf(asOf)
	if !qualifies(day) {
		day = entities.AddDays(day, -1)
	}
	days := 0
	for days < maxDays && qualifies(day) {
		days++
		day = entities.AddDays(day, -1)
	}
	return newStreakState(days)
}

// HabitStreak applies the same walk to the days the habit occurs on. Days
// the habit is not scheduled are skipped, never counted as gaps, and the
// walk stops at the habit's start date.
func HabitStreak(habit entities.Habit, asOf time.Time, qualifies DayQualifier, maxDays int) StreakState {
	day := entities.DateOf(asOf)
	days := 0
	for step := 0; step < maxDays; step++ {
		if !habit.StartDate.IsZero() && day.Before(entities.DateOf(habit.StartDate)) {
			break
		}
		if OccursOn(habit, day) {
			if qualifies(day) {
				days++
			} else if step > 0 {
				break
			}
		}
		day = entities.AddDays(day, -1)
	}
	return newStreakState(days)
}

// LongestHabitRun is the best streak the habit reached between from and to.
func LongestHabitRun(habit entities.Habit, from time.Time, to time.Time, qualifies DayQualifier) int {
	best, run := 0, 0
	for day := entities.DateOf(from); !day.After(entities.DateOf(to)); day = entities.AddDays(day, 1) {
		if !OccursOn(habit, day) {
			continue
		}
		if qualifies(day) {
			run++
			if run > best {
				best = run
			}
			continue
		}
		run = 0
	}
	return best
}

func BestStreak(best int, current int) int {
	if current > best {
		return current
	}
	return best
}
