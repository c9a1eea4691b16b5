package services

import (
	"time"

	"powertrack/contexts/progression/power-engine/domain/entities"
)

func InWindow(habit entities.Habit, day time.Time) bool {
	day = entities.DateOf(day)
	if !habit.StartDate.IsZero() && day.Before(entities.DateOf(habit.StartDate)) {
		return false
	}
	if habit.EndDate != nil && day.After(entities.DateOf(*habit.EndDate)) {
		return false
	}
	return true
}

func ScheduledOn(habit entities.Habit, day time.Time) bool {
	weekday := entities.DateOf(day).Weekday()
	switch habit.Frequency {
	case entities.FrequencyDaily:
		return true
	case entities.FrequencyWeekdays:
		return weekday != time.Saturday && weekday != time.Sunday
	case entities.FrequencyCustom:
		for _, item := range habit.CustomDays {
			if item == weekday {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// OccursOn ignores archival so past streaks of an archived habit stay intact.
func OccursOn(habit entities.Habit, day time.Time) bool {
	return InWindow(habit, day) && ScheduledOn(habit, day)
}

// IsDue decides whether a completion may be recorded for day.
func IsDue(habit entities.Habit, day time.Time) bool {
	return !habit.Archived && OccursOn(habit, day)
}

func DueHabits(habits []entities.Habit, day time.Time) []entities.Habit {
	items := make([]entities.Habit, 0, len(habits))
	for _, habit := range habits {
		if IsDue(habit, day) {
			items = append(items, habit)
		}
	}
	return items
}
