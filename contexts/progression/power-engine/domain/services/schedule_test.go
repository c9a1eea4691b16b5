package services_test

import (
	"testing"
	"time"

	"powertrack/contexts/progression/power-engine/domain/entities"
	"powertrack/contexts/progression/power-engine/domain/services"
)

func TestIsDueByFrequency(t *testing.T) {
	saturday := day("2025-03-08")
	monday := day("2025-03-10")
	tuesday := day("2025-03-11")

	daily := entities.Habit{Frequency: entities.FrequencyDaily}
	weekdays := entities.Habit{Frequency: entities.FrequencyWeekdays}
	custom := entities.Habit{Frequency: entities.FrequencyCustom, CustomDays: []time.Weekday{time.Tuesday}}

	cases := []struct {
		name  string
		habit entities.Habit
		day   time.Time
		want  bool
	}{
		{"daily saturday", daily, saturday, true},
		{"weekdays saturday", weekdays, saturday, false},
		{"weekdays monday", weekdays, monday, true},
		{"custom monday", custom, monday, false},
		{"custom tuesday", custom, tuesday, true},
		{"unknown frequency", entities.Habit{Frequency: "hourly"}, monday, false},
	}
	for _, tc := range cases {
		if got := services.IsDue(tc.habit, tc.day); got != tc.want {
			t.Fatalf("%s: expected %t, got %t", tc.name, tc.want, got)
		}
	}
}

func TestIsDueRespectsActiveWindowAndArchival(t *testing.T) {
	end := day("2025-03-20")
	habit := entities.Habit{
		Frequency:   entities.FrequencyDaily,
		IsTemporary: true,
		StartDate:   day("2025-03-10"),
		EndDate:     &end,
	}
	if services.IsDue(habit, day("2025-03-09")) {
		t.Fatal("not due before start date")
	}
	if !services.IsDue(habit, day("2025-03-10")) || !services.IsDue(habit, day("2025-03-20")) {
		t.Fatal("due on window bounds")
	}
	if services.IsDue(habit, day("2025-03-21")) {
		t.Fatal("not due after end date")
	}

	habit.Archived = true
	if services.IsDue(habit, day("2025-03-12")) {
		t.Fatal("archived habits are never due")
	}
	if !services.OccursOn(habit, day("2025-03-12")) {
		t.Fatal("archived habits still occur for streak history")
	}
}

func TestDueHabitsAndAllDueCompleted(t *testing.T) {
	habits := []entities.Habit{
		{HabitID: "a", Frequency: entities.FrequencyDaily},
		{HabitID: "b", Frequency: entities.FrequencyWeekdays},
		{HabitID: "c", Frequency: entities.FrequencyDaily, Archived: true},
	}
	due := services.DueHabits(habits, day("2025-03-08"))
	if len(due) != 1 || due[0].HabitID != "a" {
		t.Fatalf("expected only habit a due on saturday, got %+v", due)
	}
	if !services.AllDueCompleted(due, map[string]bool{"a": true}) {
		t.Fatal("expected all due completed")
	}

	due = services.DueHabits(habits, day("2025-03-10"))
	if services.AllDueCompleted(due, map[string]bool{"a": true}) {
		t.Fatal("habit b is still open on monday")
	}
	if services.AllDueCompleted(nil, map[string]bool{"a": true}) {
		t.Fatal("a day with nothing due never completes")
	}
}
