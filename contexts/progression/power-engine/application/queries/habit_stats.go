package queries

import (
	"context"
	"math"
	"strings"
	"time"

	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
	"powertrack/contexts/progression/power-engine/domain/services"
	"powertrack/contexts/progression/power-engine/ports"
)

type HabitStats struct {
	HabitID          string
	CurrentStreak    int
	BestStreak       int
	TotalCompletions int
	TotalPoints      int64
	CompletionRate7  float64
	CompletionRate30 float64
	CompletionRate90 float64
}

type HabitStatsUseCase struct {
	Catalog ports.Catalog
	Ledger  ports.LedgerReader
	Clock   ports.Clock
	Policy  services.Policy
}

func (uc HabitStatsUseCase) Execute(ctx context.Context, userID string, habitID string) (HabitStats, error) {
	userID = strings.TrimSpace(userID)
	habitID = strings.TrimSpace(habitID)
	if userID == "" || habitID == "" {
		return HabitStats{}, domainerrors.ErrInvalidInput
	}
	habit, err := uc.Catalog.GetHabit(ctx, habitID)
	if err != nil {
		return HabitStats{}, err
	}
	if habit.UserID != userID {
		return HabitStats{}, domainerrors.ErrHabitNotFound
	}

	policy := uc.Policy.WithDefaults()
	today := entities.DateOf(resolveNow(uc.Clock))
	window := ports.DayRange{From: entities.AddDays(today, -policy.StreakLookbackDays), To: today}
	records, err := uc.Ledger.ListHabitRecords(ctx, habitID, window)
	if err != nil {
		return HabitStats{}, err
	}
	offDays, err := uc.Ledger.ListOffDays(ctx, userID, window)
	if err != nil {
		return HabitStats{}, err
	}

	stats := HabitStats{HabitID: habitID}
	completed := make(map[string]bool, len(records))
	for _, record := range records {
		if !record.Completed {
			continue
		}
		completed[entities.DayKey(record.Date)] = true
		stats.TotalCompletions++
		stats.TotalPoints += record.PointsAwarded
	}
	off := make(map[string]bool, len(offDays))
	for _, item := range offDays {
		off[entities.DayKey(item.Date)] = true
	}
	qualifies := func(day time.Time) bool {
		key := entities.DayKey(day)
		return completed[key] || off[key]
	}

	stats.CurrentStreak = services.HabitStreak(habit, today, qualifies, policy.StreakLookbackDays).Days
	stats.BestStreak = services.LongestHabitRun(habit, window.From, today, qualifies)
	stats.CompletionRate7 = completionRate(habit, today, 7, completed)
	stats.CompletionRate30 = completionRate(habit, today, 30, completed)
	stats.CompletionRate90 = completionRate(habit, today, 90, completed)
	return stats, nil
}

// completionRate is the share of scheduled days in the trailing window that
// were completed, as a percentage rounded to one decimal.
func completionRate(habit entities.Habit, today time.Time, days int, completed map[string]bool) float64 {
	scheduled, done := 0, 0
	for offset := 0; offset < days; offset++ {
		day := entities.AddDays(today, -offset)
		if !services.OccursOn(habit, day) {
			continue
		}
		scheduled++
		if completed[entities.DayKey(day)] {
			done++
		}
	}
	if scheduled == 0 {
		return 0
	}
	rate := float64(done) / float64(scheduled) * 100
	return math.Round(rate*10) / 10
}
