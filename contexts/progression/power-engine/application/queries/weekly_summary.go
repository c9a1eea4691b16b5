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

const weeklySummaryDays = 7

type WeeklyDay struct {
	Date            time.Time
	Points          int64
	HabitsCompleted int
	TasksCompleted  int
	MinimumMet      bool
	IsOffDay        bool
}

type WeeklySummary struct {
	Days           []WeeklyDay
	TotalPoints    int64
	AverageDaily   float64
	DaysMinimumMet int
	OffDays        int
}

type WeeklySummaryUseCase struct {
	Ledger ports.LedgerReader
	Clock  ports.Clock
	Policy services.Policy
}

// Execute summarises the seven days ending today, oldest first. Days
// without a day log are reported with zero points.
func (uc WeeklySummaryUseCase) Execute(ctx context.Context, userID string) (WeeklySummary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return WeeklySummary{}, domainerrors.ErrInvalidInput
	}
	progression, found, err := uc.Ledger.GetProgression(ctx, userID)
	if err != nil {
		return WeeklySummary{}, err
	}
	if !found {
		return WeeklySummary{}, domainerrors.ErrUserNotFound
	}

	minimum := progression.DailyMinimum
	if minimum <= 0 {
		minimum = uc.Policy.WithDefaults().DefaultDailyMinimum
	}
	today := entities.DateOf(resolveNow(uc.Clock))
	window := ports.DayRange{From: entities.AddDays(today, -(weeklySummaryDays - 1)), To: today}
	logs, err := uc.Ledger.ListDayLogs(ctx, userID, window)
	if err != nil {
		return WeeklySummary{}, err
	}
	offDays, err := uc.Ledger.ListOffDays(ctx, userID, window)
	if err != nil {
		return WeeklySummary{}, err
	}
	byDay := make(map[string]entities.DayLog, len(logs))
	for _, item := range logs {
		byDay[entities.DayKey(item.Date)] = item
	}
	off := make(map[string]bool, len(offDays))
	for _, item := range offDays {
		off[entities.DayKey(item.Date)] = true
	}

	summary := WeeklySummary{Days: make([]WeeklyDay, 0, weeklySummaryDays)}
	for offset := weeklySummaryDays - 1; offset >= 0; offset-- {
		day := entities.AddDays(today, -offset)
		key := entities.DayKey(day)
		dayLog := byDay[key]
		item := WeeklyDay{
			Date:            day,
			Points:          dayLog.DailyPoints,
			HabitsCompleted: dayLog.HabitsCompleted,
			TasksCompleted:  dayLog.TasksCompleted,
			MinimumMet:      dayLog.DailyPoints >= minimum,
			IsOffDay:        off[key],
		}
		summary.Days = append(summary.Days, item)
		summary.TotalPoints += item.Points
		if item.MinimumMet {
			summary.DaysMinimumMet++
		}
		if item.IsOffDay {
			summary.OffDays++
		}
	}
	summary.AverageDaily = math.Round(float64(summary.TotalPoints)/weeklySummaryDays*10) / 10
	return summary, nil
}
