package commands

import (
	"context"
	"time"

	"powertrack/contexts/progression/power-engine/domain/entities"
	"powertrack/contexts/progression/power-engine/domain/services"
	"powertrack/contexts/progression/power-engine/ports"
)

// dayIndex answers "did this day qualify" for the user-level streak.
type dayIndex struct {
	points  map[string]int64
	offDays map[string]entities.OffDayReason
	minimum int64
}

func (uc LedgerUseCase) loadDayIndex(
	ctx context.Context,
	userID string,
	window ports.DayRange,
	minimum int64,
) (dayIndex, error) {
	logs, err := uc.Ledger.ListDayLogs(ctx, userID, window)
	if err != nil {
		return dayIndex{}, err
	}
	offDays, err := uc.Ledger.ListOffDays(ctx, userID, window)
	if err != nil {
		return dayIndex{}, err
	}
	index := dayIndex{
		points:  make(map[string]int64, len(logs)),
		offDays: make(map[string]entities.OffDayReason, len(offDays)),
		minimum: minimum,
	}
	for _, item := range logs {
		index.points[entities.DayKey(item.Date)] = item.DailyPoints
	}
	for _, item := range offDays {
		index.offDays[entities.DayKey(item.Date)] = item.Reason
	}
	return index, nil
}

func (d dayIndex) setPoints(day time.Time, points int64) {
	d.points[entities.DayKey(day)] = points
}

func (d dayIndex) markOff(day time.Time, reason entities.OffDayReason) {
	d.offDays[entities.DayKey(day)] = reason
}

func (d dayIndex) isOff(day time.Time) bool {
	_, ok := d.offDays[entities.DayKey(day)]
	return ok
}

func (d dayIndex) minimumMet(day time.Time) bool {
	return d.points[entities.DayKey(day)] >= d.minimum
}

func (d dayIndex) qualifies(day time.Time) bool {
	return d.isOff(day) || d.minimumMet(day)
}

func (d dayIndex) streak(asOf time.Time, lookback int) services.StreakState {
	return services.UserStreak(asOf, d.qualifies, lookback)
}

func lookbackWindow(end time.Time, days int) ports.DayRange {
	return ports.DayRange{
		From: entities.AddDays(end, -days),
		To:   entities.DateOf(end),
	}
}

func resolveDailyMinimum(progression entities.UserProgression, policy services.Policy) int64 {
	if progression.DailyMinimum > 0 {
		return progression.DailyMinimum
	}
	return policy.DefaultDailyMinimum
}

func laterDay(a time.Time, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
