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

type HabitCalendarDay struct {
	Date          time.Time
	Completed     bool
	PointsAwarded int64
	IsOffDay      bool
}

// HabitCalendar lists the scheduled days of one habit in a month, up to
// today.
type HabitCalendar struct {
	HabitID        string
	HabitName      string
	Year           int
	Month          time.Month
	Days           []HabitCalendarDay
	CompletionRate float64
}

type CalendarDay struct {
	Date            time.Time
	HabitsDue       int
	HabitsCompleted int
	CompletionRate  float64
	HabitPoints     int64
}

// MonthCalendar is the all-habits heatmap of a month, up to today.
type MonthCalendar struct {
	Year  int
	Month time.Month
	Days  []CalendarDay
}

type HabitCalendarUseCase struct {
	Catalog ports.Catalog
	Ledger  ports.LedgerReader
	Clock   ports.Clock
}

func (uc HabitCalendarUseCase) Habit(
	ctx context.Context,
	userID string,
	habitID string,
	year int,
	month int,
) (HabitCalendar, error) {
	userID = strings.TrimSpace(userID)
	habitID = strings.TrimSpace(habitID)
	if userID == "" || habitID == "" {
		return HabitCalendar{}, domainerrors.ErrInvalidInput
	}
	window, err := monthWindow(year, month, resolveNow(uc.Clock))
	if err != nil {
		return HabitCalendar{}, err
	}
	habit, err := uc.Catalog.GetHabit(ctx, habitID)
	if err != nil {
		return HabitCalendar{}, err
	}
	if habit.UserID != userID {
		return HabitCalendar{}, domainerrors.ErrHabitNotFound
	}

	calendar := HabitCalendar{
		HabitID:   habitID,
		HabitName: habit.Name,
		Year:      year,
		Month:     time.Month(month),
		Days:      make([]HabitCalendarDay, 0),
	}
	if window.To.Before(window.From) {
		return calendar, nil
	}
	records, err := uc.Ledger.ListHabitRecords(ctx, habitID, window)
	if err != nil {
		return HabitCalendar{}, err
	}
	offDays, err := uc.Ledger.ListOffDays(ctx, userID, window)
	if err != nil {
		return HabitCalendar{}, err
	}
	byDay := make(map[string]entities.HabitDayRecord, len(records))
	for _, record := range records {
		byDay[entities.DayKey(record.Date)] = record
	}
	off := make(map[string]bool, len(offDays))
	for _, item := range offDays {
		off[entities.DayKey(item.Date)] = true
	}

	completed := 0
	for day := window.From; !day.After(window.To); day = entities.AddDays(day, 1) {
		if !services.OccursOn(habit, day) {
			continue
		}
		key := entities.DayKey(day)
		record := byDay[key]
		item := HabitCalendarDay{
			Date:      day,
			Completed: record.Completed,
			IsOffDay:  off[key],
		}
		if record.Completed {
			item.PointsAwarded = record.PointsAwarded
			completed++
		}
		calendar.Days = append(calendar.Days, item)
	}
	calendar.CompletionRate = percentage(completed, len(calendar.Days))
	return calendar, nil
}

func (uc HabitCalendarUseCase) Month(ctx context.Context, userID string, year int, month int) (MonthCalendar, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return MonthCalendar{}, domainerrors.ErrInvalidInput
	}
	window, err := monthWindow(year, month, resolveNow(uc.Clock))
	if err != nil {
		return MonthCalendar{}, err
	}

	calendar := MonthCalendar{Year: year, Month: time.Month(month), Days: make([]CalendarDay, 0)}
	if window.To.Before(window.From) {
		return calendar, nil
	}
	habits, err := uc.Catalog.ListHabitsByUser(ctx, userID)
	if err != nil {
		return MonthCalendar{}, err
	}
	records, err := uc.Ledger.ListHabitRecordsByUser(ctx, userID, window)
	if err != nil {
		return MonthCalendar{}, err
	}
	byDay := make(map[string][]entities.HabitDayRecord)
	for _, record := range records {
		if record.Completed {
			key := entities.DayKey(record.Date)
			byDay[key] = append(byDay[key], record)
		}
	}

	for day := window.From; !day.After(window.To); day = entities.AddDays(day, 1) {
		done := make(map[string]bool)
		item := CalendarDay{Date: day}
		for _, record := range byDay[entities.DayKey(day)] {
			done[record.HabitID] = true
			item.HabitPoints += record.PointsAwarded
		}
		for _, habit := range habits {
			if !services.OccursOn(habit, day) {
				continue
			}
			// Archived habits only count on days they were completed.
			if habit.Archived && !done[habit.HabitID] {
				continue
			}
			item.HabitsDue++
			if done[habit.HabitID] {
				item.HabitsCompleted++
			}
		}
		item.CompletionRate = percentage(item.HabitsCompleted, item.HabitsDue)
		calendar.Days = append(calendar.Days, item)
	}
	return calendar, nil
}

// monthWindow is the given month clipped to today. A month that starts
// after today yields a window whose To is before From.
func monthWindow(year int, month int, now time.Time) (ports.DayRange, error) {
	if year < 1 || year > 9999 || month < 1 || month > 12 {
		return ports.DayRange{}, domainerrors.ErrInvalidInput
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := entities.AddDays(first.AddDate(0, 1, 0), -1)
	today := entities.DateOf(now)
	if last.After(today) {
		last = today
	}
	return ports.DayRange{From: first, To: last}, nil
}

func percentage(part int, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}
