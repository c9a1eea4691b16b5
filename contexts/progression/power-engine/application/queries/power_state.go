package queries

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "powertrack/contexts/progression/power-engine/application"
	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
	"powertrack/contexts/progression/power-engine/domain/services"
	"powertrack/contexts/progression/power-engine/ports"
)

type PowerState struct {
	UserID                  string
	TotalPowerPoints        int64
	Tier                    entities.TierThreshold
	NextTier                *entities.TierThreshold
	PointsToNext            int64
	ProgressPercentage      float64
	DailyPointsToday        int64
	DailyMinimum            int64
	DailyMinimumMet         bool
	IsOffDayToday           bool
	ConsistencyBonusApplied bool
	HabitsDueToday          int
	HabitsCompletedToday    int
	CurrentStreak           int
	BestStreak              int
	LastActivityDate        time.Time
}

// PowerStateUseCase derives the read model from the ledger. Streaks are
// re-evaluated as of today so a missed day shows up before the next commit.
type PowerStateUseCase struct {
	Ledger ports.LedgerReader
	Clock  ports.Clock
	Policy services.Policy
	Ladder services.Ladder
	Logger *slog.Logger
}

func (uc PowerStateUseCase) Execute(ctx context.Context, userID string) (PowerState, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return PowerState{}, domainerrors.ErrInvalidInput
	}
	progression, found, err := uc.Ledger.GetProgression(ctx, userID)
	if err != nil {
		return PowerState{}, err
	}
	if !found {
		return PowerState{}, domainerrors.ErrUserNotFound
	}

	policy := uc.Policy.WithDefaults()
	today := entities.DateOf(resolveNow(uc.Clock))
	minimum := progression.DailyMinimum
	if minimum <= 0 {
		minimum = policy.DefaultDailyMinimum
	}

	window := ports.DayRange{From: entities.AddDays(today, -policy.StreakLookbackDays), To: today}
	qualifies, err := userDayQualifier(ctx, uc.Ledger, userID, window, minimum)
	if err != nil {
		return PowerState{}, err
	}
	todayLog, _, err := uc.Ledger.GetDayLog(ctx, userID, today)
	if err != nil {
		return PowerState{}, err
	}
	_, offToday, err := uc.Ledger.GetOffDay(ctx, userID, today)
	if err != nil {
		return PowerState{}, err
	}

	streak := services.UserStreak(today, qualifies, policy.StreakLookbackDays)
	state := PowerState{
		UserID:                  userID,
		TotalPowerPoints:        progression.TotalPowerPoints,
		Tier:                    uc.Ladder.TierFor(progression.TotalPowerPoints),
		PointsToNext:            uc.Ladder.PointsToNext(progression.TotalPowerPoints),
		ProgressPercentage:      uc.Ladder.Progress(progression.TotalPowerPoints),
		DailyPointsToday:        todayLog.DailyPoints,
		DailyMinimum:            minimum,
		DailyMinimumMet:         offToday || todayLog.DailyPoints >= minimum,
		IsOffDayToday:           offToday,
		ConsistencyBonusApplied: todayLog.ConsistencyBonusApplied,
		HabitsDueToday:          todayLog.HabitsDue,
		HabitsCompletedToday:    todayLog.HabitsCompleted,
		CurrentStreak:           streak.Days,
		BestStreak:              services.BestStreak(progression.BestStreak, streak.Days),
		LastActivityDate:        progression.LastActivityDate,
	}
	if next, ok := uc.Ladder.Next(progression.TotalPowerPoints); ok {
		state.NextTier = &next
	}

	logger.Debug("power state fetched",
		"event", "power_state_fetched",
		"module", "progression/power-engine",
		"layer", "application",
		"user_id", userID,
		"total_power_points", state.TotalPowerPoints,
		"tier", string(state.Tier.TierID),
	)
	return state, nil
}

func userDayQualifier(
	ctx context.Context,
	ledger ports.LedgerReader,
	userID string,
	window ports.DayRange,
	minimum int64,
) (services.DayQualifier, error) {
	logs, err := ledger.ListDayLogs(ctx, userID, window)
	if err != nil {
		return nil, err
	}
	offDays, err := ledger.ListOffDays(ctx, userID, window)
	if err != nil {
		return nil, err
	}
	points := make(map[string]int64, len(logs))
	for _, item := range logs {
		points[entities.DayKey(item.Date)] = item.DailyPoints
	}
	off := make(map[string]bool, len(offDays))
	for _, item := range offDays {
		off[entities.DayKey(item.Date)] = true
	}
	return func(day time.Time) bool {
		key := entities.DayKey(day)
		return off[key] || points[key] >= minimum
	}, nil
}

func resolveNow(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
