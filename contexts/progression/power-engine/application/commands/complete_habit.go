package commands

import (
	"context"
	"strings"
	"time"

	application "powertrack/contexts/progression/power-engine/application"
	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
	"powertrack/contexts/progression/power-engine/domain/services"
)

type CompleteHabitCommand struct {
	UserID  string
	HabitID string
	Date    time.Time
}

// HabitCompletionResult carries the completion commit and, when that
// completion finished the day, the separate consistency bonus commit.
// Result is identical for every replay of the same (habit, date).
type HabitCompletionResult struct {
	Result           entities.CommitResult
	Replayed         bool
	ConsistencyBonus *entities.CommitResult
}

func (uc LedgerUseCase) CompleteHabit(ctx context.Context, cmd CompleteHabitCommand) (HabitCompletionResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	cmd.UserID = strings.TrimSpace(cmd.UserID)
	cmd.HabitID = strings.TrimSpace(cmd.HabitID)
	if cmd.UserID == "" || cmd.HabitID == "" {
		return HabitCompletionResult{}, domainerrors.ErrInvalidInput
	}

	outcome, err := uc.Commit(ctx, entities.LedgerEvent{
		Kind:    entities.LedgerEventHabitCompleted,
		UserID:  cmd.UserID,
		HabitID: cmd.HabitID,
		Date:    cmd.Date,
	})
	if err != nil {
		return HabitCompletionResult{}, err
	}
	result := HabitCompletionResult{
		Result:   outcome.Result,
		Replayed: outcome.Replayed,
	}
	if !outcome.Result.AllHabitsCompleted {
		return result, nil
	}

	// The completion is already durable; a failed bonus is retried by the
	// day close-out worker instead of failing the request. Evaluating for
	// this habit returns the stored grant when the completion is a replay.
	bonus, err := uc.Commit(ctx, entities.LedgerEvent{
		Kind:    entities.LedgerEventConsistencyBonusGranted,
		UserID:  cmd.UserID,
		HabitID: cmd.HabitID,
		Date:    outcome.Result.Date,
	})
	if err != nil {
		logger.Error("consistency bonus after habit completion failed",
			"event", "power_consistency_bonus_failed",
			"module", "progression/power-engine",
			"layer", "application",
			"user_id", cmd.UserID,
			"habit_id", cmd.HabitID,
			"day", entities.DayKey(outcome.Result.Date),
			"error", err.Error(),
		)
		return result, nil
	}
	if !bonus.Skipped {
		granted := bonus.Result
		result.ConsistencyBonus = &granted
	}
	return result, nil
}

func (uc LedgerUseCase) prepareHabit(
	ctx context.Context,
	event entities.LedgerEvent,
	state *commitState,
) (commitDraft, *CommitOutcome, error) {
	policy := uc.policy()
	habitID := strings.TrimSpace(event.HabitID)
	if habitID == "" {
		return commitDraft{}, nil, domainerrors.ErrInvalidInput
	}

	record, found, err := uc.Ledger.GetHabitRecord(ctx, habitID, state.day)
	if err != nil {
		return commitDraft{}, nil, err
	}
	if found && record.Completed {
		if record.UserID != event.UserID {
			return commitDraft{}, nil, domainerrors.ErrHabitNotFound
		}
		return commitDraft{}, &CommitOutcome{Result: record.Result, Replayed: true}, nil
	}

	habit, err := uc.Catalog.GetHabit(ctx, habitID)
	if err != nil {
		return commitDraft{}, nil, err
	}
	if habit.UserID != event.UserID {
		return commitDraft{}, nil, domainerrors.ErrHabitNotFound
	}
	if !services.IsDue(habit, state.day) {
		return commitDraft{}, nil, domainerrors.ErrNotDue
	}

	multiplier, err := uc.categoryMultiplier(ctx, habit.CategoryID)
	if err != nil {
		return commitDraft{}, nil, err
	}
	streak, err := uc.habitStreakWith(ctx, habit, state.day, policy.StreakLookbackDays)
	if err != nil {
		return commitDraft{}, nil, err
	}

	awarded, breakdown := services.Calculate(
		habit.BasePoints,
		multiplier,
		policy.StreakBonusPct(streak),
		!state.dayLog.ConsistencyBonusApplied,
	)
	breakdown.StreakDays = streak
	state.dayLog.HabitPoints += awarded

	return commitDraft{
		awarded:     awarded,
		breakdown:   &breakdown,
		habitStreak: streak,
		habitRecord: &entities.HabitDayRecord{
			HabitID:       habit.HabitID,
			UserID:        event.UserID,
			Date:          state.day,
			Completed:     true,
			PointsAwarded: awarded,
			HabitStreak:   streak,
			CompletedAt:   state.now,
		},
		eventType: EventPointsAwarded,
		eventData: map[string]any{
			"habit_id":     habit.HabitID,
			"habit_name":   habit.Name,
			"habit_streak": streak,
		},
	}, nil, nil
}

// habitStreakWith is the habit streak on day counting the completion being
// committed. Off-days on due dates keep the streak alive.
func (uc LedgerUseCase) habitStreakWith(
	ctx context.Context,
	habit entities.Habit,
	day time.Time,
	lookback int,
) (int, error) {
	window := lookbackWindow(day, lookback)
	records, err := uc.Ledger.ListHabitRecords(ctx, habit.HabitID, window)
	if err != nil {
		return 0, err
	}
	offDays, err := uc.Ledger.ListOffDays(ctx, habit.UserID, window)
	if err != nil {
		return 0, err
	}
	done := make(map[string]bool, len(records)+len(offDays)+1)
	for _, record := range records {
		if record.Completed {
			done[entities.DayKey(record.Date)] = true
		}
	}
	for _, offDay := range offDays {
		done[entities.DayKey(offDay.Date)] = true
	}
	done[entities.DayKey(day)] = true

	state := services.HabitStreak(habit, day, func(d time.Time) bool {
		return done[entities.DayKey(d)]
	}, lookback)
	return state.Days, nil
}
