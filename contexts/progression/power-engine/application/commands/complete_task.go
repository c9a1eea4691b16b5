package commands

import (
	"context"
	"strings"
	"time"

	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
	"powertrack/contexts/progression/power-engine/domain/services"
)

// CompleteTaskCommand records one completion of a one-off task. The
// CompletionID is the idempotency key; when empty a new one is generated
// and the call is never treated as a replay.
type CompleteTaskCommand struct {
	UserID       string
	TaskID       string
	CompletionID string
	Date         time.Time
}

type TaskCompletionResult struct {
	CompletionID string
	Result       entities.CommitResult
	Replayed     bool
}

func (uc LedgerUseCase) CompleteTask(ctx context.Context, cmd CompleteTaskCommand) (TaskCompletionResult, error) {
	cmd.UserID = strings.TrimSpace(cmd.UserID)
	cmd.TaskID = strings.TrimSpace(cmd.TaskID)
	cmd.CompletionID = strings.TrimSpace(cmd.CompletionID)
	if cmd.UserID == "" || cmd.TaskID == "" {
		return TaskCompletionResult{}, domainerrors.ErrInvalidInput
	}
	if cmd.CompletionID == "" {
		completionID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return TaskCompletionResult{}, err
		}
		cmd.CompletionID = completionID
	}

	outcome, err := uc.Commit(ctx, entities.LedgerEvent{
		Kind:         entities.LedgerEventTaskCompleted,
		UserID:       cmd.UserID,
		TaskID:       cmd.TaskID,
		CompletionID: cmd.CompletionID,
		Date:         cmd.Date,
	})
	if err != nil {
		return TaskCompletionResult{}, err
	}
	return TaskCompletionResult{
		CompletionID: cmd.CompletionID,
		Result:       outcome.Result,
		Replayed:     outcome.Replayed,
	}, nil
}

func (uc LedgerUseCase) prepareTask(
	ctx context.Context,
	event entities.LedgerEvent,
	state *commitState,
) (commitDraft, *CommitOutcome, error) {
	policy := uc.policy()
	taskID := strings.TrimSpace(event.TaskID)
	completionID := strings.TrimSpace(event.CompletionID)
	if taskID == "" || completionID == "" {
		return commitDraft{}, nil, domainerrors.ErrInvalidInput
	}

	existing, found, err := uc.Ledger.GetTaskCompletion(ctx, completionID)
	if err != nil {
		return commitDraft{}, nil, err
	}
	if found {
		if existing.UserID != event.UserID || existing.TaskID != taskID {
			return commitDraft{}, nil, domainerrors.ErrConflict
		}
		return commitDraft{}, &CommitOutcome{Result: existing.Result, Replayed: true}, nil
	}

	task, err := uc.Catalog.GetTask(ctx, taskID)
	if err != nil {
		return commitDraft{}, nil, err
	}
	if task.UserID != event.UserID {
		return commitDraft{}, nil, domainerrors.ErrTaskNotFound
	}
	multiplier, err := uc.categoryMultiplier(ctx, task.CategoryID)
	if err != nil {
		return commitDraft{}, nil, err
	}

	// Tasks use the user's daily streak as it stood before this award.
	minimum := resolveDailyMinimum(state.progression, policy)
	index, err := uc.loadDayIndex(ctx, event.UserID, lookbackWindow(state.day, policy.StreakLookbackDays), minimum)
	if err != nil {
		return commitDraft{}, nil, err
	}
	index.setPoints(state.day, state.dayLog.DailyPoints)
	streak := index.streak(state.day, policy.StreakLookbackDays).Days

	awarded, breakdown := services.Calculate(
		task.BasePoints,
		multiplier,
		policy.StreakBonusPct(streak),
		!state.dayLog.ConsistencyBonusApplied,
	)
	breakdown.StreakDays = streak
	state.dayLog.TaskPoints += awarded
	state.dayLog.TasksCompleted++

	return commitDraft{
		awarded:   awarded,
		breakdown: &breakdown,
		taskCompletion: &entities.TaskCompletion{
			CompletionID:  completionID,
			TaskID:        task.TaskID,
			UserID:        event.UserID,
			Date:          state.day,
			PointsAwarded: awarded,
			CompletedAt:   state.now,
		},
		eventType: EventPointsAwarded,
		eventData: map[string]any{
			"task_id":       task.TaskID,
			"task_title":    task.Title,
			"completion_id": completionID,
		},
	}, nil, nil
}
