package commands

import (
	"context"
	"strings"
	"time"

	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
	"powertrack/contexts/progression/power-engine/domain/services"
)

// GrantConsistencyBonus commits the all-habits-done top-up for day when it
// is due and not yet applied. It returns nil when nothing was granted.
func (uc LedgerUseCase) GrantConsistencyBonus(ctx context.Context, userID string, day time.Time) (*entities.CommitResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	outcome, err := uc.Commit(ctx, entities.LedgerEvent{
		Kind:   entities.LedgerEventConsistencyBonusGranted,
		UserID: userID,
		Date:   day,
	})
	if err != nil {
		return nil, err
	}
	if outcome.Skipped || outcome.Replayed {
		return nil, nil
	}
	return &outcome.Result, nil
}

// prepareConsistencyBonus only ever adds points. The apply-once flag on the
// day log makes repeated evaluation a no-op, and a habit archived after the
// bonus was granted does not take it back. Re-evaluating for the habit that
// finished the day replays the stored grant.
func (uc LedgerUseCase) prepareConsistencyBonus(
	ctx context.Context,
	event entities.LedgerEvent,
	state *commitState,
) (commitDraft, *CommitOutcome, error) {
	skipped := &CommitOutcome{Skipped: true}
	if state.expected == 0 {
		return commitDraft{}, skipped, nil
	}
	if state.dayLog.ConsistencyBonusApplied {
		grant := state.dayLog.ConsistencyBonus
		if grant != nil && event.HabitID != "" && grant.HabitID == event.HabitID {
			return commitDraft{}, &CommitOutcome{Result: grant.Result, Replayed: true}, nil
		}
		return commitDraft{}, skipped, nil
	}

	habits, err := uc.Catalog.ListHabitsByUser(ctx, event.UserID)
	if err != nil {
		return commitDraft{}, nil, err
	}
	records, err := uc.Ledger.ListHabitRecordsByUserDay(ctx, event.UserID, state.day)
	if err != nil {
		return commitDraft{}, nil, err
	}
	completed := make(map[string]bool, len(records))
	for _, record := range records {
		if record.Completed {
			completed[record.HabitID] = true
		}
	}
	if !services.AllDueCompleted(services.DueHabits(habits, state.day), completed) {
		return commitDraft{}, skipped, nil
	}

	policy := uc.policy()
	bonus := services.ConsistencyBonus(state.dayLog.HabitPoints, policy.ConsistencyBonusFactor)
	if bonus <= 0 {
		return commitDraft{}, skipped, nil
	}
	basis := state.dayLog.HabitPoints
	state.dayLog.BonusPoints += bonus
	state.dayLog.ConsistencyBonusApplied = true

	return commitDraft{
		awarded:    bonus,
		bonusGrant: true,
		eventType:  EventConsistencyBonusGranted,
		eventData: map[string]any{
			"habit_points": basis,
			"bonus_points": bonus,
			"factor":       policy.ConsistencyBonusFactor,
		},
	}, nil, nil
}
