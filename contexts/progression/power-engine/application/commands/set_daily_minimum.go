package commands

import (
	"context"
	"strings"

	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
)

type SetDailyMinimumCommand struct {
	UserID       string
	DailyMinimum int64
}

type DailyMinimumResult struct {
	DailyMinimum int64
	Result       entities.CommitResult
}

// SetDailyMinimum changes the points a day needs to count toward the user
// streak. The ledger re-evaluates today and the streak with the new value.
func (uc LedgerUseCase) SetDailyMinimum(ctx context.Context, cmd SetDailyMinimumCommand) (DailyMinimumResult, error) {
	cmd.UserID = strings.TrimSpace(cmd.UserID)
	if cmd.UserID == "" || cmd.DailyMinimum < 1 {
		return DailyMinimumResult{}, domainerrors.ErrInvalidInput
	}

	outcome, err := uc.Commit(ctx, entities.LedgerEvent{
		Kind:         entities.LedgerEventDailyMinimumChanged,
		UserID:       cmd.UserID,
		DailyMinimum: cmd.DailyMinimum,
	})
	if err != nil {
		return DailyMinimumResult{}, err
	}
	return DailyMinimumResult{
		DailyMinimum: cmd.DailyMinimum,
		Result:       outcome.Result,
	}, nil
}

func (uc LedgerUseCase) prepareDailyMinimum(
	_ context.Context,
	event entities.LedgerEvent,
	state *commitState,
) (commitDraft, *CommitOutcome, error) {
	if event.DailyMinimum < 1 {
		return commitDraft{}, nil, domainerrors.ErrInvalidInput
	}
	if !state.day.Equal(state.today) {
		return commitDraft{}, nil, domainerrors.ErrInvalidInput
	}

	previous := resolveDailyMinimum(state.progression, uc.policy())
	minimum := event.DailyMinimum
	draft := commitDraft{dailyMinimum: &minimum}
	if previous != minimum {
		draft.eventType = EventDailyMinimumChanged
		draft.eventData = map[string]any{
			"previous_minimum": previous,
			"daily_minimum":    minimum,
		}
	}
	return draft, nil, nil
}
