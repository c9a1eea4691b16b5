package commands

import (
	"context"
	"strings"
	"time"

	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
)

type MarkOffDayCommand struct {
	UserID string
	Date   time.Time
	Reason entities.OffDayReason
}

type OffDayResult struct {
	OffDay   entities.OffDayRecord
	Result   entities.CommitResult
	Replayed bool
}

// MarkOffDay declares a day that satisfies the daily minimum without any
// completions. Re-marking the same day with the same reason is a no-op;
// a different reason is a Conflict.
func (uc LedgerUseCase) MarkOffDay(ctx context.Context, cmd MarkOffDayCommand) (OffDayResult, error) {
	cmd.UserID = strings.TrimSpace(cmd.UserID)
	cmd.Reason = entities.OffDayReason(strings.ToLower(strings.TrimSpace(string(cmd.Reason))))
	if cmd.UserID == "" || !cmd.Reason.Valid() {
		return OffDayResult{}, domainerrors.ErrInvalidInput
	}

	outcome, err := uc.Commit(ctx, entities.LedgerEvent{
		Kind:         entities.LedgerEventOffDayMarked,
		UserID:       cmd.UserID,
		Date:         cmd.Date,
		OffDayReason: cmd.Reason,
	})
	if err != nil {
		return OffDayResult{}, err
	}
	return OffDayResult{
		OffDay: entities.OffDayRecord{
			UserID:    cmd.UserID,
			Date:      outcome.Result.Date,
			Reason:    cmd.Reason,
			CreatedAt: outcome.Result.CommittedAt,
		},
		Result:   outcome.Result,
		Replayed: outcome.Replayed,
	}, nil
}

func (uc LedgerUseCase) prepareOffDay(
	ctx context.Context,
	event entities.LedgerEvent,
	state *commitState,
) (commitDraft, *CommitOutcome, error) {
	if !event.OffDayReason.Valid() {
		return commitDraft{}, nil, domainerrors.ErrInvalidInput
	}

	existing, found, err := uc.Ledger.GetOffDay(ctx, event.UserID, state.day)
	if err != nil {
		return commitDraft{}, nil, err
	}
	if found {
		if existing.Reason != event.OffDayReason {
			return commitDraft{}, nil, domainerrors.ErrConflict
		}
		return commitDraft{}, &CommitOutcome{
			Result: entities.CommitResult{
				Kind:             entities.LedgerEventOffDayMarked,
				UserID:           event.UserID,
				Date:             state.day,
				NewTotalPower:    state.progression.TotalPowerPoints,
				DailyPointsToday: state.dayLog.DailyPoints,
				DailyMinimumMet:  true,
				CurrentStreak:    state.progression.CurrentStreak,
				BestStreak:       state.progression.BestStreak,
				CommittedAt:      existing.CreatedAt,
			},
			Replayed: true,
		}, nil
	}

	return commitDraft{
		offDay: &entities.OffDayRecord{
			UserID:    event.UserID,
			Date:      state.day,
			Reason:    event.OffDayReason,
			CreatedAt: state.now,
		},
		eventType: EventOffDayMarked,
		eventData: map[string]any{
			"reason": string(event.OffDayReason),
		},
	}, nil, nil
}
