package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "powertrack/contexts/progression/power-engine/application"
	"powertrack/contexts/progression/power-engine/application/commands"
	"powertrack/contexts/progression/power-engine/application/queries"
	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
	"powertrack/contexts/progression/power-engine/ports"
)

// DayCloseout runs after midnight: it grants any consistency bonus for the
// day that just ended which a failed or missing completion-time check left
// behind, then verifies each user's ledger.
type DayCloseout struct {
	Users    ports.LedgerReader
	Ledger   commands.LedgerUseCase
	Verifier queries.VerifyLedgerUseCase
	Clock    ports.Clock
	Logger   *slog.Logger
}

type CloseoutSummary struct {
	UsersScanned   int
	BonusesGranted int
	Inconsistent   int
	Halted         int
}

func (j DayCloseout) RunOnce(ctx context.Context) (CloseoutSummary, error) {
	logger := application.ResolveLogger(j.Logger)
	summary := CloseoutSummary{}
	yesterday := entities.AddDays(j.now(), -1)

	userIDs, err := j.Users.ListUserIDs(ctx)
	if err != nil {
		return summary, err
	}
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.UsersScanned++

		bonus, err := j.Ledger.GrantConsistencyBonus(ctx, userID, yesterday)
		switch {
		case errors.Is(err, domainerrors.ErrInvariantViolation):
			summary.Halted++
			continue
		case err != nil:
			logger.Error("day closeout bonus evaluation failed",
				"event", "power_closeout_bonus_failed",
				"module", "progression/power-engine",
				"layer", "worker",
				"user_id", userID,
				"error", err.Error(),
			)
			return summary, err
		case bonus != nil:
			summary.BonusesGranted++
		}

		report, err := j.Verifier.Execute(ctx, userID)
		if err != nil {
			return summary, err
		}
		if !report.Consistent() {
			summary.Inconsistent++
		}
		if report.Halted {
			summary.Halted++
		}
	}

	logger.Info("day closeout completed",
		"event", "power_closeout_completed",
		"module", "progression/power-engine",
		"layer", "worker",
		"day", entities.DayKey(yesterday),
		"users_scanned", summary.UsersScanned,
		"bonuses_granted", summary.BonusesGranted,
		"inconsistent", summary.Inconsistent,
	)
	return summary, nil
}

func (j DayCloseout) now() time.Time {
	if j.Clock == nil {
		return time.Now().UTC()
	}
	return j.Clock.Now().UTC()
}
