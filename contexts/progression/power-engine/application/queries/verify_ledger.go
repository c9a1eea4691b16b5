package queries

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "powertrack/contexts/progression/power-engine/application"
	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
	"powertrack/contexts/progression/power-engine/domain/services"
	"powertrack/contexts/progression/power-engine/ports"
)

type LedgerReport struct {
	UserID           string
	TotalPowerPoints int64
	SumOfDailyPoints int64
	DaysChecked      int
	Issues           []string
	Halted           bool
}

func (r LedgerReport) Consistent() bool {
	return len(r.Issues) == 0
}

// VerifyLedgerUseCase recomputes a user's totals from the per-day records
// and reports every mismatch. With HaltOnViolation set, an inconsistent
// user is halted until reconciled.
type VerifyLedgerUseCase struct {
	Ledger          ports.LedgerRepository
	Clock           ports.Clock
	Ladder          services.Ladder
	HaltOnViolation bool
	Logger          *slog.Logger
}

func (uc VerifyLedgerUseCase) Execute(ctx context.Context, userID string) (LedgerReport, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return LedgerReport{}, domainerrors.ErrInvalidInput
	}
	progression, found, err := uc.Ledger.GetProgression(ctx, userID)
	if err != nil {
		return LedgerReport{}, err
	}
	if !found {
		return LedgerReport{}, domainerrors.ErrUserNotFound
	}

	report := LedgerReport{
		UserID:           userID,
		TotalPowerPoints: progression.TotalPowerPoints,
		Halted:           progression.Halted,
	}
	logs, err := uc.Ledger.ListDayLogs(ctx, userID, ports.DayRange{})
	if err != nil {
		return LedgerReport{}, err
	}
	for _, dayLog := range logs {
		report.DaysChecked++
		report.SumOfDailyPoints += dayLog.DailyPoints
		issues, err := uc.verifyDay(ctx, userID, dayLog)
		if err != nil {
			return LedgerReport{}, err
		}
		report.Issues = append(report.Issues, issues...)
	}

	if report.SumOfDailyPoints != progression.TotalPowerPoints {
		report.Issues = append(report.Issues, fmt.Sprintf(
			"total power points %d differ from sum of daily points %d",
			progression.TotalPowerPoints, report.SumOfDailyPoints,
		))
	}
	if expected := uc.Ladder.TierFor(progression.TotalPowerPoints).TierID; expected != progression.CurrentTier {
		report.Issues = append(report.Issues, fmt.Sprintf(
			"stored tier %s does not match %s", progression.CurrentTier, expected,
		))
	}

	if !report.Consistent() {
		logger.Error("power ledger verification failed",
			"event", "power_ledger_verification_failed",
			"module", "progression/power-engine",
			"layer", "application",
			"user_id", userID,
			"issue_count", len(report.Issues),
			"first_issue", report.Issues[0],
		)
		if uc.HaltOnViolation && !progression.Halted {
			if err := uc.Ledger.HaltUser(ctx, userID, report.Issues[0], resolveNow(uc.Clock)); err != nil {
				return report, err
			}
			report.Halted = true
		}
	}
	return report, nil
}

func (uc VerifyLedgerUseCase) verifyDay(ctx context.Context, userID string, dayLog entities.DayLog) ([]string, error) {
	var issues []string
	key := entities.DayKey(dayLog.Date)
	if dayLog.DailyPoints != dayLog.ComponentSum() {
		issues = append(issues, fmt.Sprintf("day %s daily points %d differ from components %d",
			key, dayLog.DailyPoints, dayLog.ComponentSum()))
	}

	habits, err := uc.Ledger.ListHabitRecordsByUserDay(ctx, userID, dayLog.Date)
	if err != nil {
		return nil, err
	}
	var habitPoints int64
	for _, record := range habits {
		habitPoints += record.PointsAwarded
	}
	if habitPoints != dayLog.HabitPoints {
		issues = append(issues, fmt.Sprintf("day %s habit points %d differ from records %d",
			key, dayLog.HabitPoints, habitPoints))
	}

	tasks, err := uc.Ledger.ListTaskCompletionsByUserDay(ctx, userID, dayLog.Date)
	if err != nil {
		return nil, err
	}
	var taskPoints int64
	for _, completion := range tasks {
		taskPoints += completion.PointsAwarded
	}
	if taskPoints != dayLog.TaskPoints {
		issues = append(issues, fmt.Sprintf("day %s task points %d differ from completions %d",
			key, dayLog.TaskPoints, taskPoints))
	}
	if dayLog.BonusPoints > 0 && !dayLog.ConsistencyBonusApplied {
		issues = append(issues, fmt.Sprintf("day %s has bonus points without the applied flag", key))
	}
	return issues, nil
}
