package queries

import (
	"context"
	"strings"
	"time"

	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
	"powertrack/contexts/progression/power-engine/domain/services"
	"powertrack/contexts/progression/power-engine/ports"
)

type PowerHistoryPoint struct {
	Date             time.Time
	TotalPowerPoints int64
	Tier             entities.TierID
}

type PowerHistoryUseCase struct {
	Ledger ports.LedgerReader
	Clock  ports.Clock
	Policy services.Policy
}

// Execute returns the daily snapshots of the last `days` days including
// today, oldest first.
// days <= 0 selects the policy default and values above the policy maximum
// are capped.
func (uc PowerHistoryUseCase) Execute(ctx context.Context, userID string, days int) ([]PowerHistoryPoint, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	if _, found, err := uc.Ledger.GetProgression(ctx, userID); err != nil {
		return nil, err
	} else if !found {
		return nil, domainerrors.ErrUserNotFound
	}

	policy := uc.Policy.WithDefaults()
	if days <= 0 {
		days = policy.HistoryDefaultDays
	}
	if days > policy.HistoryMaxDays {
		days = policy.HistoryMaxDays
	}
	today := entities.DateOf(resolveNow(uc.Clock))
	snapshots, err := uc.Ledger.ListSnapshots(ctx, userID, ports.DayRange{
		From: entities.AddDays(today, -(days - 1)),
		To:   today,
	})
	if err != nil {
		return nil, err
	}

	items := make([]PowerHistoryPoint, 0, len(snapshots))
	for _, snapshot := range snapshots {
		items = append(items, PowerHistoryPoint{
			Date:             snapshot.Date,
			TotalPowerPoints: snapshot.TotalPowerPoints,
			Tier:             snapshot.Tier,
		})
	}
	return items, nil
}
