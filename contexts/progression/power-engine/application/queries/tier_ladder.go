package queries

import (
	"context"
	"strings"
	"time"

	"powertrack/contexts/progression/power-engine/domain/entities"
	"powertrack/contexts/progression/power-engine/domain/services"
	"powertrack/contexts/progression/power-engine/ports"
)

type TierLadderEntry struct {
	TierID         entities.TierID
	Name           string
	PointsRequired int64
	Unlocked       bool
	UnlockedAt     *time.Time
}

type TierLadderUseCase struct {
	Ledger ports.LedgerReader
	Ladder services.Ladder
}

// Execute lists the ladder in ascending order. Without a user (or for a user
// with no ledger yet) only the base tier is unlocked.
func (uc TierLadderUseCase) Execute(ctx context.Context, userID string) ([]TierLadderEntry, error) {
	var total int64
	unlockedAt := make(map[entities.TierID]time.Time)

	userID = strings.TrimSpace(userID)
	if userID != "" {
		progression, found, err := uc.Ledger.GetProgression(ctx, userID)
		if err != nil {
			return nil, err
		}
		if found {
			total = progression.TotalPowerPoints
			unlocks, err := uc.Ledger.ListTierUnlocks(ctx, userID)
			if err != nil {
				return nil, err
			}
			for _, item := range unlocks {
				unlockedAt[item.TierID] = item.UnlockedAt
			}
		}
	}

	tiers := uc.Ladder.Tiers()
	items := make([]TierLadderEntry, 0, len(tiers))
	for _, tier := range tiers {
		entry := TierLadderEntry{
			TierID:         tier.TierID,
			Name:           tier.Name,
			PointsRequired: tier.PointsRequired,
			Unlocked:       tier.PointsRequired <= total,
		}
		if at, ok := unlockedAt[tier.TierID]; ok && entry.Unlocked {
			entry.UnlockedAt = &at
		}
		items = append(items, entry)
	}
	return items, nil
}
