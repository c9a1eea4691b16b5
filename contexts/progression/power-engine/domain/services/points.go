package services

import (
	"sort"

	"powertrack/contexts/progression/power-engine/domain/entities"

	"github.com/shopspring/decimal"
)

type StreakStep struct {
	MinDays  int     `yaml:"min_days"`
	BonusPct float64 `yaml:"bonus_pct"`
}

// StreakBonusTable is a step function of streak length, sorted by MinDays.
type StreakBonusTable []StreakStep

func DefaultStreakBonusTable() StreakBonusTable {
	return StreakBonusTable{
		{MinDays: 3, BonusPct: 0.10},
		{MinDays: 7, BonusPct: 0.25},
		{MinDays: 30, BonusPct: 0.50},
	}
}

func (t StreakBonusTable) PctFor(days int) float64 {
	idx := sort.Search(len(t), func(i int) bool {
		return t[i].MinDays > days
	})
	if idx == 0 {
		return 0
	}
	return t[idx-1].BonusPct
}

// Calculate turns a completion into awarded points:
//
//	effective = round(base * multiplier)
//	bonus     = round(effective * streakBonusPct)
//	awarded   = effective + bonus
//
// Rounding is half away from zero. consistencyPending is recorded in the
// breakdown only; the consistency multiplier is granted by a separate commit.
func Calculate(
	basePoints int64,
	categoryMultiplier float64,
	streakBonusPct float64,
	consistencyPending bool,
) (int64, entities.PointBreakdown) {
	if basePoints < 0 {
		basePoints = 0
	}
	if categoryMultiplier < 0 {
		categoryMultiplier = 0
	}
	if streakBonusPct < 0 {
		streakBonusPct = 0
	}

	effective := decimal.NewFromInt(basePoints).
		Mul(decimal.NewFromFloat(categoryMultiplier)).
		Round(0)
	bonus := effective.
		Mul(decimal.NewFromFloat(streakBonusPct)).
		Round(0)
	awarded := effective.Add(bonus)

	return awarded.IntPart(), entities.PointBreakdown{
		BasePoints:         basePoints,
		CategoryMultiplier: categoryMultiplier,
		EffectivePoints:    effective.IntPart(),
		StreakBonusPct:     streakBonusPct,
		StreakBonusPoints:  bonus.IntPart(),
		ConsistencyPending: consistencyPending,
		Awarded:            awarded.IntPart(),
	}
}
