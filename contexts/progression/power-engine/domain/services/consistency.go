package services

import (
	"powertrack/contexts/progression/power-engine/domain/entities"

	"github.com/shopspring/decimal"
)

// AllDueCompleted is false when nothing is due: an empty day earns no bonus.
func AllDueCompleted(due []entities.Habit, completed map[string]bool) bool {
	if len(due) == 0 {
		return false
	}
	for _, habit := range due {
		if !completed[habit.HabitID] {
			return false
		}
	}
	return true
}

// ConsistencyBonus is the top-up added once all due habits are done:
// round(factor * habitPoints). With factor 0.5 the day totals 1.5x.
func ConsistencyBonus(habitPoints int64, factor float64) int64 {
	if habitPoints <= 0 || factor <= 0 {
		return 0
	}
	return decimal.NewFromInt(habitPoints).
		Mul(decimal.NewFromFloat(factor)).
		Round(0).
		IntPart()
}
