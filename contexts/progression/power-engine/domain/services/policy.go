package services

import (
	"fmt"

	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
)

// Policy groups the tunable scoring rules. ConsistencyBonusFactor and
// CommitRetries are taken as given, so zero disables the bonus or the retry.
type Policy struct {
	StreakSteps            StreakBonusTable                  `yaml:"streak_steps"`
	CategoryMultipliers    map[entities.CategoryKind]float64 `yaml:"category_multipliers"`
	ConsistencyBonusFactor float64                           `yaml:"consistency_bonus_factor"`
	DefaultDailyMinimum    int64                             `yaml:"default_daily_minimum"`
	StreakLookbackDays     int                               `yaml:"streak_lookback_days"`
	HistoryDefaultDays     int                               `yaml:"history_default_days"`
	HistoryMaxDays         int                               `yaml:"history_max_days"`
	CommitRetries          int                               `yaml:"commit_retries"`
}

func DefaultPolicy() Policy {
	return Policy{
		StreakSteps: DefaultStreakBonusTable(),
		CategoryMultipliers: map[entities.CategoryKind]float64{
			entities.CategoryKindSideBusiness: 1.5,
			entities.CategoryKindWork:         1.0,
			entities.CategoryKindPersonal:     0.7,
			entities.CategoryKindRecreational: 0.5,
		},
		ConsistencyBonusFactor: 0.5,
		DefaultDailyMinimum:    100,
		StreakLookbackDays:     730,
		HistoryDefaultDays:     30,
		HistoryMaxDays:         365,
		CommitRetries:          3,
	}
}

// WithDefaults fills the fields whose zero value has no meaning: the tables,
// the daily minimum and the day windows.
func (p Policy) WithDefaults() Policy {
	defaults := DefaultPolicy()
	if p.StreakSteps == nil {
		p.StreakSteps = defaults.StreakSteps
	}
	if p.CategoryMultipliers == nil {
		p.CategoryMultipliers = defaults.CategoryMultipliers
	}
	if p.DefaultDailyMinimum == 0 {
		p.DefaultDailyMinimum = defaults.DefaultDailyMinimum
	}
	if p.StreakLookbackDays == 0 {
		p.StreakLookbackDays = defaults.StreakLookbackDays
	}
	if p.HistoryDefaultDays == 0 {
		p.HistoryDefaultDays = defaults.HistoryDefaultDays
	}
	if p.HistoryMaxDays == 0 {
		p.HistoryMaxDays = defaults.HistoryMaxDays
	}
	return p
}

func (p Policy) Validate() error {
	for i, step := range p.StreakSteps {
		if step.MinDays <= 0 || step.BonusPct < 0 {
			return fmt.Errorf("%w: streak step %d must have positive days and non-negative bonus", domainerrors.ErrInvalidPolicy, i)
		}
		if i > 0 {
			prev := p.StreakSteps[i-1]
			if step.MinDays <= prev.MinDays {
				return fmt.Errorf("%w: streak steps must be sorted by min_days", domainerrors.ErrInvalidPolicy)
			}
			if step.BonusPct < prev.BonusPct {
				return fmt.Errorf("%w: streak bonus must not decrease with longer streaks", domainerrors.ErrInvalidPolicy)
			}
		}
	}
	for kind, multiplier := range p.CategoryMultipliers {
		if multiplier < 0 {
			return fmt.Errorf("%w: multiplier for %s is negative", domainerrors.ErrInvalidPolicy, kind)
		}
	}
	if p.ConsistencyBonusFactor < 0 {
		return fmt.Errorf("%w: consistency bonus factor is negative", domainerrors.ErrInvalidPolicy)
	}
	if p.DefaultDailyMinimum < 1 {
		return fmt.Errorf("%w: daily minimum must be at least 1", domainerrors.ErrInvalidPolicy)
	}
	if p.StreakLookbackDays < 0 || p.HistoryDefaultDays < 0 || p.HistoryMaxDays < 0 || p.CommitRetries < 0 {
		return fmt.Errorf("%w: limits must not be negative", domainerrors.ErrInvalidPolicy)
	}
	return nil
}

func (p Policy) StreakBonusPct(days int) float64 {
	return p.StreakSteps.PctFor(days)
}

// MultiplierFor resolves a category's multiplier. An explicit multiplier
// wins, then the policy value for the category kind, then 1.0.
func (p Policy) MultiplierFor(category *entities.Category) float64 {
	if category == nil {
		return 1.0
	}
	if category.Multiplier > 0 {
		return category.Multiplier
	}
	if multiplier, ok := p.CategoryMultipliers[category.Kind]; ok {
		return multiplier
	}
	return 1.0
}
