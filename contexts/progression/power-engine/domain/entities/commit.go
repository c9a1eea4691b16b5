package entities

import "time"

type LedgerEventKind string

const (
	LedgerEventHabitCompleted          LedgerEventKind = "habit_completed"
	LedgerEventTaskCompleted           LedgerEventKind = "task_completed"
	LedgerEventOffDayMarked            LedgerEventKind = "off_day_marked"
	LedgerEventConsistencyBonusGranted LedgerEventKind = "consistency_bonus_granted"
	LedgerEventDailyMinimumChanged     LedgerEventKind = "daily_minimum_changed"
)

// LedgerEvent is the single input accepted by the ledger commit path.
// Only the fields relevant to Kind are read.
type LedgerEvent struct {
	Kind         LedgerEventKind
	UserID       string
	Date         time.Time
	HabitID      string
	TaskID       string
	CompletionID string
	OffDayReason OffDayReason
	DailyMinimum int64
}

type PointBreakdown struct {
	BasePoints         int64   `json:"base_points"`
	CategoryMultiplier float64 `json:"category_multiplier"`
	EffectivePoints    int64   `json:"effective_points"`
	StreakDays         int     `json:"streak_days"`
	StreakBonusPct     float64 `json:"streak_bonus_pct"`
	StreakBonusPoints  int64   `json:"streak_bonus_points"`
	ConsistencyPending bool    `json:"consistency_pending"`
	Awarded            int64   `json:"awarded"`
}

// CommitResult is the outcome of one applied ledger commit. Completion
// results are persisted with their record and returned verbatim on replay.
type CommitResult struct {
	Kind               LedgerEventKind      `json:"kind"`
	UserID             string               `json:"user_id"`
	Date               time.Time            `json:"date"`
	PointsAwarded      int64                `json:"points_awarded"`
	NewTotalPower      int64                `json:"new_total_power"`
	DailyPointsToday   int64                `json:"daily_points_today"`
	DailyMinimumMet    bool                 `json:"daily_minimum_met"`
	NewTransformation  *TransformationEvent `json:"new_transformation,omitempty"`
	Breakdown          *PointBreakdown      `json:"breakdown,omitempty"`
	CurrentStreak      int                  `json:"current_streak"`
	BestStreak         int                  `json:"best_streak"`
	HabitStreak        int                  `json:"habit_streak,omitempty"`
	AllHabitsCompleted bool                 `json:"all_habits_completed"`
	CommittedAt        time.Time            `json:"committed_at"`
}
