package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Dates on the wire are calendar days in UTC ("2006-01-02"). An empty date
// means today.

type CompleteHabitRequest struct {
	Date string `json:"date"`
}

type CompleteTaskRequest struct {
	Date         string `json:"date"`
	CompletionID string `json:"completion_id"`
}

type MarkOffDayRequest struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

type PointBreakdownDTO struct {
	BasePoints         int64   `json:"base_points"`
	CategoryMultiplier float64 `json:"category_multiplier"`
	EffectivePoints    int64   `json:"effective_points"`
	StreakDays         int     `json:"streak_days"`
	StreakBonusPct     float64 `json:"streak_bonus_pct"`
	StreakBonusPoints  int64   `json:"streak_bonus_points"`
	ConsistencyPending bool    `json:"consistency_pending"`
	Awarded            int64   `json:"awarded"`
}

type TransformationDTO struct {
	NewTier        string `json:"new_tier"`
	NewTierName    string `json:"new_tier_name"`
	NewTotalPoints int64  `json:"new_total_points"`
}

type CommitResultDTO struct {
	Kind               string             `json:"kind"`
	Date               string             `json:"date"`
	PointsAwarded      int64              `json:"points_awarded"`
	NewTotalPower      int64              `json:"new_total_power"`
	DailyPointsToday   int64              `json:"daily_points_today"`
	DailyMinimumMet    bool               `json:"daily_minimum_met"`
	NewTransformation  *TransformationDTO `json:"new_transformation,omitempty"`
	Breakdown          *PointBreakdownDTO `json:"breakdown,omitempty"`
	CurrentStreak      int                `json:"current_streak"`
	BestStreak         int                `json:"best_streak"`
	HabitStreak        int                `json:"habit_streak,omitempty"`
	AllHabitsCompleted bool               `json:"all_habits_completed"`
	CommittedAt        string             `json:"committed_at"`
}

type HabitCompletionResponse struct {
	Result           CommitResultDTO  `json:"result"`
	ConsistencyBonus *CommitResultDTO `json:"consistency_bonus,omitempty"`
	Replayed         bool             `json:"replayed"`
}

type TaskCompletionResponse struct {
	CompletionID string          `json:"completion_id"`
	Result       CommitResultDTO `json:"result"`
	Replayed     bool            `json:"replayed"`
}

type OffDayResponse struct {
	Date     string          `json:"date"`
	Reason   string          `json:"reason"`
	Result   CommitResultDTO `json:"result"`
	Replayed bool            `json:"replayed"`
}

type TierDTO struct {
	TierID         string `json:"tier_id"`
	Name           string `json:"name"`
	PointsRequired int64  `json:"points_required"`
}

type PowerStateResponse struct {
	UserID                  string   `json:"user_id"`
	TotalPowerPoints        int64    `json:"total_power_points"`
	Tier                    TierDTO  `json:"tier"`
	NextTier                *TierDTO `json:"next_tier,omitempty"`
	PointsToNext            int64    `json:"points_to_next"`
	ProgressPercentage      float64  `json:"progress_percentage"`
	DailyPointsToday        int64    `json:"daily_points_today"`
	DailyMinimum            int64    `json:"daily_minimum"`
	DailyMinimumMet         bool     `json:"daily_minimum_met"`
	IsOffDayToday           bool     `json:"is_off_day_today"`
	ConsistencyBonusApplied bool     `json:"consistency_bonus_applied"`
	HabitsDueToday          int      `json:"habits_due_today"`
	HabitsCompletedToday    int      `json:"habits_completed_today"`
	CurrentStreak           int      `json:"current_streak"`
	BestStreak              int      `json:"best_streak"`
	LastActivityDate        string   `json:"last_activity_date,omitempty"`
}

type TierLadderEntryDTO struct {
	TierID         string `json:"tier_id"`
	Name           string `json:"name"`
	PointsRequired int64  `json:"points_required"`
	Unlocked       bool   `json:"unlocked"`
	UnlockedAt     string `json:"unlocked_at,omitempty"`
}

type TierLadderResponse struct {
	Items []TierLadderEntryDTO `json:"items"`
}

type PowerHistoryPointDTO struct {
	Date             string `json:"date"`
	TotalPowerPoints int64  `json:"total_power_points"`
	Tier             string `json:"tier"`
}

type PowerHistoryResponse struct {
	Items []PowerHistoryPointDTO `json:"items"`
}

type HabitStatsResponse struct {
	HabitID          string  `json:"habit_id"`
	CurrentStreak    int     `json:"current_streak"`
	BestStreak       int     `json:"best_streak"`
	TotalCompletions int     `json:"total_completions"`
	TotalPoints      int64   `json:"total_points"`
	CompletionRate7  float64 `json:"completion_rate_7d"`
	CompletionRate30 float64 `json:"completion_rate_30d"`
	CompletionRate90 float64 `json:"completion_rate_90d"`
}

type LedgerReportResponse struct {
	UserID           string   `json:"user_id"`
	TotalPowerPoints int64    `json:"total_power_points"`
	SumOfDailyPoints int64    `json:"sum_of_daily_points"`
	DaysChecked      int      `json:"days_checked"`
	Consistent       bool     `json:"consistent"`
	Issues           []string `json:"issues"`
	Halted           bool     `json:"halted"`
}

type UpdateSettingsRequest struct {
	DailyPointMinimum int64 `json:"daily_point_minimum"`
}

type SettingsResponse struct {
	DailyPointMinimum int64           `json:"daily_point_minimum"`
	Result            CommitResultDTO `json:"result"`
}

type WeeklyDayDTO struct {
	Date            string `json:"date"`
	Points          int64  `json:"points"`
	HabitsCompleted int    `json:"habits_completed"`
	TasksCompleted  int    `json:"tasks_completed"`
	MinimumMet      bool   `json:"minimum_met"`
	IsOffDay        bool   `json:"is_off_day"`
}

type WeeklySummaryResponse struct {
	Days           []WeeklyDayDTO `json:"days"`
	TotalPoints    int64          `json:"total_points"`
	AverageDaily   float64        `json:"average_daily"`
	DaysMinimumMet int            `json:"days_minimum_met"`
	OffDays        int            `json:"off_days"`
}

type CategoryShareDTO struct {
	CategoryID       string  `json:"category_id"`
	Name             string  `json:"name"`
	Kind             string  `json:"kind,omitempty"`
	HabitPoints      int64   `json:"habit_points"`
	TaskPoints       int64   `json:"task_points"`
	TotalPoints      int64   `json:"total_points"`
	HabitCompletions int     `json:"habit_completions"`
	TaskCompletions  int     `json:"task_completions"`
	Percentage       float64 `json:"percentage"`
}

type CategoryBreakdownResponse struct {
	Items []CategoryShareDTO `json:"items"`
}

type HabitCalendarDayDTO struct {
	Date          string `json:"date"`
	Completed     bool   `json:"completed"`
	PointsAwarded int64  `json:"points_awarded"`
	IsOffDay      bool   `json:"is_off_day"`
}

type HabitCalendarResponse struct {
	HabitID        string                `json:"habit_id"`
	HabitName      string                `json:"habit_name"`
	Year           int                   `json:"year"`
	Month          int                   `json:"month"`
	Days           []HabitCalendarDayDTO `json:"days"`
	CompletionRate float64               `json:"completion_rate"`
}

type CalendarDayDTO struct {
	Date            string  `json:"date"`
	HabitsDue       int     `json:"habits_due"`
	HabitsCompleted int     `json:"habits_completed"`
	CompletionRate  float64 `json:"completion_rate"`
	HabitPoints     int64   `json:"habit_points"`
}

type MonthCalendarResponse struct {
	Year  int              `json:"year"`
	Month int              `json:"month"`
	Days  []CalendarDayDTO `json:"days"`
}
