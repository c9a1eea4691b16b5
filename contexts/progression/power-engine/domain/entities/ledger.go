package entities

import "time"

// UserProgression is the per-user aggregate owned by the power ledger.
// Version increases by one on every applied commit.
type UserProgression struct {
	UserID           string
	TotalPowerPoints int64
	CurrentStreak    int
	BestStreak       int
	CurrentTier      TierID
	LastActivityDate time.Time
	DailyMinimum     int64
	Halted           bool
	HaltReason       string
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DayLog holds the points a user earned on one calendar day, split by source.
type DayLog struct {
	UserID                  string
	Date                    time.Time
	HabitPoints             int64
	TaskPoints              int64
	BonusPoints             int64
	DailyPoints             int64
	HabitsDue               int
	HabitsCompleted         int
	TasksCompleted          int
	ConsistencyBonusApplied bool
	ConsistencyBonus        *ConsistencyBonusGrant
	UpdatedAt               time.Time
}

// ConsistencyBonusGrant is the stored result of the day's bonus commit.
// HabitID names the completion that finished the day; it is empty when the
// bonus was granted by the day close-out.
type ConsistencyBonusGrant struct {
	HabitID string       `json:"habit_id,omitempty"`
	Result  CommitResult `json:"result"`
}

func (d DayLog) ComponentSum() int64 {
	return d.HabitPoints + d.TaskPoints + d.BonusPoints
}

func (d DayLog) CompletionRate() float64 {
	if d.HabitsDue <= 0 {
		return 0
	}
	return float64(d.HabitsCompleted) / float64(d.HabitsDue) * 100
}

// HabitDayRecord is write-once: Completed and PointsAwarded never change after
// the first successful completion for (HabitID, Date).
type HabitDayRecord struct {
	HabitID       string
	UserID        string
	Date          time.Time
	Completed     bool
	PointsAwarded int64
	HabitStreak   int
	Result        CommitResult
	CompletedAt   time.Time
}

type TaskCompletion struct {
	CompletionID  string
	TaskID        string
	UserID        string
	Date          time.Time
	PointsAwarded int64
	Result        CommitResult
	CompletedAt   time.Time
}

type OffDayReason string

const (
	OffDayReasonSick     OffDayReason = "sick"
	OffDayReasonVacation OffDayReason = "vacation"
	OffDayReasonRest     OffDayReason = "rest"
	OffDayReasonInjury   OffDayReason = "injury"
	OffDayReasonOther    OffDayReason = "other"
)

func (r OffDayReason) Valid() bool {
	switch r {
	case OffDayReasonSick, OffDayReasonVacation, OffDayReasonRest, OffDayReasonInjury, OffDayReasonOther:
		return true
	default:
		return false
	}
}

type OffDayRecord struct {
	UserID    string
	Date      time.Time
	Reason    OffDayReason
	CreatedAt time.Time
}

// PowerSnapshot is the latest known total for a user on a calendar day.
type PowerSnapshot struct {
	UserID           string
	Date             time.Time
	TotalPowerPoints int64
	Tier             TierID
	RecordedAt       time.Time
}

type TierUnlock struct {
	UserID        string
	TierID        TierID
	TotalAtUnlock int64
	UnlockedAt    time.Time
}
