package entities

import (
	"strings"
	"time"
)

type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekdays Frequency = "weekdays"
	FrequencyCustom   Frequency = "custom"
)

type CategoryKind string

const (
	CategoryKindSideBusiness CategoryKind = "side_business"
	CategoryKindWork         CategoryKind = "work"
	CategoryKindPersonal     CategoryKind = "personal"
	CategoryKindRecreational CategoryKind = "recreational"
)

// Category carries the point multiplier applied to every habit and task
// filed under it. A zero Multiplier defers to the policy default for Kind.
type Category struct {
	CategoryID string
	UserID     string
	Name       string
	Kind       CategoryKind
	Multiplier float64
}

type Habit struct {
	HabitID     string
	UserID      string
	CategoryID  string
	Name        string
	BasePoints  int64
	Frequency   Frequency
	CustomDays  []time.Weekday
	IsTemporary bool
	StartDate   time.Time
	EndDate     *time.Time
	Archived    bool
	CreatedAt   time.Time
}

type Task struct {
	TaskID     string
	UserID     string
	CategoryID string
	Title      string
	BasePoints int64
	CreatedAt  time.Time
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWeekday accepts three-letter or full English day names.
func ParseWeekday(value string) (time.Weekday, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if len(normalized) > 3 {
		normalized = normalized[:3]
	}
	day, ok := weekdayNames[normalized]
	return day, ok
}

func WeekdayName(day time.Weekday) string {
	return strings.ToLower(day.String()[:3])
}
