package postgresadapter

import (
	"encoding/json"
	"time"

	"powertrack/contexts/progression/power-engine/domain/entities"

	"gorm.io/datatypes"
)

// Calendar days are stored as "YYYY-MM-DD" text so comparisons and keys
// never depend on the session time zone.

type habitModel struct {
	HabitID     string         `gorm:"column:habit_id;primaryKey"`
	UserID      string         `gorm:"column:user_id;index"`
	CategoryID  string         `gorm:"column:category_id"`
	Name        string         `gorm:"column:name"`
	BasePoints  int64          `gorm:"column:base_points"`
	Frequency   string         `gorm:"column:frequency"`
	CustomDays  datatypes.JSON `gorm:"column:custom_days"`
	IsTemporary bool           `gorm:"column:is_temporary"`
	StartDay    string         `gorm:"column:start_day"`
	EndDay      *string        `gorm:"column:end_day"`
	Archived    bool           `gorm:"column:archived"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
}

func (habitModel) TableName() string {
	return "power_habits"
}

func habitModelFromEntity(item entities.Habit) habitModel {
	names := make([]string, 0, len(item.CustomDays))
	for _, day := range item.CustomDays {
		names = append(names, entities.WeekdayName(day))
	}
	customDays, _ := json.Marshal(names)
	row := habitModel{
		HabitID:     item.HabitID,
		UserID:      item.UserID,
		CategoryID:  item.CategoryID,
		Name:        item.Name,
		BasePoints:  item.BasePoints,
		Frequency:   string(item.Frequency),
		CustomDays:  datatypes.JSON(customDays),
		IsTemporary: item.IsTemporary,
		StartDay:    dayOrEmpty(item.StartDate),
		Archived:    item.Archived,
		CreatedAt:   item.CreatedAt.UTC(),
	}
	if item.EndDate != nil {
		end := entities.DayKey(*item.EndDate)
		row.EndDay = &end
	}
	return row
}

func (m habitModel) toEntity() entities.Habit {
	var names []string
	_ = json.Unmarshal(m.CustomDays, &names)
	customDays := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		if day, ok := entities.ParseWeekday(name); ok {
			customDays = append(customDays, day)
		}
	}
	item := entities.Habit{
		HabitID:     m.HabitID,
		UserID:      m.UserID,
		CategoryID:  m.CategoryID,
		Name:        m.Name,
		BasePoints:  m.BasePoints,
		Frequency:   entities.Frequency(m.Frequency),
		CustomDays:  customDays,
		IsTemporary: m.IsTemporary,
		StartDate:   parseDay(m.StartDay),
		Archived:    m.Archived,
		CreatedAt:   m.CreatedAt.UTC(),
	}
	if m.EndDay != nil {
		end := parseDay(*m.EndDay)
		item.EndDate = &end
	}
	return item
}

type taskModel struct {
	TaskID     string    `gorm:"column:task_id;primaryKey"`
	UserID     string    `gorm:"column:user_id;index"`
	CategoryID string    `gorm:"column:category_id"`
	Title      string    `gorm:"column:title"`
	BasePoints int64     `gorm:"column:base_points"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (taskModel) TableName() string {
	return "power_tasks"
}

func (m taskModel) toEntity() entities.Task {
	return entities.Task{
		TaskID:     m.TaskID,
		UserID:     m.UserID,
		CategoryID: m.CategoryID,
		Title:      m.Title,
		BasePoints: m.BasePoints,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

type categoryModel struct {
	CategoryID string  `gorm:"column:category_id;primaryKey"`
	UserID     string  `gorm:"column:user_id;index"`
	Name       string  `gorm:"column:name"`
	Kind       string  `gorm:"column:kind"`
	Multiplier float64 `gorm:"column:multiplier"`
}

func (categoryModel) TableName() string {
	return "power_categories"
}

func (m categoryModel) toEntity() entities.Category {
	return entities.Category{
		CategoryID: m.CategoryID,
		UserID:     m.UserID,
		Name:       m.Name,
		Kind:       entities.CategoryKind(m.Kind),
		Multiplier: m.Multiplier,
	}
}

type progressionModel struct {
	UserID           string    `gorm:"column:user_id;primaryKey"`
	TotalPowerPoints int64     `gorm:"column:total_power_points"`
	CurrentStreak    int       `gorm:"column:current_streak"`
	BestStreak       int       `gorm:"column:best_streak"`
	CurrentTier      string    `gorm:"column:current_tier"`
	LastActivityDay  string    `gorm:"column:last_activity_day"`
	DailyMinimum     int64     `gorm:"column:daily_minimum"`
	Halted           bool      `gorm:"column:halted"`
	HaltReason       string    `gorm:"column:halt_reason"`
	Version          int64     `gorm:"column:version"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (progressionModel) TableName() string {
	return "power_user_progressions"
}

func progressionModelFromEntity(item entities.UserProgression) progressionModel {
	return progressionModel{
		UserID:           item.UserID,
		TotalPowerPoints: item.TotalPowerPoints,
		CurrentStreak:    item.CurrentStreak,
		BestStreak:       item.BestStreak,
		CurrentTier:      string(item.CurrentTier),
		LastActivityDay:  dayOrEmpty(item.LastActivityDate),
		DailyMinimum:     item.DailyMinimum,
		Halted:           item.Halted,
		HaltReason:       item.HaltReason,
		Version:          item.Version,
		CreatedAt:        item.CreatedAt.UTC(),
		UpdatedAt:        item.UpdatedAt.UTC(),
	}
}

func (m progressionModel) toEntity() entities.UserProgression {
	return entities.UserProgression{
		UserID:           m.UserID,
		TotalPowerPoints: m.TotalPowerPoints,
		CurrentStreak:    m.CurrentStreak,
		BestStreak:       m.BestStreak,
		CurrentTier:      entities.TierID(m.CurrentTier),
		LastActivityDate: parseDay(m.LastActivityDay),
		DailyMinimum:     m.DailyMinimum,
		Halted:           m.Halted,
		HaltReason:       m.HaltReason,
		Version:          m.Version,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

type dayLogModel struct {
	UserID                  string         `gorm:"column:user_id;primaryKey"`
	Day                     string         `gorm:"column:day;primaryKey"`
	HabitPoints             int64          `gorm:"column:habit_points"`
	TaskPoints              int64          `gorm:"column:task_points"`
	BonusPoints             int64          `gorm:"column:bonus_points"`
	DailyPoints             int64          `gorm:"column:daily_points"`
	HabitsDue               int            `gorm:"column:habits_due"`
	HabitsCompleted         int            `gorm:"column:habits_completed"`
	TasksCompleted          int            `gorm:"column:tasks_completed"`
	ConsistencyBonusApplied bool           `gorm:"column:consistency_bonus_applied"`
	ConsistencyBonus        datatypes.JSON `gorm:"column:consistency_bonus;not null;default:'null'"`
	UpdatedAt               time.Time      `gorm:"column:updated_at"`
}

func (dayLogModel) TableName() string {
	return "power_day_logs"
}

func dayLogModelFromEntity(item entities.DayLog) (dayLogModel, error) {
	row := dayLogModel{
		UserID:                  item.UserID,
		Day:                     entities.DayKey(item.Date),
		HabitPoints:             item.HabitPoints,
		TaskPoints:              item.TaskPoints,
		BonusPoints:             item.BonusPoints,
		DailyPoints:             item.DailyPoints,
		HabitsDue:               item.HabitsDue,
		HabitsCompleted:         item.HabitsCompleted,
		TasksCompleted:          item.TasksCompleted,
		ConsistencyBonusApplied: item.ConsistencyBonusApplied,
		UpdatedAt:               item.UpdatedAt.UTC(),
	}
	// A missing grant is stored as JSON null, never SQL NULL.
	grant, err := json.Marshal(item.ConsistencyBonus)
	if err != nil {
		return dayLogModel{}, err
	}
	row.ConsistencyBonus = datatypes.JSON(grant)
	return row, nil
}

func (m dayLogModel) toEntity() entities.DayLog {
	item := entities.DayLog{
		UserID:                  m.UserID,
		Date:                    parseDay(m.Day),
		HabitPoints:             m.HabitPoints,
		TaskPoints:              m.TaskPoints,
		BonusPoints:             m.BonusPoints,
		DailyPoints:             m.DailyPoints,
		HabitsDue:               m.HabitsDue,
		HabitsCompleted:         m.HabitsCompleted,
		TasksCompleted:          m.TasksCompleted,
		ConsistencyBonusApplied: m.ConsistencyBonusApplied,
		UpdatedAt:               m.UpdatedAt.UTC(),
	}
	if len(m.ConsistencyBonus) > 0 {
		var grant *entities.ConsistencyBonusGrant
		if err := json.Unmarshal(m.ConsistencyBonus, &grant); err == nil {
			item.ConsistencyBonus = grant
		}
	}
	return item
}

type offDayModel struct {
	UserID    string    `gorm:"column:user_id;primaryKey"`
	Day       string    `gorm:"column:day;primaryKey"`
	Reason    string    `gorm:"column:reason"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (offDayModel) TableName() string {
	return "power_off_days"
}

func (m offDayModel) toEntity() entities.OffDayRecord {
	return entities.OffDayRecord{
		UserID:    m.UserID,
		Date:      parseDay(m.Day),
		Reason:    entities.OffDayReason(m.Reason),
		CreatedAt: m.CreatedAt.UTC(),
	}
}

type habitRecordModel struct {
	HabitID       string         `gorm:"column:habit_id;primaryKey"`
	Day           string         `gorm:"column:day;primaryKey;index:idx_power_habit_records_user_day,priority:2"`
	UserID        string         `gorm:"column:user_id;index:idx_power_habit_records_user_day,priority:1"`
	Completed     bool           `gorm:"column:completed"`
	PointsAwarded int64          `gorm:"column:points_awarded"`
	HabitStreak   int            `gorm:"column:habit_streak"`
	Result        datatypes.JSON `gorm:"column:result"`
	CompletedAt   time.Time      `gorm:"column:completed_at"`
}

func (habitRecordModel) TableName() string {
	return "power_habit_records"
}

func habitRecordModelFromEntity(item entities.HabitDayRecord) (habitRecordModel, error) {
	result, err := json.Marshal(item.Result)
	if err != nil {
		return habitRecordModel{}, err
	}
	return habitRecordModel{
		HabitID:       item.HabitID,
		Day:           entities.DayKey(item.Date),
		UserID:        item.UserID,
		Completed:     item.Completed,
		PointsAwarded: item.PointsAwarded,
		HabitStreak:   item.HabitStreak,
		Result:        datatypes.JSON(result),
		CompletedAt:   item.CompletedAt.UTC(),
	}, nil
}

func (m habitRecordModel) toEntity() entities.HabitDayRecord {
	item := entities.HabitDayRecord{
		HabitID:       m.HabitID,
		UserID:        m.UserID,
		Date:          parseDay(m.Day),
		Completed:     m.Completed,
		PointsAwarded: m.PointsAwarded,
		HabitStreak:   m.HabitStreak,
		CompletedAt:   m.CompletedAt.UTC(),
	}
	_ = json.Unmarshal(m.Result, &item.Result)
	return item
}

type taskCompletionModel struct {
	CompletionID  string         `gorm:"column:completion_id;primaryKey"`
	TaskID        string         `gorm:"column:task_id"`
	UserID        string         `gorm:"column:user_id;index:idx_power_task_completions_user_day"`
	Day           string         `gorm:"column:day;index:idx_power_task_completions_user_day"`
	PointsAwarded int64          `gorm:"column:points_awarded"`
	Result        datatypes.JSON `gorm:"column:result"`
	CompletedAt   time.Time      `gorm:"column:completed_at"`
}

func (taskCompletionModel) TableName() string {
	return "power_task_completions"
}

func taskCompletionModelFromEntity(item entities.TaskCompletion) (taskCompletionModel, error) {
	result, err := json.Marshal(item.Result)
	if err != nil {
		return taskCompletionModel{}, err
	}
	return taskCompletionModel{
		CompletionID:  item.CompletionID,
		TaskID:        item.TaskID,
		UserID:        item.UserID,
		Day:           entities.DayKey(item.Date),
		PointsAwarded: item.PointsAwarded,
		Result:        datatypes.JSON(result),
		CompletedAt:   item.CompletedAt.UTC(),
	}, nil
}

func (m taskCompletionModel) toEntity() entities.TaskCompletion {
	item := entities.TaskCompletion{
		CompletionID:  m.CompletionID,
		TaskID:        m.TaskID,
		UserID:        m.UserID,
		Date:          parseDay(m.Day),
		PointsAwarded: m.PointsAwarded,
		CompletedAt:   m.CompletedAt.UTC(),
	}
	_ = json.Unmarshal(m.Result, &item.Result)
	return item
}

type snapshotModel struct {
	UserID           string    `gorm:"column:user_id;primaryKey"`
	Day              string    `gorm:"column:day;primaryKey"`
	TotalPowerPoints int64     `gorm:"column:total_power_points"`
	Tier             string    `gorm:"column:tier"`
	RecordedAt       time.Time `gorm:"column:recorded_at"`
}

func (snapshotModel) TableName() string {
	return "power_snapshots"
}

func (m snapshotModel) toEntity() entities.PowerSnapshot {
	return entities.PowerSnapshot{
		UserID:           m.UserID,
		Date:             parseDay(m.Day),
		TotalPowerPoints: m.TotalPowerPoints,
		Tier:             entities.TierID(m.Tier),
		RecordedAt:       m.RecordedAt.UTC(),
	}
}

type tierUnlockModel struct {
	UserID        string    `gorm:"column:user_id;primaryKey"`
	TierID        string    `gorm:"column:tier_id;primaryKey"`
	TotalAtUnlock int64     `gorm:"column:total_at_unlock"`
	UnlockedAt    time.Time `gorm:"column:unlocked_at"`
}

func (tierUnlockModel) TableName() string {
	return "power_tier_unlocks"
}

func (m tierUnlockModel) toEntity() entities.TierUnlock {
	return entities.TierUnlock{
		UserID:        m.UserID,
		TierID:        entities.TierID(m.TierID),
		TotalAtUnlock: m.TotalAtUnlock,
		UnlockedAt:    m.UnlockedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "power_outbox"
}

func dayOrEmpty(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return entities.DayKey(value)
}

func parseDay(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	day, err := entities.ParseDay(value)
	if err != nil {
		return time.Time{}
	}
	return day
}
