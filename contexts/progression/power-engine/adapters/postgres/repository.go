package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
	"powertrack/contexts/progression/power-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates or updates the power ledger tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&habitModel{},
		&taskModel{},
		&categoryModel{},
		&progressionModel{},
		&dayLogModel{},
		&offDayModel{},
		&habitRecordModel{},
		&taskCompletionModel{},
		&snapshotModel{},
		&tierUnlockModel{},
		&outboxModel{},
	)
}

func (r *Repository) UpsertHabit(ctx context.Context, habit entities.Habit) error {
	row := habitModelFromEntity(habit)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "habit_id"}},
			UpdateAll: true,
		}).
		Create(&row).
		Error
}

func (r *Repository) UpsertTask(ctx context.Context, task entities.Task) error {
	row := taskModel{
		TaskID:     strings.TrimSpace(task.TaskID),
		UserID:     strings.TrimSpace(task.UserID),
		CategoryID: strings.TrimSpace(task.CategoryID),
		Title:      task.Title,
		BasePoints: task.BasePoints,
		CreatedAt:  task.CreatedAt.UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}},
			UpdateAll: true,
		}).
		Create(&row).
		Error
}

func (r *Repository) UpsertCategory(ctx context.Context, category entities.Category) error {
	row := categoryModel{
		CategoryID: strings.TrimSpace(category.CategoryID),
		UserID:     strings.TrimSpace(category.UserID),
		Name:       category.Name,
		Kind:       string(category.Kind),
		Multiplier: category.Multiplier,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category_id"}},
			UpdateAll: true,
		}).
		Create(&row).
		Error
}

func (r *Repository) GetHabit(ctx context.Context, habitID string) (entities.Habit, error) {
	var row habitModel
	err := r.db.WithContext(ctx).
		Where("habit_id = ?", strings.TrimSpace(habitID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Habit{}, domainerrors.ErrHabitNotFound
		}
		return entities.Habit{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListHabitsByUser(ctx context.Context, userID string) ([]entities.Habit, error) {
	var rows []habitModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at ASC").
		Order("habit_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Habit, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetTask(ctx context.Context, taskID string) (entities.Task, error) {
	var row taskModel
	err := r.db.WithContext(ctx).
		Where("task_id = ?", strings.TrimSpace(taskID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Task{}, domainerrors.ErrTaskNotFound
		}
		return entities.Task{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetCategory(ctx context.Context, categoryID string) (entities.Category, error) {
	var row categoryModel
	err := r.db.WithContext(ctx).
		Where("category_id = ?", strings.TrimSpace(categoryID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Category{}, domainerrors.ErrCategoryNotFound
		}
		return entities.Category{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetProgression(ctx context.Context, userID string) (entities.UserProgression, bool, error) {
	var row progressionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.UserProgression{}, false, nil
		}
		return entities.UserProgression{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListUserIDs(ctx context.Context) ([]string, error) {
	var userIDs []string
	if err := r.db.WithContext(ctx).
		Model(&progressionModel{}).
		Order("user_id ASC").
		Pluck("user_id", &userIDs).
		Error; err != nil {
		return nil, err
	}
	return userIDs, nil
}

func (r *Repository) GetDayLog(ctx context.Context, userID string, day time.Time) (entities.DayLog, bool, error) {
	var row dayLogModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", strings.TrimSpace(userID), entities.DayKey(day)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.DayLog{}, false, nil
		}
		return entities.DayLog{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListDayLogs(ctx context.Context, userID string, window ports.DayRange) ([]entities.DayLog, error) {
	var rows []dayLogModel
	tx := r.db.WithContext(ctx).Where("user_id = ?", strings.TrimSpace(userID))
	if err := withinWindow(tx, window).Order("day ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.DayLog, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetOffDay(ctx context.Context, userID string, day time.Time) (entities.OffDayRecord, bool, error) {
	var row offDayModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", strings.TrimSpace(userID), entities.DayKey(day)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.OffDayRecord{}, false, nil
		}
		return entities.OffDayRecord{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListOffDays(ctx context.Context, userID string, window ports.DayRange) ([]entities.OffDayRecord, error) {
	var rows []offDayModel
	tx := r.db.WithContext(ctx).Where("user_id = ?", strings.TrimSpace(userID))
	if err := withinWindow(tx, window).Order("day ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.OffDayRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetHabitRecord(ctx context.Context, habitID string, day time.Time) (entities.HabitDayRecord, bool, error) {
	var row habitRecordModel
	err := r.db.WithContext(ctx).
		Where("habit_id = ? AND day = ?", strings.TrimSpace(habitID), entities.DayKey(day)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.HabitDayRecord{}, false, nil
		}
		return entities.HabitDayRecord{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListHabitRecords(ctx context.Context, habitID string, window ports.DayRange) ([]entities.HabitDayRecord, error) {
	var rows []habitRecordModel
	tx := r.db.WithContext(ctx).Where("habit_id = ?", strings.TrimSpace(habitID))
	if err := withinWindow(tx, window).Order("day ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.HabitDayRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListHabitRecordsByUserDay(ctx context.Context, userID string, day time.Time) ([]entities.HabitDayRecord, error) {
	var rows []habitRecordModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", strings.TrimSpace(userID), entities.DayKey(day)).
		Order("habit_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.HabitDayRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListHabitRecordsByUser(ctx context.Context, userID string, window ports.DayRange) ([]entities.HabitDayRecord, error) {
	var rows []habitRecordModel
	tx := r.db.WithContext(ctx).Where("user_id = ?", strings.TrimSpace(userID))
	if err := withinWindow(tx, window).Order("day ASC").Order("habit_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.HabitDayRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetTaskCompletion(ctx context.Context, completionID string) (entities.TaskCompletion, bool, error) {
	var row taskCompletionModel
	err := r.db.WithContext(ctx).
		Where("completion_id = ?", strings.TrimSpace(completionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.TaskCompletion{}, false, nil
		}
		return entities.TaskCompletion{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListTaskCompletionsByUserDay(ctx context.Context, userID string, day time.Time) ([]entities.TaskCompletion, error) {
	var rows []taskCompletionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", strings.TrimSpace(userID), entities.DayKey(day)).
		Order("completed_at ASC").
		Order("completion_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.TaskCompletion, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListTaskCompletions(ctx context.Context, userID string, window ports.DayRange) ([]entities.TaskCompletion, error) {
	var rows []taskCompletionModel
	tx := r.db.WithContext(ctx).Where("user_id = ?", strings.TrimSpace(userID))
	if err := withinWindow(tx, window).
		Order("day ASC").
		Order("completed_at ASC").
		Order("completion_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.TaskCompletion, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListSnapshots(ctx context.Context, userID string, window ports.DayRange) ([]entities.PowerSnapshot, error) {
	var rows []snapshotModel
	tx := r.db.WithContext(ctx).Where("user_id = ?", strings.TrimSpace(userID))
	if err := withinWindow(tx, window).Order("day ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.PowerSnapshot, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListTierUnlocks(ctx context.Context, userID string) ([]entities.TierUnlock, error) {
	var rows []tierUnlockModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("unlocked_at ASC").
		Order("total_at_unlock ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.TierUnlock, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// ApplyCommit writes one ledger mutation in a single transaction. The
// progression row acts as the optimistic lock: it is inserted for a new
// user or updated only when its version still equals ExpectedVersion.
func (r *Repository) ApplyCommit(ctx context.Context, mutation ports.LedgerMutation) error {
	userID := strings.TrimSpace(mutation.Progression.UserID)
	if userID == "" {
		return domainerrors.ErrInvalidInput
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.writeProgressionTx(tx, mutation); err != nil {
			return err
		}

		dayLog, err := dayLogModelFromEntity(mutation.DayLog)
		if err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"habit_points",
				"task_points",
				"bonus_points",
				"daily_points",
				"habits_due",
				"habits_completed",
				"tasks_completed",
				"consistency_bonus_applied",
				"consistency_bonus",
				"updated_at",
			}),
		}).Create(&dayLog).Error; err != nil {
			return err
		}

		if mutation.HabitRecord != nil {
			row, err := habitRecordModelFromEntity(*mutation.HabitRecord)
			if err != nil {
				return err
			}
			if err := tx.Create(&row).Error; err != nil {
				return conflictOr(err)
			}
		}
		if mutation.TaskCompletion != nil {
			row, err := taskCompletionModelFromEntity(*mutation.TaskCompletion)
			if err != nil {
				return err
			}
			if err := tx.Create(&row).Error; err != nil {
				return conflictOr(err)
			}
		}
		if mutation.OffDay != nil {
			row := offDayModel{
				UserID:    userID,
				Day:       entities.DayKey(mutation.OffDay.Date),
				Reason:    string(mutation.OffDay.Reason),
				CreatedAt: mutation.OffDay.CreatedAt.UTC(),
			}
			if err := tx.Create(&row).Error; err != nil {
				return conflictOr(err)
			}
		}

		snapshot := snapshotModel{
			UserID:           userID,
			Day:              entities.DayKey(mutation.Snapshot.Date),
			TotalPowerPoints: mutation.Snapshot.TotalPowerPoints,
			Tier:             string(mutation.Snapshot.Tier),
			RecordedAt:       mutation.Snapshot.RecordedAt.UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_power_points", "tier", "recorded_at"}),
		}).Create(&snapshot).Error; err != nil {
			return err
		}

		for _, unlock := range mutation.TierUnlocks {
			row := tierUnlockModel{
				UserID:        userID,
				TierID:        string(unlock.TierID),
				TotalAtUnlock: unlock.TotalAtUnlock,
				UnlockedAt:    unlock.UnlockedAt.UTC(),
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "tier_id"}},
				DoNothing: true,
			}).Create(&row).Error; err != nil {
				return err
			}
		}

		for _, envelope := range mutation.Events {
			if err := insertOutboxEnvelopeTx(tx, envelope); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, domainerrors.ErrConcurrentUpdate) {
		r.logError("power ledger transaction failed", "power_ledger_commit_failed", userID, err)
	}
	return err
}

func (r *Repository) writeProgressionTx(tx *gorm.DB, mutation ports.LedgerMutation) error {
	row := progressionModelFromEntity(mutation.Progression)
	row.UserID = strings.TrimSpace(row.UserID)
	if mutation.ExpectedVersion == 0 {
		if err := tx.Create(&row).Error; err != nil {
			return conflictOr(err)
		}
		return nil
	}

	result := tx.Model(&progressionModel{}).
		Where("user_id = ? AND version = ? AND halted = ?", row.UserID, mutation.ExpectedVersion, false).
		Updates(map[string]any{
			"total_power_points": row.TotalPowerPoints,
			"current_streak":     row.CurrentStreak,
			"best_streak":        row.BestStreak,
			"current_tier":       row.CurrentTier,
			"last_activity_day":  row.LastActivityDay,
			"daily_minimum":      row.DailyMinimum,
			"version":            row.Version,
			"updated_at":         row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConcurrentUpdate
	}
	return nil
}

func (r *Repository) HaltUser(ctx context.Context, userID string, reason string, at time.Time) error {
	userID = strings.TrimSpace(userID)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&progressionModel{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{
				"halted":      true,
				"halt_reason": reason,
				"version":     gorm.Expr("version + 1"),
				"updated_at":  at.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
		row := progressionModel{
			UserID:      userID,
			CurrentTier: string(entities.TierBase),
			Halted:      true,
			HaltReason:  reason,
			Version:     1,
			CreatedAt:   at.UTC(),
			UpdatedAt:   at.UTC(),
		}
		return tx.Create(&row).Error
	})
}

func insertOutboxEnvelopeTx(tx *gorm.DB, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return tx.Create(&row).Error
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Order("outbox_id ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *Repository) logError(message string, event string, userID string, err error) {
	r.logger.Error(message,
		"event", event,
		"module", "progression/power-engine",
		"layer", "adapter",
		"user_id", userID,
		"error", err.Error(),
	)
}

func withinWindow(tx *gorm.DB, window ports.DayRange) *gorm.DB {
	if !window.From.IsZero() {
		tx = tx.Where("day >= ?", entities.DayKey(window.From))
	}
	if !window.To.IsZero() {
		tx = tx.Where("day <= ?", entities.DayKey(window.To))
	}
	return tx
}

// conflictOr maps a natural-key collision to ErrConcurrentUpdate so the
// caller re-reads and replays instead of double-awarding.
func conflictOr(err error) error {
	if isUniqueViolation(err) {
		return domainerrors.ErrConcurrentUpdate
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var (
	_ ports.Catalog          = (*Repository)(nil)
	_ ports.LedgerRepository = (*Repository)(nil)
	_ ports.OutboxRepository = (*Repository)(nil)
)
