package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
	"powertrack/contexts/progression/power-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message     ports.OutboxMessage
	publishedAt *time.Time
}

// Store keeps the catalog projection and the power ledger in process. It
// backs local runs and tests; ApplyCommit has the same all-or-nothing
// semantics as the postgres repository.
type Store struct {
	mu sync.RWMutex

	habits     map[string]entities.Habit
	tasks      map[string]entities.Task
	categories map[string]entities.Category

	progressions    map[string]entities.UserProgression
	dayLogs         map[string]map[string]entities.DayLog
	offDays         map[string]map[string]entities.OffDayRecord
	habitRecords    map[string]map[string]entities.HabitDayRecord
	taskCompletions map[string]entities.TaskCompletion
	snapshots       map[string]map[string]entities.PowerSnapshot
	unlocks         map[string]map[entities.TierID]entities.TierUnlock
	outbox          []outboxRecord

	now *time.Time
}

func NewStore() *Store {
	return &Store{
		habits:          make(map[string]entities.Habit),
		tasks:           make(map[string]entities.Task),
		categories:      make(map[string]entities.Category),
		progressions:    make(map[string]entities.UserProgression),
		dayLogs:         make(map[string]map[string]entities.DayLog),
		offDays:         make(map[string]map[string]entities.OffDayRecord),
		habitRecords:    make(map[string]map[string]entities.HabitDayRecord),
		taskCompletions: make(map[string]entities.TaskCompletion),
		snapshots:       make(map[string]map[string]entities.PowerSnapshot),
		unlocks:         make(map[string]map[entities.TierID]entities.TierUnlock),
		outbox:          make([]outboxRecord, 0),
	}
}

func (s *Store) SeedHabit(item entities.Habit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item.CustomDays = append([]time.Weekday(nil), item.CustomDays...)
	s.habits[strings.TrimSpace(item.HabitID)] = item
}

func (s *Store) SeedTask(item entities.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[strings.TrimSpace(item.TaskID)] = item
}

func (s *Store) SeedCategory(item entities.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[strings.TrimSpace(item.CategoryID)] = item
}

func (s *Store) UpsertHabit(_ context.Context, item entities.Habit) error {
	s.SeedHabit(item)
	return nil
}

func (s *Store) UpsertTask(_ context.Context, item entities.Task) error {
	s.SeedTask(item)
	return nil
}

func (s *Store) UpsertCategory(_ context.Context, item entities.Category) error {
	s.SeedCategory(item)
	return nil
}

// SeedProgression overwrites a user's aggregate without going through the
// ledger. Tests use it to model corrupted state.
func (s *Store) SeedProgression(item entities.UserProgression) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progressions[strings.TrimSpace(item.UserID)] = item
}

// SeedDayLog overwrites one day row, again bypassing the ledger.
func (s *Store) SeedDayLog(item entities.DayLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item.Date = entities.DateOf(item.Date)
	userDays(s.dayLogs, item.UserID)[entities.DayKey(item.Date)] = item
}

// SetNow pins the clock. A zero time restores wall-clock time.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.IsZero() {
		s.now = nil
		return
	}
	pinned := now.UTC()
	s.now = &pinned
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.now != nil {
		return *s.now
	}
	return time.Now().UTC()
}

func (s *Store) NewID(context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) GetHabit(_ context.Context, habitID string) (entities.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.habits[strings.TrimSpace(habitID)]
	if !ok {
		return entities.Habit{}, domainerrors.ErrHabitNotFound
	}
	return item, nil
}

func (s *Store) ListHabitsByUser(_ context.Context, userID string) ([]entities.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID = strings.TrimSpace(userID)
	items := make([]entities.Habit, 0)
	for _, item := range s.habits {
		if item.UserID == userID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].HabitID < items[j].HabitID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) GetTask(_ context.Context, taskID string) (entities.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.tasks[strings.TrimSpace(taskID)]
	if !ok {
		return entities.Task{}, domainerrors.ErrTaskNotFound
	}
	return item, nil
}

func (s *Store) GetCategory(_ context.Context, categoryID string) (entities.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.categories[strings.TrimSpace(categoryID)]
	if !ok {
		return entities.Category{}, domainerrors.ErrCategoryNotFound
	}
	return item, nil
}

func (s *Store) GetProgression(_ context.Context, userID string) (entities.UserProgression, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.progressions[strings.TrimSpace(userID)]
	return item, ok, nil
}

func (s *Store) ListUserIDs(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]string, 0, len(s.progressions))
	for userID := range s.progressions {
		items = append(items, userID)
	}
	sort.Strings(items)
	return items, nil
}

func (s *Store) GetDayLog(_ context.Context, userID string, day time.Time) (entities.DayLog, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.dayLogs[strings.TrimSpace(userID)][entities.DayKey(day)]
	return item, ok, nil
}

func (s *Store) ListDayLogs(_ context.Context, userID string, window ports.DayRange) ([]entities.DayLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.DayLog, 0)
	for _, item := range s.dayLogs[strings.TrimSpace(userID)] {
		if inRange(item.Date, window) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Date.Before(items[j].Date) })
	return items, nil
}

func (s *Store) GetOffDay(_ context.Context, userID string, day time.Time) (entities.OffDayRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.offDays[strings.TrimSpace(userID)][entities.DayKey(day)]
	return item, ok, nil
}

func (s *Store) ListOffDays(_ context.Context, userID string, window ports.DayRange) ([]entities.OffDayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.OffDayRecord, 0)
	for _, item := range s.offDays[strings.TrimSpace(userID)] {
		if inRange(item.Date, window) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Date.Before(items[j].Date) })
	return items, nil
}

func (s *Store) GetHabitRecord(_ context.Context, habitID string, day time.Time) (entities.HabitDayRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.habitRecords[strings.TrimSpace(habitID)][entities.DayKey(day)]
	return item, ok, nil
}

func (s *Store) ListHabitRecords(_ context.Context, habitID string, window ports.DayRange) ([]entities.HabitDayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.HabitDayRecord, 0)
	for _, item := range s.habitRecords[strings.TrimSpace(habitID)] {
		if inRange(item.Date, window) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Date.Before(items[j].Date) })
	return items, nil
}

func (s *Store) ListHabitRecordsByUserDay(_ context.Context, userID string, day time.Time) ([]entities.HabitDayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID = strings.TrimSpace(userID)
	key := entities.DayKey(day)
	items := make([]entities.HabitDayRecord, 0)
	for _, byDay := range s.habitRecords {
		item, ok := byDay[key]
		if ok && item.UserID == userID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].HabitID < items[j].HabitID })
	return items, nil
}

func (s *Store) ListHabitRecordsByUser(_ context.Context, userID string, window ports.DayRange) ([]entities.HabitDayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID = strings.TrimSpace(userID)
	items := make([]entities.HabitDayRecord, 0)
	for _, byDay := range s.habitRecords {
		for _, item := range byDay {
			if item.UserID == userID && inRange(item.Date, window) {
				items = append(items, item)
			}
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Date.Equal(items[j].Date) {
			return items[i].HabitID < items[j].HabitID
		}
		return items[i].Date.Before(items[j].Date)
	})
	return items, nil
}

func (s *Store) GetTaskCompletion(_ context.Context, completionID string) (entities.TaskCompletion, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.taskCompletions[strings.TrimSpace(completionID)]
	return item, ok, nil
}

func (s *Store) ListTaskCompletionsByUserDay(_ context.Context, userID string, day time.Time) ([]entities.TaskCompletion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID = strings.TrimSpace(userID)
	key := entities.DayKey(day)
	items := make([]entities.TaskCompletion, 0)
	for _, item := range s.taskCompletions {
		if item.UserID == userID && entities.DayKey(item.Date) == key {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CompletedAt.Equal(items[j].CompletedAt) {
			return items[i].CompletionID < items[j].CompletionID
		}
		return items[i].CompletedAt.Before(items[j].CompletedAt)
	})
	return items, nil
}

func (s *Store) ListTaskCompletions(_ context.Context, userID string, window ports.DayRange) ([]entities.TaskCompletion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID = strings.TrimSpace(userID)
	items := make([]entities.TaskCompletion, 0)
	for _, item := range s.taskCompletions {
		if item.UserID == userID && inRange(item.Date, window) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.Before(items[j].Date)
		}
		if items[i].CompletedAt.Equal(items[j].CompletedAt) {
			return items[i].CompletionID < items[j].CompletionID
		}
		return items[i].CompletedAt.Before(items[j].CompletedAt)
	})
	return items, nil
}

func (s *Store) ListSnapshots(_ context.Context, userID string, window ports.DayRange) ([]entities.PowerSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.PowerSnapshot, 0)
	for _, item := range s.snapshots[strings.TrimSpace(userID)] {
		if inRange(item.Date, window) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Date.Before(items[j].Date) })
	return items, nil
}

func (s *Store) ListTierUnlocks(_ context.Context, userID string) ([]entities.TierUnlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.TierUnlock, 0)
	for _, item := range s.unlocks[strings.TrimSpace(userID)] {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].UnlockedAt.Equal(items[j].UnlockedAt) {
			return items[i].TotalAtUnlock < items[j].TotalAtUnlock
		}
		return items[i].UnlockedAt.Before(items[j].UnlockedAt)
	})
	return items, nil
}

func (s *Store) ApplyCommit(_ context.Context, mutation ports.LedgerMutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID := strings.TrimSpace(mutation.Progression.UserID)
	if userID == "" {
		return domainerrors.ErrInvalidInput
	}
	current, exists := s.progressions[userID]
	if exists != (mutation.ExpectedVersion > 0) || current.Version != mutation.ExpectedVersion {
		return domainerrors.ErrConcurrentUpdate
	}
	if current.Halted {
		return domainerrors.ErrUserHalted
	}

	// Natural keys are checked before anything is written.
	if record := mutation.HabitRecord; record != nil {
		if existing, ok := s.habitRecords[record.HabitID][entities.DayKey(record.Date)]; ok && existing.Completed {
			return domainerrors.ErrConcurrentUpdate
		}
	}
	if completion := mutation.TaskCompletion; completion != nil {
		if _, ok := s.taskCompletions[completion.CompletionID]; ok {
			return domainerrors.ErrConcurrentUpdate
		}
	}
	if offDay := mutation.OffDay; offDay != nil {
		if _, ok := s.offDays[userID][entities.DayKey(offDay.Date)]; ok {
			return domainerrors.ErrConcurrentUpdate
		}
	}
	outbox := make([]outboxRecord, 0, len(mutation.Events))
	for _, event := range mutation.Events {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}
		outbox = append(outbox, outboxRecord{message: ports.OutboxMessage{
			OutboxID:     event.EventID,
			EventType:    event.EventType,
			PartitionKey: event.PartitionKey,
			Payload:      payload,
			CreatedAt:    event.OccurredAt,
		}})
	}

	s.progressions[userID] = mutation.Progression
	dayLog := mutation.DayLog
	dayLog.Date = entities.DateOf(dayLog.Date)
	userDays(s.dayLogs, userID)[entities.DayKey(dayLog.Date)] = dayLog
	if record := mutation.HabitRecord; record != nil {
		item := *record
		item.Date = entities.DateOf(item.Date)
		userDays(s.habitRecords, item.HabitID)[entities.DayKey(item.Date)] = item
	}
	if completion := mutation.TaskCompletion; completion != nil {
		item := *completion
		item.Date = entities.DateOf(item.Date)
		s.taskCompletions[item.CompletionID] = item
	}
	if offDay := mutation.OffDay; offDay != nil {
		item := *offDay
		item.Date = entities.DateOf(item.Date)
		userDays(s.offDays, userID)[entities.DayKey(item.Date)] = item
	}
	snapshot := mutation.Snapshot
	snapshot.Date = entities.DateOf(snapshot.Date)
	userDays(s.snapshots, userID)[entities.DayKey(snapshot.Date)] = snapshot
	for _, unlock := range mutation.TierUnlocks {
		if _, ok := s.unlocks[userID]; !ok {
			s.unlocks[userID] = make(map[entities.TierID]entities.TierUnlock)
		}
		if _, ok := s.unlocks[userID][unlock.TierID]; !ok {
			s.unlocks[userID][unlock.TierID] = unlock
		}
	}
	s.outbox = append(s.outbox, outbox...)
	return nil
}

func (s *Store) HaltUser(_ context.Context, userID string, reason string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID = strings.TrimSpace(userID)
	item, ok := s.progressions[userID]
	if !ok {
		item = entities.UserProgression{UserID: userID, CurrentTier: entities.TierBase, CreatedAt: at.UTC()}
	}
	item.Halted = true
	item.HaltReason = reason
	item.Version++
	item.UpdatedAt = at.UTC()
	s.progressions[userID] = item
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, limit)
	for _, record := range s.outbox {
		if record.publishedAt != nil {
			continue
		}
		items = append(items, record.message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].message.OutboxID != outboxID {
			continue
		}
		if s.outbox[i].publishedAt == nil {
			at := publishedAt.UTC()
			s.outbox[i].publishedAt = &at
		}
		return nil
	}
	return domainerrors.ErrNotFound
}

func userDays[T any](items map[string]map[string]T, key string) map[string]T {
	key = strings.TrimSpace(key)
	byDay, ok := items[key]
	if !ok {
		byDay = make(map[string]T)
		items[key] = byDay
	}
	return byDay
}

func inRange(day time.Time, window ports.DayRange) bool {
	day = entities.DateOf(day)
	if !window.From.IsZero() && day.Before(entities.DateOf(window.From)) {
		return false
	}
	if !window.To.IsZero() && day.After(entities.DateOf(window.To)) {
		return false
	}
	return true
}

var (
	_ ports.Catalog          = (*Store)(nil)
	_ ports.LedgerRepository = (*Store)(nil)
	_ ports.OutboxRepository = (*Store)(nil)
	_ ports.Clock            = (*Store)(nil)
	_ ports.IDGenerator      = (*Store)(nil)
)
